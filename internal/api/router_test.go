package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campus_parking/internal/api/handler"
	"campus_parking/internal/api/middleware"
	"campus_parking/internal/domain"
	"campus_parking/internal/repository/memory"
	"campus_parking/internal/service"

	"github.com/gin-gonic/gin"
	"gopkg.in/guregu/null.v4"
)

func newTestRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	authService := service.NewAuthService(store.Accounts(), "test-secret", time.Hour)
	directoryService := service.NewDirectoryService(
		store.Users(), store.Vehicles(), store.ParkingLots(),
		store.ParkingSlots(), store.SlotViews(), store.Payments(),
	)
	wsManager := handler.NewWebSocketManager()
	go wsManager.Start()
	reservationService := service.NewReservationService(
		store, store.Users(), store.Vehicles(),
		store.ParkingSlots(), store.Reservations(), wsManager,
	)
	authMw := middleware.NewAuthMiddleware(authService)

	return SetupRouter(authService, directoryService, reservationService, authMw, wsManager), store
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func TestPing(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doRequest(t, r, http.MethodGet, "/ping", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /ping = %d, muốn 200", w.Code)
	}
}

func TestUserEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	// Thiếu role -> binding thất bại.
	w := doRequest(t, r, http.MethodPost, "/users", `{"name":"An"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("POST /users thiếu role = %d, muốn 400", w.Code)
	}

	w = doRequest(t, r, http.MethodPost, "/users", `{"name":"An","role":"student"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /users = %d, body %s", w.Code, w.Body.String())
	}
	created := decodeBody(t, w)
	if created["user_id"] == nil || created["user_id"].(float64) < 1 {
		t.Errorf("POST /users không trả user_id: %v", created)
	}

	w = doRequest(t, r, http.MethodGet, "/users", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /users = %d", w.Code)
	}
	var users []domain.User
	if err := json.Unmarshal(w.Body.Bytes(), &users); err != nil {
		t.Fatalf("decode GET /users: %v", err)
	}
	if len(users) != 1 || users[0].Name != "An" {
		t.Errorf("GET /users = %+v, muốn 1 người dùng tên An", users)
	}
}

func TestVehicleEndpoints(t *testing.T) {
	r, store := newTestRouter(t)
	seedUser(t, store, "An", domain.RoleStudent)

	w := doRequest(t, r, http.MethodPost, "/vehicles", `{"user_id":1,"reg_no":"59E-333.33","type":"ev"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /vehicles = %d, body %s", w.Code, w.Body.String())
	}
	// Client nhận loại xe dạng đầy đủ, không phải mã lưu trữ.
	if body := decodeBody(t, w); body["type"] != "electric" {
		t.Errorf("type trả về = %v, muốn electric", body["type"])
	}

	w = doRequest(t, r, http.MethodPost, "/vehicles", `{"user_id":1,"reg_no":"59A-111.11","type":"truck"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("POST /vehicles loại truck = %d, muốn 400", w.Code)
	}

	w = doRequest(t, r, http.MethodPost, "/vehicles", `{"user_id":99,"reg_no":"59A-111.11","type":"car"}`, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("POST /vehicles người dùng không tồn tại = %d, muốn 404", w.Code)
	}

	w = doRequest(t, r, http.MethodPost, "/vehicles", `{"user_id":1,"reg_no":"59E-333.33","type":"car"}`, "")
	if w.Code != http.StatusConflict {
		t.Errorf("POST /vehicles biển số trùng = %d, muốn 409", w.Code)
	}
}

func TestSlotListView(t *testing.T) {
	r, store := newTestRouter(t)
	lot := seedLot(t, store, "Bãi A", "staff")
	seedSlot(t, store, lot.LotID, "A1", domain.SlotTypeCar, "")

	w := doRequest(t, r, http.MethodGet, "/slots", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /slots = %d", w.Code)
	}
	var views []domain.SlotView
	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode GET /slots: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("GET /slots trả %d view, muốn 1", len(views))
	}
	v := views[0]
	if v.SlotName != "A1" || !v.LotName.Valid || v.LotName.String != "Bãi A" {
		t.Errorf("view thiếu thông tin bãi đỗ: %+v", v)
	}
	if v.Status != domain.SlotAvailable {
		t.Errorf("trạng thái = %q, muốn available", v.Status)
	}
}

func TestReservationFlow(t *testing.T) {
	r, store := newTestRouter(t)
	user := seedUser(t, store, "An", domain.RoleStudent)
	vehicle := seedVehicle(t, store, user.UserID, "59A-111.11", domain.VehicleTypeCar)
	lot := seedLot(t, store, "Bãi A", "")
	slot := seedSlot(t, store, lot.LotID, "A1", domain.SlotTypeCar, "")

	reserveBody := fmt.Sprintf(`{"user_id":%d,"vehicle_id":%d,"slot_id":%d}`,
		user.UserID, vehicle.VehicleID, slot.SlotID)

	// Body thiếu trường -> 400 trước khi chạm vào engine.
	w := doRequest(t, r, http.MethodPost, "/reserve", `{"user_id":1}`, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("POST /reserve thiếu trường = %d, muốn 400", w.Code)
	}

	w = doRequest(t, r, http.MethodPost, "/reserve", reserveBody, "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /reserve = %d, body %s", w.Code, w.Body.String())
	}
	resID := int(decodeBody(t, w)["res_id"].(float64))

	// Chỗ vừa bị chiếm -> 409.
	w = doRequest(t, r, http.MethodPost, "/reserve", reserveBody, "")
	if w.Code != http.StatusConflict {
		t.Errorf("POST /reserve chỗ đã reserved = %d, muốn 409", w.Code)
	}

	// Chỗ đỗ không tồn tại -> 404.
	w = doRequest(t, r, http.MethodPost, "/reserve",
		fmt.Sprintf(`{"user_id":%d,"vehicle_id":%d,"slot_id":999}`, user.UserID, vehicle.VehicleID), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("POST /reserve chỗ không tồn tại = %d, muốn 404", w.Code)
	}

	w = doRequest(t, r, http.MethodGet, "/reservations", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /reservations = %d", w.Code)
	}
	var views []domain.ReservationView
	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode GET /reservations: %v", err)
	}
	if len(views) != 1 || views[0].ResID != resID || views[0].RegNo != vehicle.RegNo {
		t.Errorf("GET /reservations = %+v, muốn 1 đơn với res_id %d", views, resID)
	}

	completeBody := fmt.Sprintf(`{"res_id":%d}`, resID)
	w = doRequest(t, r, http.MethodPost, "/complete", completeBody, "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /complete = %d, body %s", w.Code, w.Body.String())
	}
	// Đơn không còn active -> 409.
	w = doRequest(t, r, http.MethodPost, "/complete", completeBody, "")
	if w.Code != http.StatusConflict {
		t.Errorf("POST /complete lặp lại = %d, muốn 409", w.Code)
	}

	// Chỗ đã trả về thì đặt lại được, rồi hủy qua DELETE.
	w = doRequest(t, r, http.MethodPost, "/reserve", reserveBody, "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /reserve lần hai = %d", w.Code)
	}
	secondID := int(decodeBody(t, w)["res_id"].(float64))

	w = doRequest(t, r, http.MethodDelete, fmt.Sprintf("/reservations/%d", secondID), "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE /reservations/%d = %d", secondID, w.Code)
	}
	w = doRequest(t, r, http.MethodDelete, fmt.Sprintf("/reservations/%d", secondID), "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("DELETE đơn đã xóa = %d, muốn 404", w.Code)
	}
	w = doRequest(t, r, http.MethodDelete, "/reservations/abc", "", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("DELETE res_id không phải số = %d, muốn 400", w.Code)
	}
}

func TestReservationForbidden(t *testing.T) {
	r, store := newTestRouter(t)
	student := seedUser(t, store, "An", domain.RoleStudent)
	bike := seedVehicle(t, store, student.UserID, "59B-222.22", domain.VehicleTypeBike)
	lot := seedLot(t, store, "Bãi A", "")
	staffSlot := seedSlot(t, store, lot.LotID, "S1", domain.SlotTypeCar, domain.RoleStaff)
	carSlot := seedSlot(t, store, lot.LotID, "C1", domain.SlotTypeCar, "")

	// Sai vai trò -> 403.
	w := doRequest(t, r, http.MethodPost, "/reserve",
		fmt.Sprintf(`{"user_id":%d,"vehicle_id":%d,"slot_id":%d}`, student.UserID, bike.VehicleID, staffSlot.SlotID), "")
	if w.Code != http.StatusForbidden {
		t.Errorf("POST /reserve sai vai trò = %d, muốn 403", w.Code)
	}

	// Sai loại xe -> 403.
	w = doRequest(t, r, http.MethodPost, "/reserve",
		fmt.Sprintf(`{"user_id":%d,"vehicle_id":%d,"slot_id":%d}`, student.UserID, bike.VehicleID, carSlot.SlotID), "")
	if w.Code != http.StatusForbidden {
		t.Errorf("POST /reserve sai loại xe = %d, muốn 403", w.Code)
	}
}

func TestPaymentEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(t, r, http.MethodPost, "/payments", `{"reservation_id":1,"amount":-5,"mode":"cash"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("POST /payments số tiền âm = %d, muốn 400", w.Code)
	}

	w = doRequest(t, r, http.MethodPost, "/payments", `{"reservation_id":1,"amount":50,"mode":"cash"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /payments = %d, body %s", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["payment_id"] == nil {
		t.Errorf("POST /payments không trả payment_id: %v", body)
	}

	w = doRequest(t, r, http.MethodGet, "/payments", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /payments = %d", w.Code)
	}
	var payments []domain.Payment
	if err := json.Unmarshal(w.Body.Bytes(), &payments); err != nil {
		t.Fatalf("decode GET /payments: %v", err)
	}
	if len(payments) != 1 || payments[0].Status != "done" || payments[0].Amount != 50 {
		t.Errorf("GET /payments = %+v", payments)
	}
}

func TestAdminRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	// Chưa đăng nhập -> 401.
	w := doRequest(t, r, http.MethodGet, "/api/v1/parking-lots", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/v1/parking-lots không token = %d, muốn 401", w.Code)
	}
	w = doRequest(t, r, http.MethodGet, "/api/v1/parking-lots", "", "sai-token")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/v1/parking-lots token sai = %d, muốn 401", w.Code)
	}

	adminToken := registerAndLogin(t, r, "admin1", "matkhau123", "admin")
	operatorToken := registerAndLogin(t, r, "operator1", "matkhau123", "")

	// Operator đọc được nhưng không tạo được.
	w = doRequest(t, r, http.MethodGet, "/api/v1/parking-lots", "", operatorToken)
	if w.Code != http.StatusOK {
		t.Errorf("GET /api/v1/parking-lots (operator) = %d, muốn 200", w.Code)
	}
	w = doRequest(t, r, http.MethodPost, "/api/v1/parking-lots", `{"name":"Bãi A","owner":"staff"}`, operatorToken)
	if w.Code != http.StatusForbidden {
		t.Errorf("POST /api/v1/parking-lots (operator) = %d, muốn 403", w.Code)
	}

	w = doRequest(t, r, http.MethodPost, "/api/v1/parking-lots", `{"name":"Bãi A","owner":"staff"}`, adminToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /api/v1/parking-lots (admin) = %d, body %s", w.Code, w.Body.String())
	}
	lotID := int(decodeBody(t, w)["lot_id"].(float64))

	w = doRequest(t, r, http.MethodPost, "/api/v1/parking-slots",
		fmt.Sprintf(`{"lot_id":%d,"slot_name":"A1","slot_type":"car","fixed_for":"staff"}`, lotID), adminToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /api/v1/parking-slots = %d, body %s", w.Code, w.Body.String())
	}
	slotID := int(decodeBody(t, w)["slot_id"].(float64))

	// Trùng tên chỗ đỗ trong cùng bãi -> 409.
	w = doRequest(t, r, http.MethodPost, "/api/v1/parking-slots",
		fmt.Sprintf(`{"lot_id":%d,"slot_name":"A1","slot_type":"car"}`, lotID), adminToken)
	if w.Code != http.StatusConflict {
		t.Errorf("POST /api/v1/parking-slots trùng tên = %d, muốn 409", w.Code)
	}

	// Bãi còn chỗ đỗ thì không xóa được.
	w = doRequest(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/parking-lots/%d", lotID), "", adminToken)
	if w.Code != http.StatusConflict {
		t.Errorf("DELETE bãi còn chỗ đỗ = %d, muốn 409", w.Code)
	}

	w = doRequest(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/parking-slots/%d", slotID), "", adminToken)
	if w.Code != http.StatusNoContent {
		t.Fatalf("DELETE /api/v1/parking-slots/%d = %d", slotID, w.Code)
	}
	w = doRequest(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/parking-lots/%d", lotID), "", adminToken)
	if w.Code != http.StatusNoContent {
		t.Errorf("DELETE bãi trống = %d, muốn 204", w.Code)
	}
}

func registerAndLogin(t *testing.T, r *gin.Engine, username, password, role string) string {
	t.Helper()
	registerBody := fmt.Sprintf(`{"username":%q,"password":%q,"role":%q}`, username, password, role)
	if role == "" {
		registerBody = fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	}
	w := doRequest(t, r, http.MethodPost, "/auth/register", registerBody, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /auth/register %s = %d, body %s", username, w.Code, w.Body.String())
	}

	w = doRequest(t, r, http.MethodPost, "/auth/login",
		fmt.Sprintf(`{"username":%q,"password":%q}`, username, password), "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /auth/login %s = %d, body %s", username, w.Code, w.Body.String())
	}
	token, _ := decodeBody(t, w)["token"].(string)
	if token == "" {
		t.Fatalf("login %s không trả token", username)
	}
	return token
}

// --- seed helpers ---

func testCtx() context.Context { return context.Background() }

func seedUser(t *testing.T, store *memory.Store, name, role string) *domain.User {
	t.Helper()
	user, err := store.Users().Create(testCtx(), &domain.User{Name: name, Role: role})
	if err != nil {
		t.Fatalf("seed người dùng: %v", err)
	}
	return user
}

func seedVehicle(t *testing.T, store *memory.Store, userID int, regNo, typeCode string) *domain.Vehicle {
	t.Helper()
	vehicle, err := store.Vehicles().Create(testCtx(), &domain.Vehicle{UserID: userID, RegNo: regNo, Type: typeCode})
	if err != nil {
		t.Fatalf("seed xe: %v", err)
	}
	return vehicle
}

func seedLot(t *testing.T, store *memory.Store, name, owner string) *domain.ParkingLot {
	t.Helper()
	lot, err := store.ParkingLots().Create(testCtx(), &domain.ParkingLot{Name: name, Owner: owner})
	if err != nil {
		t.Fatalf("seed bãi đỗ: %v", err)
	}
	return lot
}

func seedSlot(t *testing.T, store *memory.Store, lotID int, name string, slotType domain.SlotType, fixedFor string) *domain.ParkingSlot {
	t.Helper()
	slot := &domain.ParkingSlot{
		LotID:    lotID,
		SlotName: name,
		SlotType: slotType,
		Status:   domain.SlotAvailable,
		FixedFor: null.NewString(fixedFor, fixedFor != ""),
	}
	slot, err := store.ParkingSlots().Create(testCtx(), slot)
	if err != nil {
		t.Fatalf("seed chỗ đỗ: %v", err)
	}
	return slot
}
