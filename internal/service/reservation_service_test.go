package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"
	"campus_parking/internal/repository/memory"

	"gopkg.in/guregu/null.v4"
)

type capturedNotifier struct {
	mu            sync.Mutex
	notifications []domain.SlotStatusNotification
}

func (n *capturedNotifier) BroadcastSlotStatus(notification domain.SlotStatusNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification)
}

func (n *capturedNotifier) all() []domain.SlotStatusNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.SlotStatusNotification(nil), n.notifications...)
}

func newTestService(store *memory.Store, notifier SlotNotifier) *ReservationService {
	return NewReservationService(
		store,
		store.Users(),
		store.Vehicles(),
		store.ParkingSlots(),
		store.Reservations(),
		notifier,
	)
}

func mustUser(t *testing.T, store *memory.Store, name, role string) *domain.User {
	t.Helper()
	user, err := store.Users().Create(context.Background(), &domain.User{Name: name, Role: role})
	if err != nil {
		t.Fatalf("tạo người dùng %s: %v", name, err)
	}
	return user
}

func mustVehicle(t *testing.T, store *memory.Store, userID int, regNo, typeCode string) *domain.Vehicle {
	t.Helper()
	vehicle, err := store.Vehicles().Create(context.Background(), &domain.Vehicle{
		UserID: userID,
		RegNo:  regNo,
		Type:   typeCode,
	})
	if err != nil {
		t.Fatalf("tạo xe %s: %v", regNo, err)
	}
	return vehicle
}

func mustSlot(t *testing.T, store *memory.Store, name string, slotType domain.SlotType, fixedFor string) *domain.ParkingSlot {
	t.Helper()
	slot := &domain.ParkingSlot{
		LotID:    1,
		SlotName: name,
		SlotType: slotType,
		Status:   domain.SlotAvailable,
	}
	if fixedFor != "" {
		slot.FixedFor = null.StringFrom(fixedFor)
	}
	slot, err := store.ParkingSlots().Create(context.Background(), slot)
	if err != nil {
		t.Fatalf("tạo chỗ đỗ %s: %v", name, err)
	}
	return slot
}

func slotStatus(t *testing.T, store *memory.Store, slotID int) domain.SlotStatus {
	t.Helper()
	slot, err := store.ParkingSlots().FindByID(context.Background(), slotID)
	if err != nil {
		t.Fatalf("đọc chỗ đỗ %d: %v", slotID, err)
	}
	return slot.Status
}

func TestReserve(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store, nil)
	user := mustUser(t, store, "An", domain.RoleStudent)
	vehicle := mustVehicle(t, store, user.UserID, "59A-111.11", domain.VehicleTypeCar)
	slot := mustSlot(t, store, "A1", domain.SlotTypeCar, "")

	res, err := svc.Reserve(context.Background(), domain.ReserveDTO{
		UserID: user.UserID, VehicleID: vehicle.VehicleID, SlotID: slot.SlotID,
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if res.Status != domain.ReservationActive {
		t.Errorf("trạng thái đơn = %q, muốn active", res.Status)
	}
	if res.EndTime.Valid {
		t.Errorf("đơn mới tạo không được có end_time")
	}
	if got := slotStatus(t, store, slot.SlotID); got != domain.SlotReserved {
		t.Errorf("trạng thái chỗ đỗ = %q, muốn reserved", got)
	}
	stored, err := store.Reservations().FindByID(context.Background(), res.ResID)
	if err != nil {
		t.Fatalf("đơn đặt chỗ không được lưu: %v", err)
	}
	if stored.SlotID != slot.SlotID || stored.UserID != user.UserID || stored.VehicleID != vehicle.VehicleID {
		t.Errorf("đơn lưu sai dữ liệu: %+v", stored)
	}
}

// Hai request đặt cùng một chỗ: đúng một request thành công, phần còn
// lại nhận ErrSlotNotAvailable. Đây là tính chất quan trọng nhất của hệ
// thống nên chạy với nhiều goroutine cùng lúc.
func TestReserveConcurrent(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store, nil)
	user := mustUser(t, store, "An", domain.RoleStudent)
	slot := mustSlot(t, store, "A1", domain.SlotTypeCar, "")

	const attempts = 16
	vehicles := make([]*domain.Vehicle, attempts)
	for i := range vehicles {
		vehicles[i] = mustVehicle(t, store, user.UserID, "59A-000."+string(rune('A'+i)), domain.VehicleTypeCar)
	}

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Reserve(context.Background(), domain.ReserveDTO{
				UserID: user.UserID, VehicleID: vehicles[i].VehicleID, SlotID: slot.SlotID,
			})
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for i, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrSlotNotAvailable):
			conflicts++
		default:
			t.Errorf("request %d: lỗi ngoài dự kiến: %v", i, err)
		}
	}
	if successes != 1 {
		t.Errorf("số request thành công = %d, muốn đúng 1", successes)
	}
	if conflicts != attempts-1 {
		t.Errorf("số request bị từ chối = %d, muốn %d", conflicts, attempts-1)
	}

	views, err := svc.ListReservations(context.Background())
	if err != nil {
		t.Fatalf("ListReservations: %v", err)
	}
	if len(views) != 1 {
		t.Errorf("số đơn đặt chỗ trong store = %d, muốn 1", len(views))
	}
	if got := slotStatus(t, store, slot.SlotID); got != domain.SlotReserved {
		t.Errorf("trạng thái chỗ đỗ = %q, muốn reserved", got)
	}
}

func TestReserveNotFound(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store, nil)
	user := mustUser(t, store, "An", domain.RoleStudent)
	vehicle := mustVehicle(t, store, user.UserID, "59A-111.11", domain.VehicleTypeCar)
	slot := mustSlot(t, store, "A1", domain.SlotTypeCar, "")

	cases := []struct {
		name string
		dto  domain.ReserveDTO
	}{
		{"chỗ đỗ không tồn tại", domain.ReserveDTO{UserID: user.UserID, VehicleID: vehicle.VehicleID, SlotID: 999}},
		{"người dùng không tồn tại", domain.ReserveDTO{UserID: 999, VehicleID: vehicle.VehicleID, SlotID: slot.SlotID}},
		{"xe không tồn tại", domain.ReserveDTO{UserID: user.UserID, VehicleID: 999, SlotID: slot.SlotID}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := svc.Reserve(context.Background(), c.dto)
			if !errors.Is(err, repository.ErrNotFound) {
				t.Errorf("muốn ErrNotFound, nhận %v", err)
			}
		})
	}
	// Các request thất bại không được làm thay đổi trạng thái chỗ đỗ.
	if got := slotStatus(t, store, slot.SlotID); got != domain.SlotAvailable {
		t.Errorf("trạng thái chỗ đỗ = %q, muốn available", got)
	}
}

func TestReserveFixedFor(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store, nil)
	student := mustUser(t, store, "An", domain.RoleStudent)
	staff := mustUser(t, store, "Bình", domain.RoleStaff)
	studentCar := mustVehicle(t, store, student.UserID, "59A-111.11", domain.VehicleTypeCar)
	staffCar := mustVehicle(t, store, staff.UserID, "59A-222.22", domain.VehicleTypeCar)
	staffSlot := mustSlot(t, store, "S1", domain.SlotTypeCar, domain.RoleStaff)

	_, err := svc.Reserve(context.Background(), domain.ReserveDTO{
		UserID: student.UserID, VehicleID: studentCar.VehicleID, SlotID: staffSlot.SlotID,
	})
	if !errors.Is(err, ErrSlotRestricted) {
		t.Fatalf("student đặt chỗ dành cho staff: muốn ErrSlotRestricted, nhận %v", err)
	}
	if got := slotStatus(t, store, staffSlot.SlotID); got != domain.SlotAvailable {
		t.Errorf("request bị chặn không được đổi trạng thái chỗ đỗ, nhận %q", got)
	}

	if _, err := svc.Reserve(context.Background(), domain.ReserveDTO{
		UserID: staff.UserID, VehicleID: staffCar.VehicleID, SlotID: staffSlot.SlotID,
	}); err != nil {
		t.Fatalf("staff đặt chỗ dành cho staff phải thành công: %v", err)
	}

	// fixed_for được kiểm tra trước trạng thái: chỗ đã reserved nhưng sai
	// vai trò vẫn trả về ErrSlotRestricted chứ không phải ErrSlotNotAvailable.
	_, err = svc.Reserve(context.Background(), domain.ReserveDTO{
		UserID: student.UserID, VehicleID: studentCar.VehicleID, SlotID: staffSlot.SlotID,
	})
	if !errors.Is(err, ErrSlotRestricted) {
		t.Errorf("muốn ErrSlotRestricted (kiểm tra vai trò trước trạng thái), nhận %v", err)
	}
}

func TestReserveVehicleTypeMatching(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store, nil)
	user := mustUser(t, store, "An", domain.RoleStudent)
	car := mustVehicle(t, store, user.UserID, "59A-111.11", domain.VehicleTypeCar)
	bike := mustVehicle(t, store, user.UserID, "59B-222.22", domain.VehicleTypeBike)
	ev := mustVehicle(t, store, user.UserID, "59E-333.33", domain.VehicleTypeElectric)

	cases := []struct {
		name      string
		vehicleID int
		slotType  domain.SlotType
		wantErr   error
	}{
		{"car vào chỗ car", car.VehicleID, domain.SlotTypeCar, nil},
		{"bike vào chỗ bike", bike.VehicleID, domain.SlotTypeBike, nil},
		{"ev vào chỗ electric", ev.VehicleID, domain.SlotTypeElectric, nil},
		{"car vào chỗ handicap", car.VehicleID, domain.SlotTypeHandicap, nil},
		{"bike vào chỗ car", bike.VehicleID, domain.SlotTypeCar, ErrVehicleTypeMismatch},
		{"car vào chỗ bike", car.VehicleID, domain.SlotTypeBike, ErrVehicleTypeMismatch},
		{"bike vào chỗ handicap", bike.VehicleID, domain.SlotTypeHandicap, ErrVehicleTypeMismatch},
		{"ev vào chỗ car", ev.VehicleID, domain.SlotTypeCar, ErrVehicleTypeMismatch},
	}
	for i, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			slot := mustSlot(t, store, "T"+string(rune('a'+i)), c.slotType, "")
			_, err := svc.Reserve(context.Background(), domain.ReserveDTO{
				UserID: user.UserID, VehicleID: c.vehicleID, SlotID: slot.SlotID,
			})
			if c.wantErr == nil {
				if err != nil {
					t.Fatalf("muốn thành công, nhận %v", err)
				}
				return
			}
			if !errors.Is(err, c.wantErr) {
				t.Fatalf("muốn %v, nhận %v", c.wantErr, err)
			}
			if got := slotStatus(t, store, slot.SlotID); got != domain.SlotAvailable {
				t.Errorf("request bị chặn không được đổi trạng thái chỗ đỗ, nhận %q", got)
			}
		})
	}
}

func TestCompleteRoundTrip(t *testing.T) {
	store := memory.NewStore()
	notifier := &capturedNotifier{}
	svc := newTestService(store, notifier)
	user := mustUser(t, store, "An", domain.RoleStudent)
	vehicle := mustVehicle(t, store, user.UserID, "59A-111.11", domain.VehicleTypeCar)
	slot := mustSlot(t, store, "A1", domain.SlotTypeCar, "")

	res, err := svc.Reserve(context.Background(), domain.ReserveDTO{
		UserID: user.UserID, VehicleID: vehicle.VehicleID, SlotID: slot.SlotID,
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	completed, err := svc.Complete(context.Background(), res.ResID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.Status != domain.ReservationCompleted {
		t.Errorf("trạng thái đơn = %q, muốn completed", completed.Status)
	}
	if !completed.EndTime.Valid {
		t.Errorf("đơn hoàn thành phải có end_time")
	}
	if got := slotStatus(t, store, slot.SlotID); got != domain.SlotAvailable {
		t.Errorf("trạng thái chỗ đỗ = %q, muốn available", got)
	}

	// Complete lần hai: đơn không còn active.
	if _, err := svc.Complete(context.Background(), res.ResID); !errors.Is(err, ErrReservationNotActive) {
		t.Errorf("Complete lặp lại: muốn ErrReservationNotActive, nhận %v", err)
	}
	if _, err := svc.Complete(context.Background(), 999); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Complete đơn không tồn tại: muốn ErrNotFound, nhận %v", err)
	}

	// Chỗ đỗ trống trở lại thì đặt tiếp được.
	if _, err := svc.Reserve(context.Background(), domain.ReserveDTO{
		UserID: user.UserID, VehicleID: vehicle.VehicleID, SlotID: slot.SlotID,
	}); err != nil {
		t.Fatalf("đặt lại chỗ vừa trả: %v", err)
	}

	notifications := notifier.all()
	if len(notifications) != 3 {
		t.Fatalf("số notification = %d, muốn 3 (reserved, available, reserved)", len(notifications))
	}
	wantStatuses := []domain.SlotStatus{domain.SlotReserved, domain.SlotAvailable, domain.SlotReserved}
	for i, n := range notifications {
		if n.Type != "slot_update" || n.SlotID != slot.SlotID || n.Status != wantStatuses[i] {
			t.Errorf("notification %d = %+v, muốn status %q cho chỗ đỗ %d", i, n, wantStatuses[i], slot.SlotID)
		}
	}
}

func TestCancel(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store, nil)
	user := mustUser(t, store, "An", domain.RoleStudent)
	vehicle := mustVehicle(t, store, user.UserID, "59A-111.11", domain.VehicleTypeCar)
	slot := mustSlot(t, store, "A1", domain.SlotTypeCar, "")

	res, err := svc.Reserve(context.Background(), domain.ReserveDTO{
		UserID: user.UserID, VehicleID: vehicle.VehicleID, SlotID: slot.SlotID,
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	cancelledID, err := svc.Cancel(context.Background(), res.ResID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelledID != res.ResID {
		t.Errorf("Cancel trả về ID %d, muốn %d", cancelledID, res.ResID)
	}
	if got := slotStatus(t, store, slot.SlotID); got != domain.SlotAvailable {
		t.Errorf("trạng thái chỗ đỗ = %q, muốn available", got)
	}
	// Cancel xóa hẳn đơn.
	if _, err := store.Reservations().FindByID(context.Background(), res.ResID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("đơn đã hủy vẫn còn trong store: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), res.ResID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Cancel lặp lại: muốn ErrNotFound, nhận %v", err)
	}
}

// Khác với Complete, Cancel không yêu cầu đơn đang active: đơn đã
// completed vẫn hủy (xóa) được và chỗ đỗ đang trống vẫn giữ nguyên available.
func TestCancelCompletedReservation(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store, nil)
	user := mustUser(t, store, "An", domain.RoleStudent)
	vehicle := mustVehicle(t, store, user.UserID, "59A-111.11", domain.VehicleTypeCar)
	slot := mustSlot(t, store, "A1", domain.SlotTypeCar, "")

	res, err := svc.Reserve(context.Background(), domain.ReserveDTO{
		UserID: user.UserID, VehicleID: vehicle.VehicleID, SlotID: slot.SlotID,
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if _, err := svc.Complete(context.Background(), res.ResID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), res.ResID); err != nil {
		t.Fatalf("Cancel đơn đã completed: %v", err)
	}
	if _, err := store.Reservations().FindByID(context.Background(), res.ResID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("đơn đã hủy vẫn còn trong store")
	}
	if got := slotStatus(t, store, slot.SlotID); got != domain.SlotAvailable {
		t.Errorf("trạng thái chỗ đỗ = %q, muốn available", got)
	}
}

func TestListReservationsViews(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store, nil)
	user := mustUser(t, store, "An", domain.RoleStudent)
	vehicle := mustVehicle(t, store, user.UserID, "59A-111.11", domain.VehicleTypeCar)
	slot := mustSlot(t, store, "A1", domain.SlotTypeCar, "")

	res, err := svc.Reserve(context.Background(), domain.ReserveDTO{
		UserID: user.UserID, VehicleID: vehicle.VehicleID, SlotID: slot.SlotID,
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	views, err := svc.ListReservations(context.Background())
	if err != nil {
		t.Fatalf("ListReservations: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("số view = %d, muốn 1", len(views))
	}
	v := views[0]
	if v.ResID != res.ResID || v.Name != user.Name || v.RegNo != vehicle.RegNo || v.SlotName != slot.SlotName {
		t.Errorf("view thiếu dữ liệu join: %+v", v)
	}
}
