// Package memory là Entity Store chạy trong bộ nhớ, dùng cho test và
// chạy thử không cần PostgreSQL. Thay cho khóa dòng FOR UPDATE, mọi
// transaction giữ một mutex toàn cục từ BeginTx tới Commit/Rollback nên
// các giao dịch đặt chỗ vẫn được tuần tự hóa như bản PostgreSQL.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"

	"gopkg.in/guregu/null.v4"
)

type Store struct {
	mu sync.Mutex

	users        map[int]domain.User
	vehicles     map[int]domain.Vehicle
	lots         map[int]domain.ParkingLot
	slots        map[int]domain.ParkingSlot
	reservations map[int]domain.Reservation
	payments     map[int]domain.Payment
	accounts     map[int]domain.Account

	nextUserID    int
	nextVehicleID int
	nextLotID     int
	nextSlotID    int
	nextResID     int
	nextPaymentID int
	nextAccountID int
}

func NewStore() *Store {
	return &Store{
		users:        make(map[int]domain.User),
		vehicles:     make(map[int]domain.Vehicle),
		lots:         make(map[int]domain.ParkingLot),
		slots:        make(map[int]domain.ParkingSlot),
		reservations: make(map[int]domain.Reservation),
		payments:     make(map[int]domain.Payment),
		accounts:     make(map[int]domain.Account),
	}
}

// --- Transaction ---

type memTx struct {
	store *Store
	done  bool
	undo  []func()
}

func (t *memTx) Commit() error {
	if t.done {
		return errors.New("transaction đã kết thúc")
	}
	t.done = true
	t.undo = nil
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		// Rollback sau Commit là no-op, giống database/sql
		return nil
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (s *Store) BeginTx(ctx context.Context) (repository.Tx, error) {
	s.mu.Lock()
	return &memTx{store: s}, nil
}

func (s *Store) checkTx(tx repository.Tx) (*memTx, error) {
	mt, ok := tx.(*memTx)
	if !ok || mt.store != s {
		return nil, fmt.Errorf("transaction không thuộc store này: %T", tx)
	}
	if mt.done {
		return nil, errors.New("transaction đã kết thúc")
	}
	return mt, nil
}

// --- UserRepository ---

type userStore struct{ s *Store }

func (s *Store) Users() repository.UserRepository { return &userStore{s} }

func (r *userStore) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextUserID++
	user.UserID = r.s.nextUserID
	user.CreatedAt = time.Now().UTC()
	r.s.users[user.UserID] = *user
	return user, nil
}

func (r *userStore) FindByID(ctx context.Context, id int) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.findLocked(id)
}

func (r *userStore) FindByIDTx(ctx context.Context, tx repository.Tx, id int) (*domain.User, error) {
	if _, err := r.s.checkTx(tx); err != nil {
		return nil, err
	}
	return r.findLocked(id)
}

func (r *userStore) findLocked(id int) (*domain.User, error) {
	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *userStore) FindAll(ctx context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	users := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users, nil
}

// --- VehicleRepository ---

type vehicleStore struct{ s *Store }

func (s *Store) Vehicles() repository.VehicleRepository { return &vehicleStore{s} }

func (r *vehicleStore) Create(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.vehicles {
		if v.RegNo == vehicle.RegNo {
			return nil, fmt.Errorf("%w: biển số '%s' đã được đăng ký", repository.ErrDuplicateEntry, vehicle.RegNo)
		}
	}
	if _, ok := r.s.users[vehicle.UserID]; !ok {
		return nil, fmt.Errorf("%w: người dùng %d không tồn tại", repository.ErrNotFound, vehicle.UserID)
	}
	r.s.nextVehicleID++
	vehicle.VehicleID = r.s.nextVehicleID
	vehicle.CreatedAt = time.Now().UTC()
	r.s.vehicles[vehicle.VehicleID] = *vehicle
	return vehicle, nil
}

func (r *vehicleStore) FindByID(ctx context.Context, id int) (*domain.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.findLocked(id)
}

func (r *vehicleStore) FindByIDTx(ctx context.Context, tx repository.Tx, id int) (*domain.Vehicle, error) {
	if _, err := r.s.checkTx(tx); err != nil {
		return nil, err
	}
	return r.findLocked(id)
}

func (r *vehicleStore) findLocked(id int) (*domain.Vehicle, error) {
	vehicle, ok := r.s.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &vehicle, nil
}

func (r *vehicleStore) FindAll(ctx context.Context) ([]domain.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	vehicles := make([]domain.Vehicle, 0, len(r.s.vehicles))
	for _, v := range r.s.vehicles {
		vehicles = append(vehicles, v)
	}
	sort.Slice(vehicles, func(i, j int) bool { return vehicles[i].VehicleID < vehicles[j].VehicleID })
	return vehicles, nil
}

// --- ParkingLotRepository ---

type lotStore struct{ s *Store }

func (s *Store) ParkingLots() repository.ParkingLotRepository { return &lotStore{s} }

func (r *lotStore) Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextLotID++
	lot.LotID = r.s.nextLotID
	lot.CreatedAt = time.Now().UTC()
	r.s.lots[lot.LotID] = *lot
	return lot, nil
}

func (r *lotStore) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lot, ok := r.s.lots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &lot, nil
}

func (r *lotStore) FindAll(ctx context.Context) ([]domain.ParkingLot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lots := make([]domain.ParkingLot, 0, len(r.s.lots))
	for _, l := range r.s.lots {
		lots = append(lots, l)
	}
	sort.Slice(lots, func(i, j int) bool { return lots[i].LotID < lots[j].LotID })
	return lots, nil
}

func (r *lotStore) Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.lots[lot.LotID]; !ok {
		return nil, repository.ErrNotFound
	}
	r.s.lots[lot.LotID] = *lot
	return lot, nil
}

func (r *lotStore) Delete(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.lots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.lots, id)
	return nil
}

// --- ParkingSlotRepository ---

type slotStore struct{ s *Store }

func (s *Store) ParkingSlots() repository.ParkingSlotRepository { return &slotStore{s} }

func (r *slotStore) Create(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.slots {
		if existing.LotID == slot.LotID && existing.SlotName == slot.SlotName {
			return nil, fmt.Errorf("%w: chỗ đỗ '%s' đã tồn tại trong bãi %d", repository.ErrDuplicateEntry, slot.SlotName, slot.LotID)
		}
	}
	r.s.nextSlotID++
	slot.SlotID = r.s.nextSlotID
	if slot.Status == "" {
		slot.Status = domain.SlotAvailable
	}
	r.s.slots[slot.SlotID] = *slot
	return slot, nil
}

func (r *slotStore) FindByID(ctx context.Context, id int) (*domain.ParkingSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.findLocked(id)
}

// FindByIDForUpdate: mutex toàn cục của transaction đã giữ độc quyền
// store nên không cần khóa dòng riêng.
func (r *slotStore) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id int) (*domain.ParkingSlot, error) {
	if _, err := r.s.checkTx(tx); err != nil {
		return nil, err
	}
	return r.findLocked(id)
}

func (r *slotStore) findLocked(id int) (*domain.ParkingSlot, error) {
	slot, ok := r.s.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &slot, nil
}

func (r *slotStore) FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var slots []domain.ParkingSlot
	for _, s := range r.s.slots {
		if s.LotID == lotID {
			slots = append(slots, s)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].SlotName < slots[j].SlotName })
	return slots, nil
}

func (r *slotStore) Update(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.slots[slot.SlotID]; !ok {
		return nil, repository.ErrNotFound
	}
	r.s.slots[slot.SlotID] = *slot
	return slot, nil
}

func (r *slotStore) UpdateStatusTx(ctx context.Context, tx repository.Tx, id int, status domain.SlotStatus) error {
	mt, err := r.s.checkTx(tx)
	if err != nil {
		return err
	}
	slot, ok := r.s.slots[id]
	if !ok {
		return repository.ErrNotFound
	}
	prev := slot.Status
	slot.Status = status
	r.s.slots[id] = slot
	mt.undo = append(mt.undo, func() {
		if s, ok := r.s.slots[id]; ok {
			s.Status = prev
			r.s.slots[id] = s
		}
	})
	return nil
}

func (r *slotStore) Delete(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.slots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.slots, id)
	return nil
}

// --- SlotViewReader ---

type slotViewReader struct{ s *Store }

func (s *Store) SlotViews() repository.SlotViewReader { return &slotViewReader{s} }

func (r *slotViewReader) ListSlotViews(ctx context.Context) ([]domain.SlotView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	views := make([]domain.SlotView, 0, len(r.s.slots))
	for _, slot := range r.s.slots {
		v := domain.SlotView{
			SlotID:   slot.SlotID,
			LotID:    slot.LotID,
			SlotName: slot.SlotName,
			SlotType: slot.SlotType,
			Status:   slot.Status,
			FixedFor: slot.FixedFor,
		}
		if lot, ok := r.s.lots[slot.LotID]; ok {
			v.LotName = null.StringFrom(lot.Name)
			v.LotOwner = null.NewString(lot.Owner, lot.Owner != "")
		}
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].LotID != views[j].LotID {
			return views[i].LotID < views[j].LotID
		}
		return views[i].SlotName < views[j].SlotName
	})
	return views, nil
}

// --- ReservationRepository ---

type reservationStore struct{ s *Store }

func (s *Store) Reservations() repository.ReservationRepository { return &reservationStore{s} }

func (r *reservationStore) FindByID(ctx context.Context, id int) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.findLocked(id)
}

func (r *reservationStore) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id int) (*domain.Reservation, error) {
	if _, err := r.s.checkTx(tx); err != nil {
		return nil, err
	}
	return r.findLocked(id)
}

func (r *reservationStore) findLocked(id int) (*domain.Reservation, error) {
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &res, nil
}

func (r *reservationStore) CreateTx(ctx context.Context, tx repository.Tx, res *domain.Reservation) (*domain.Reservation, error) {
	mt, err := r.s.checkTx(tx)
	if err != nil {
		return nil, err
	}
	r.s.nextResID++
	res.ResID = r.s.nextResID
	r.s.reservations[res.ResID] = *res
	id := res.ResID
	mt.undo = append(mt.undo, func() { delete(r.s.reservations, id) })
	return res, nil
}

func (r *reservationStore) CompleteTx(ctx context.Context, tx repository.Tx, id int, endTime time.Time) error {
	mt, err := r.s.checkTx(tx)
	if err != nil {
		return err
	}
	res, ok := r.s.reservations[id]
	if !ok {
		return repository.ErrNotFound
	}
	prev := res
	res.Status = domain.ReservationCompleted
	res.EndTime = null.TimeFrom(endTime)
	r.s.reservations[id] = res
	mt.undo = append(mt.undo, func() { r.s.reservations[id] = prev })
	return nil
}

func (r *reservationStore) DeleteTx(ctx context.Context, tx repository.Tx, id int) error {
	mt, err := r.s.checkTx(tx)
	if err != nil {
		return err
	}
	res, ok := r.s.reservations[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.s.reservations, id)
	mt.undo = append(mt.undo, func() { r.s.reservations[id] = res })
	return nil
}

func (r *reservationStore) FindAllViews(ctx context.Context) ([]domain.ReservationView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	views := make([]domain.ReservationView, 0, len(r.s.reservations))
	for _, res := range r.s.reservations {
		v := domain.ReservationView{Reservation: res}
		if user, ok := r.s.users[res.UserID]; ok {
			v.Name = user.Name
		}
		if vehicle, ok := r.s.vehicles[res.VehicleID]; ok {
			v.RegNo = vehicle.RegNo
		}
		if slot, ok := r.s.slots[res.SlotID]; ok {
			v.SlotName = slot.SlotName
		}
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].StartTime.After(views[j].StartTime) })
	return views, nil
}

// --- PaymentRepository ---

type paymentStore struct{ s *Store }

func (s *Store) Payments() repository.PaymentRepository { return &paymentStore{s} }

func (r *paymentStore) Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextPaymentID++
	payment.PaymentID = r.s.nextPaymentID
	payment.CreatedAt = time.Now().UTC()
	r.s.payments[payment.PaymentID] = *payment
	return payment, nil
}

func (r *paymentStore) FindAll(ctx context.Context) ([]domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	payments := make([]domain.Payment, 0, len(r.s.payments))
	for _, p := range r.s.payments {
		payments = append(payments, p)
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].PaymentID > payments[j].PaymentID })
	return payments, nil
}

// --- AccountRepository ---

type accountStore struct{ s *Store }

func (s *Store) Accounts() repository.AccountRepository { return &accountStore{s} }

func (r *accountStore) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Username == account.Username {
			return nil, fmt.Errorf("%w: tên đăng nhập '%s' đã tồn tại", repository.ErrDuplicateEntry, account.Username)
		}
	}
	r.s.nextAccountID++
	account.ID = r.s.nextAccountID
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.s.accounts[account.ID] = *account
	return account, nil
}

func (r *accountStore) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Username == username {
			account := a
			return &account, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *accountStore) FindByID(ctx context.Context, id int) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	account, ok := r.s.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &account, nil
}
