package repository

import (
	"context"
	"errors"
	"time"

	"campus_parking/internal/domain"
)

var ErrNotFound = errors.New("không tìm thấy bản ghi")
var ErrDuplicateEntry = errors.New("bản ghi đã tồn tại")

// Tx là một transaction đang mở trên Entity Store. Các phương thức *Tx
// của repository chỉ chấp nhận Tx do cùng một TxBeginner tạo ra.
type Tx interface {
	Commit() error
	Rollback() error
}

// TxBeginner mở transaction cho Reservation Engine. Với PostgreSQL đây
// là BEGIN; bản in-memory trong test tuần tự hóa bằng mutex.
type TxBeginner interface {
	BeginTx(ctx context.Context) (Tx, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	// FindByIDTx đọc trong transaction đang mở của Reservation Engine.
	FindByIDTx(ctx context.Context, tx Tx, id int) (*domain.User, error)
}

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error)
	FindByID(ctx context.Context, id int) (*domain.Vehicle, error)
	FindAll(ctx context.Context) ([]domain.Vehicle, error)
	FindByIDTx(ctx context.Context, tx Tx, id int) (*domain.Vehicle, error)
}

type ParkingLotRepository interface {
	Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingLot, error)
	FindAll(ctx context.Context) ([]domain.ParkingLot, error)
	Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	Delete(ctx context.Context, id int) error
}

type ParkingSlotRepository interface {
	Create(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingSlot, error)
	FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSlot, error)
	Update(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error)
	Delete(ctx context.Context, id int) error
	// FindByIDForUpdate khóa độc quyền dòng chỗ đỗ (SELECT ... FOR UPDATE)
	// cho tới khi tx commit hoặc rollback.
	FindByIDForUpdate(ctx context.Context, tx Tx, id int) (*domain.ParkingSlot, error)
	UpdateStatusTx(ctx context.Context, tx Tx, id int, status domain.SlotStatus) error
}

// SlotViewReader là strategy cho GET /slots, được chọn một lần lúc khởi
// động tùy theo schema có bảng parking_lots và cột fixed_for hay không.
type SlotViewReader interface {
	ListSlotViews(ctx context.Context) ([]domain.SlotView, error)
}

type ReservationRepository interface {
	FindByID(ctx context.Context, id int) (*domain.Reservation, error)
	FindAllViews(ctx context.Context) ([]domain.ReservationView, error)
	CreateTx(ctx context.Context, tx Tx, res *domain.Reservation) (*domain.Reservation, error)
	FindByIDForUpdate(ctx context.Context, tx Tx, id int) (*domain.Reservation, error)
	CompleteTx(ctx context.Context, tx Tx, id int, endTime time.Time) error
	DeleteTx(ctx context.Context, tx Tx, id int) error
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error)
	FindAll(ctx context.Context) ([]domain.Payment, error)
}

type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	FindByID(ctx context.Context, id int) (*domain.Account, error)
}
