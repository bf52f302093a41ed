package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"

	"gopkg.in/guregu/null.v4"
)

// DirectoryService phục vụ phần nhập liệu và các view chỉ đọc: người
// dùng, xe, bãi đỗ, chỗ đỗ và thanh toán. Không có bất biến nào ngoài
// việc join đúng - mọi chuyển trạng thái chỗ đỗ đều thuộc ReservationService.
type DirectoryService struct {
	userRepo    repository.UserRepository
	vehicleRepo repository.VehicleRepository
	lotRepo     repository.ParkingLotRepository
	slotRepo    repository.ParkingSlotRepository
	slotReader  repository.SlotViewReader
	paymentRepo repository.PaymentRepository
}

func NewDirectoryService(
	userRepo repository.UserRepository,
	vehicleRepo repository.VehicleRepository,
	lotRepo repository.ParkingLotRepository,
	slotRepo repository.ParkingSlotRepository,
	slotReader repository.SlotViewReader,
	paymentRepo repository.PaymentRepository,
) *DirectoryService {
	return &DirectoryService{
		userRepo:    userRepo,
		vehicleRepo: vehicleRepo,
		lotRepo:     lotRepo,
		slotRepo:    slotRepo,
		slotReader:  slotReader,
		paymentRepo: paymentRepo,
	}
}

// --- User ---

func (s *DirectoryService) CreateUser(ctx context.Context, dto domain.CreateUserDTO) (*domain.User, error) {
	user := &domain.User{Name: dto.Name, Role: dto.Role}
	return s.userRepo.Create(ctx, user)
}

func (s *DirectoryService) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.FindAll(ctx)
}

// --- Vehicle ---

func (s *DirectoryService) RegisterVehicle(ctx context.Context, dto domain.RegisterVehicleDTO) (*domain.Vehicle, error) {
	typeCode, err := domain.NormalizeVehicleType(dto.Type)
	if err != nil {
		return nil, err
	}

	// Kiểm tra người dùng tồn tại trước khi gán xe
	if _, err := s.userRepo.FindByID(ctx, dto.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: người dùng %d", repository.ErrNotFound, dto.UserID)
		}
		return nil, fmt.Errorf("lỗi kiểm tra người dùng: %w", err)
	}

	vehicle := &domain.Vehicle{
		UserID: dto.UserID,
		RegNo:  dto.RegNo,
		Type:   typeCode,
	}
	return s.vehicleRepo.Create(ctx, vehicle)
}

func (s *DirectoryService) GetAllVehicles(ctx context.Context) ([]domain.VehicleView, error) {
	vehicles, err := s.vehicleRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]domain.VehicleView, 0, len(vehicles))
	for _, v := range vehicles {
		views = append(views, v.View())
	}
	return views, nil
}

// --- ParkingLot ---

func (s *DirectoryService) CreateParkingLot(ctx context.Context, dto domain.ParkingLotDTO) (*domain.ParkingLot, error) {
	lot := &domain.ParkingLot{Name: dto.Name, Owner: dto.Owner}
	return s.lotRepo.Create(ctx, lot)
}

func (s *DirectoryService) GetParkingLotByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	return s.lotRepo.FindByID(ctx, id)
}

func (s *DirectoryService) GetAllParkingLots(ctx context.Context) ([]domain.ParkingLot, error) {
	return s.lotRepo.FindAll(ctx)
}

func (s *DirectoryService) UpdateParkingLot(ctx context.Context, id int, dto domain.ParkingLotDTO) (*domain.ParkingLot, error) {
	lot, err := s.lotRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	lot.Name = dto.Name
	lot.Owner = dto.Owner
	return s.lotRepo.Update(ctx, lot)
}

func (s *DirectoryService) DeleteParkingLot(ctx context.Context, id int) error {
	slots, err := s.slotRepo.FindByLotID(ctx, id)
	if err != nil {
		return fmt.Errorf("lỗi khi kiểm tra các chỗ đỗ của bãi %d: %w", id, err)
	}
	if len(slots) > 0 {
		return fmt.Errorf("không thể xóa bãi đỗ %d vì vẫn còn các chỗ đỗ liên kết", id)
	}
	return s.lotRepo.Delete(ctx, id)
}

// --- ParkingSlot ---

func (s *DirectoryService) CreateParkingSlot(ctx context.Context, dto domain.ParkingSlotDTO) (*domain.ParkingSlot, error) {
	if !domain.ValidSlotType(dto.SlotType) {
		return nil, fmt.Errorf("loại chỗ đỗ không hợp lệ: '%s'", dto.SlotType)
	}
	if dto.FixedFor != "" && dto.FixedFor != domain.RoleStaff && dto.FixedFor != domain.RoleStudent {
		return nil, fmt.Errorf("fixed_for không hợp lệ: '%s' (chỉ chấp nhận staff hoặc student)", dto.FixedFor)
	}

	if _, err := s.lotRepo.FindByID(ctx, dto.LotID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: bãi đỗ %d", repository.ErrNotFound, dto.LotID)
		}
		return nil, fmt.Errorf("lỗi kiểm tra bãi đỗ: %w", err)
	}

	slot := &domain.ParkingSlot{
		LotID:    dto.LotID,
		SlotName: dto.SlotName,
		SlotType: domain.SlotType(dto.SlotType),
		Status:   domain.SlotAvailable, // Mặc định
		FixedFor: null.NewString(dto.FixedFor, dto.FixedFor != ""),
	}
	return s.slotRepo.Create(ctx, slot)
}

func (s *DirectoryService) GetParkingSlotByID(ctx context.Context, id int) (*domain.ParkingSlot, error) {
	return s.slotRepo.FindByID(ctx, id)
}

func (s *DirectoryService) GetSlotsByLotID(ctx context.Context, lotID int) ([]domain.ParkingSlot, error) {
	return s.slotRepo.FindByLotID(ctx, lotID)
}

func (s *DirectoryService) DeleteParkingSlot(ctx context.Context, id int) error {
	return s.slotRepo.Delete(ctx, id)
}

// ListSlotViews dùng SlotViewReader đã được chọn lúc khởi động (rich
// hoặc simple tùy schema).
func (s *DirectoryService) ListSlotViews(ctx context.Context) ([]domain.SlotView, error) {
	return s.slotReader.ListSlotViews(ctx)
}

// --- Payment ---

// RecordPayment ghi nhận thanh toán phí cố định cho một đơn đặt chỗ.
// Không kiểm tra trạng thái đơn: hành vi gốc cho phép thanh toán bất kể
// đơn đang active hay đã kết thúc.
func (s *DirectoryService) RecordPayment(ctx context.Context, dto domain.RecordPaymentDTO) (*domain.Payment, error) {
	if dto.Amount <= 0 {
		return nil, fmt.Errorf("số tiền không hợp lệ: %.2f", dto.Amount)
	}
	payment := &domain.Payment{
		ReservationID: dto.ReservationID,
		Amount:        dto.Amount,
		Mode:          dto.Mode,
		Status:        "done",
	}
	created, err := s.paymentRepo.Create(ctx, payment)
	if err != nil {
		return nil, err
	}
	log.Printf("Đã ghi nhận thanh toán ID %d cho đơn đặt chỗ %d: %.2f (%s)",
		created.PaymentID, created.ReservationID, created.Amount, created.Mode)
	return created, nil
}

func (s *DirectoryService) GetAllPayments(ctx context.Context) ([]domain.Payment, error) {
	return s.paymentRepo.FindAll(ctx)
}
