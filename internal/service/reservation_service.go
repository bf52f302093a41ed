package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"campus_parking/internal/domain"
	"campus_parking/internal/metrics"
	"campus_parking/internal/repository"

	"gopkg.in/guregu/null.v4"
)

var ErrSlotNotAvailable = errors.New("chỗ đỗ không còn trống")
var ErrSlotRestricted = errors.New("chỗ đỗ chỉ dành cho vai trò khác")
var ErrVehicleTypeMismatch = errors.New("loại xe không phù hợp với loại chỗ đỗ")
var ErrReservationNotActive = errors.New("đơn đặt chỗ không ở trạng thái active")

// SlotNotifier broadcast thay đổi trạng thái chỗ đỗ cho client WebSocket.
// Interface khai báo ở đây để tránh circular dependency với package handler.
type SlotNotifier interface {
	BroadcastSlotStatus(notification domain.SlotStatusNotification)
}

// ReservationService là lõi của hệ thống: mọi chuyển trạng thái của một
// chỗ đỗ (available <-> reserved) chỉ đi qua Reserve/Complete/Cancel, và
// mỗi thao tác chạy trong đúng một transaction có khóa dòng chỗ đỗ.
// Bất biến: slot.status == reserved <=> tồn tại reservation active trỏ tới slot đó.
type ReservationService struct {
	txBeginner  repository.TxBeginner
	userRepo    repository.UserRepository
	vehicleRepo repository.VehicleRepository
	slotRepo    repository.ParkingSlotRepository
	resRepo     repository.ReservationRepository
	notifier    SlotNotifier
}

func NewReservationService(
	txBeginner repository.TxBeginner,
	userRepo repository.UserRepository,
	vehicleRepo repository.VehicleRepository,
	slotRepo repository.ParkingSlotRepository,
	resRepo repository.ReservationRepository,
	notifier SlotNotifier,
) *ReservationService {
	return &ReservationService{
		txBeginner:  txBeginner,
		userRepo:    userRepo,
		vehicleRepo: vehicleRepo,
		slotRepo:    slotRepo,
		resRepo:     resRepo,
		notifier:    notifier,
	}
}

// Reserve đặt một chỗ đỗ cho user + vehicle. Thứ tự kiểm tra (trong một
// transaction, dòng chỗ đỗ bị khóa từ lần đọc đầu tiên tới khi commit):
//  1. chỗ đỗ tồn tại           -> ErrNotFound
//  2. người dùng tồn tại       -> ErrNotFound
//  3. xe tồn tại               -> ErrNotFound
//  4. fixed_for khớp vai trò   -> ErrSlotRestricted
//  5. chỗ đỗ còn trống         -> ErrSlotNotAvailable
//  6. loại xe khớp loại chỗ đỗ (xe car được phép vào chỗ handicap) -> ErrVehicleTypeMismatch
//
// Khóa dòng ở bước 1 là thứ bảo đảm hai request cùng đặt một chỗ không
// thể cùng vượt qua bước 5.
func (s *ReservationService) Reserve(ctx context.Context, dto domain.ReserveDTO) (*domain.Reservation, error) {
	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("Reserve: %w", err)
	}
	// Rollback sau commit là no-op, nên defer luôn an toàn.
	defer tx.Rollback()

	slot, err := s.slotRepo.FindByIDForUpdate(ctx, tx, dto.SlotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: chỗ đỗ %d", repository.ErrNotFound, dto.SlotID)
		}
		return nil, fmt.Errorf("Reserve (tìm chỗ đỗ): %w", err)
	}

	user, err := s.userRepo.FindByIDTx(ctx, tx, dto.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: người dùng %d", repository.ErrNotFound, dto.UserID)
		}
		return nil, fmt.Errorf("Reserve (tìm người dùng): %w", err)
	}

	vehicle, err := s.vehicleRepo.FindByIDTx(ctx, tx, dto.VehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: xe %d", repository.ErrNotFound, dto.VehicleID)
		}
		return nil, fmt.Errorf("Reserve (tìm xe): %w", err)
	}

	if slot.FixedFor.Valid && slot.FixedFor.String != user.Role {
		metrics.ReservationsRejected.WithLabelValues("forbidden").Inc()
		return nil, fmt.Errorf("%w: chỗ đỗ dành riêng cho '%s', vai trò của người dùng là '%s'",
			ErrSlotRestricted, slot.FixedFor.String, user.Role)
	}

	if slot.Status != domain.SlotAvailable {
		metrics.ReservationsRejected.WithLabelValues("conflict").Inc()
		return nil, fmt.Errorf("%w: chỗ đỗ %d", ErrSlotNotAvailable, slot.SlotID)
	}

	requiredType := domain.RequiredSlotType(vehicle.Type)
	if requiredType != slot.SlotType {
		// Ngoại lệ duy nhất: xe car được đỗ vào chỗ handicap.
		if !(slot.SlotType == domain.SlotTypeHandicap && requiredType == domain.SlotTypeCar) {
			metrics.ReservationsRejected.WithLabelValues("forbidden").Inc()
			return nil, fmt.Errorf("%w: xe loại '%s' không đỗ được vào chỗ loại '%s'",
				ErrVehicleTypeMismatch, requiredType, slot.SlotType)
		}
	}

	res := &domain.Reservation{
		UserID:    dto.UserID,
		VehicleID: dto.VehicleID,
		SlotID:    dto.SlotID,
		StartTime: time.Now().UTC(),
		Status:    domain.ReservationActive,
	}
	res, err = s.resRepo.CreateTx(ctx, tx, res)
	if err != nil {
		return nil, fmt.Errorf("Reserve (tạo đơn đặt chỗ): %w", err)
	}

	if err := s.slotRepo.UpdateStatusTx(ctx, tx, slot.SlotID, domain.SlotReserved); err != nil {
		return nil, fmt.Errorf("Reserve (cập nhật trạng thái chỗ đỗ): %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Reserve (commit): %w", err)
	}

	metrics.ReservationsCreated.Inc()
	log.Printf("Đã tạo đơn đặt chỗ ID %d: user=%d vehicle=%d slot=%d", res.ResID, res.UserID, res.VehicleID, res.SlotID)
	s.notifySlot(res.SlotID, domain.SlotReserved, res.ResID)
	return res, nil
}

// Complete kết thúc một đơn đặt chỗ đang active: đặt status=completed,
// ghi end_time và trả chỗ đỗ về available trong cùng một transaction.
func (s *ReservationService) Complete(ctx context.Context, resID int) (*domain.Reservation, error) {
	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("Complete: %w", err)
	}
	defer tx.Rollback()

	res, err := s.resRepo.FindByIDForUpdate(ctx, tx, resID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: đơn đặt chỗ %d", repository.ErrNotFound, resID)
		}
		return nil, fmt.Errorf("Complete (tìm đơn đặt chỗ): %w", err)
	}

	if res.Status != domain.ReservationActive {
		return nil, fmt.Errorf("%w: đơn %d đang ở trạng thái '%s'", ErrReservationNotActive, resID, res.Status)
	}

	endTime := time.Now().UTC()
	if err := s.resRepo.CompleteTx(ctx, tx, resID, endTime); err != nil {
		return nil, fmt.Errorf("Complete (cập nhật đơn đặt chỗ): %w", err)
	}
	if err := s.slotRepo.UpdateStatusTx(ctx, tx, res.SlotID, domain.SlotAvailable); err != nil {
		return nil, fmt.Errorf("Complete (trả chỗ đỗ về trống): %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Complete (commit): %w", err)
	}

	metrics.ReservationsCompleted.Inc()
	log.Printf("Đã hoàn thành đơn đặt chỗ ID %d, chỗ đỗ %d trở về available", resID, res.SlotID)
	s.notifySlot(res.SlotID, domain.SlotAvailable, resID)

	res.Status = domain.ReservationCompleted
	res.EndTime = null.TimeFrom(endTime)
	return res, nil
}

// Cancel trả chỗ đỗ về available và XÓA HẲN đơn đặt chỗ. Chủ ý giữ đúng
// hành vi gốc: không yêu cầu đơn phải đang active — đơn completed cũng
// hủy được; việc trả một chỗ đã trống về available là idempotent nên bất
// biến slot/reservation vẫn được bảo toàn.
func (s *ReservationService) Cancel(ctx context.Context, resID int) (int, error) {
	tx, err := s.txBeginner.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("Cancel: %w", err)
	}
	defer tx.Rollback()

	res, err := s.resRepo.FindByIDForUpdate(ctx, tx, resID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("%w: đơn đặt chỗ %d", repository.ErrNotFound, resID)
		}
		return 0, fmt.Errorf("Cancel (tìm đơn đặt chỗ): %w", err)
	}

	if err := s.slotRepo.UpdateStatusTx(ctx, tx, res.SlotID, domain.SlotAvailable); err != nil {
		return 0, fmt.Errorf("Cancel (trả chỗ đỗ về trống): %w", err)
	}
	if err := s.resRepo.DeleteTx(ctx, tx, resID); err != nil {
		return 0, fmt.Errorf("Cancel (xóa đơn đặt chỗ): %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("Cancel (commit): %w", err)
	}

	metrics.ReservationsCancelled.Inc()
	log.Printf("Đã hủy đơn đặt chỗ ID %d, chỗ đỗ %d trở về available", resID, res.SlotID)
	s.notifySlot(res.SlotID, domain.SlotAvailable, resID)
	return resID, nil
}

func (s *ReservationService) ListReservations(ctx context.Context) ([]domain.ReservationView, error) {
	return s.resRepo.FindAllViews(ctx)
}

func (s *ReservationService) notifySlot(slotID int, status domain.SlotStatus, resID int) {
	if s.notifier == nil {
		return
	}
	s.notifier.BroadcastSlotStatus(domain.SlotStatusNotification{
		Type:      "slot_update",
		SlotID:    slotID,
		Status:    status,
		ResID:     resID,
		Timestamp: time.Now().UTC(),
	})
}
