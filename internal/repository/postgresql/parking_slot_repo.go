package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"

	"github.com/lib/pq"
)

type pgParkingSlotRepository struct {
	db *sql.DB
}

func NewPgParkingSlotRepository(db *sql.DB) repository.ParkingSlotRepository {
	return &pgParkingSlotRepository{db: db}
}

const slotColumns = `slot_id, lot_id, slot_name, slot_type, status, fixed_for`

func (r *pgParkingSlotRepository) Create(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error) {
	query := `INSERT INTO parking_slots (lot_id, slot_name, slot_type, status, fixed_for)
	           VALUES ($1, $2, $3, $4, $5)
	           RETURNING slot_id`
	err := r.db.QueryRowContext(ctx, query,
		slot.LotID, slot.SlotName, slot.SlotType, slot.Status, slot.FixedFor,
	).Scan(&slot.SlotID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "parking_slots_lot_id_slot_name_key" {
				return nil, fmt.Errorf("%w: chỗ đỗ '%s' đã tồn tại trong bãi %d", repository.ErrDuplicateEntry, slot.SlotName, slot.LotID)
			}
			if pqErr.Code.Name() == "foreign_key_violation" {
				return nil, fmt.Errorf("%w: bãi đỗ %d không tồn tại", repository.ErrNotFound, slot.LotID)
			}
		}
		return nil, fmt.Errorf("ParkingSlotRepository.Create: %w", err)
	}
	return slot, nil
}

func (r *pgParkingSlotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM parking_slots WHERE slot_id = $1`
	return scanSlot(r.db.QueryRowContext(ctx, query, id))
}

// FindByIDForUpdate là điểm khóa của giao dịch đặt chỗ: dòng chỗ đỗ bị
// khóa độc quyền cho tới khi transaction kết thúc, nên hai request cùng
// đặt một chỗ sẽ được tuần tự hóa tại đây.
func (r *pgParkingSlotRepository) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id int) (*domain.ParkingSlot, error) {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + slotColumns + ` FROM parking_slots WHERE slot_id = $1 FOR UPDATE`
	return scanSlot(sqlTx.QueryRowContext(ctx, query, id))
}

func scanSlot(row *sql.Row) (*domain.ParkingSlot, error) {
	slot := &domain.ParkingSlot{}
	err := row.Scan(&slot.SlotID, &slot.LotID, &slot.SlotName, &slot.SlotType, &slot.Status, &slot.FixedFor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSlotRepository (scanning row): %w", err)
	}
	return slot, nil
}

func (r *pgParkingSlotRepository) FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM parking_slots WHERE lot_id = $1 ORDER BY slot_name`
	rows, err := r.db.QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("ParkingSlotRepository.FindByLotID: %w", err)
	}
	defer rows.Close()

	var slots []domain.ParkingSlot
	for rows.Next() {
		var slot domain.ParkingSlot
		if err := rows.Scan(&slot.SlotID, &slot.LotID, &slot.SlotName, &slot.SlotType, &slot.Status, &slot.FixedFor); err != nil {
			return nil, fmt.Errorf("ParkingSlotRepository.FindByLotID (scanning row): %w", err)
		}
		slots = append(slots, slot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSlotRepository.FindByLotID (rows error): %w", err)
	}
	return slots, nil
}

func (r *pgParkingSlotRepository) Update(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error) {
	query := `UPDATE parking_slots
	           SET lot_id = $1, slot_name = $2, slot_type = $3, status = $4, fixed_for = $5
	           WHERE slot_id = $6`
	result, err := r.db.ExecContext(ctx, query,
		slot.LotID, slot.SlotName, slot.SlotType, slot.Status, slot.FixedFor, slot.SlotID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "parking_slots_lot_id_slot_name_key" {
				return nil, fmt.Errorf("%w: chỗ đỗ '%s' đã tồn tại trong bãi %d", repository.ErrDuplicateEntry, slot.SlotName, slot.LotID)
			}
		}
		return nil, fmt.Errorf("ParkingSlotRepository.Update: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("ParkingSlotRepository.Update (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return nil, repository.ErrNotFound
	}
	return slot, nil
}

func (r *pgParkingSlotRepository) UpdateStatusTx(ctx context.Context, tx repository.Tx, id int, status domain.SlotStatus) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	result, err := sqlTx.ExecContext(ctx,
		`UPDATE parking_slots SET status = $1 WHERE slot_id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("ParkingSlotRepository.UpdateStatusTx: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSlotRepository.UpdateStatusTx (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgParkingSlotRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM parking_slots WHERE slot_id = $1`, id)
	if err != nil {
		return fmt.Errorf("ParkingSlotRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSlotRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
