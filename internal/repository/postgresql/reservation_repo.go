package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"
)

type pgReservationRepository struct {
	db *sql.DB
}

func NewPgReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &pgReservationRepository{db: db}
}

const reservationColumns = `res_id, user_id, vehicle_id, slot_id, start_time, end_time, status`

func (r *pgReservationRepository) FindByID(ctx context.Context, id int) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE res_id = $1`
	return scanReservation(r.db.QueryRowContext(ctx, query, id))
}

// FindByIDForUpdate khóa dòng reservation trong transaction, giống như
// dòng chỗ đỗ trong Reserve, để Complete/Cancel không chạy chồng lên nhau.
func (r *pgReservationRepository) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id int) (*domain.Reservation, error) {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE res_id = $1 FOR UPDATE`
	return scanReservation(sqlTx.QueryRowContext(ctx, query, id))
}

func scanReservation(row *sql.Row) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	err := row.Scan(&res.ResID, &res.UserID, &res.VehicleID, &res.SlotID,
		&res.StartTime, &res.EndTime, &res.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ReservationRepository (scanning row): %w", err)
	}
	res.StartTime = res.StartTime.In(time.UTC)
	return res, nil
}

func (r *pgReservationRepository) CreateTx(ctx context.Context, tx repository.Tx, res *domain.Reservation) (*domain.Reservation, error) {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}
	query := `INSERT INTO reservations (user_id, vehicle_id, slot_id, start_time, status)
	           VALUES ($1, $2, $3, $4, $5)
	           RETURNING res_id`
	err = sqlTx.QueryRowContext(ctx, query,
		res.UserID, res.VehicleID, res.SlotID, res.StartTime, res.Status,
	).Scan(&res.ResID)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.CreateTx: %w", err)
	}
	return res, nil
}

func (r *pgReservationRepository) CompleteTx(ctx context.Context, tx repository.Tx, id int, endTime time.Time) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	result, err := sqlTx.ExecContext(ctx,
		`UPDATE reservations SET status = $1, end_time = $2 WHERE res_id = $3`,
		domain.ReservationCompleted, endTime, id)
	if err != nil {
		return fmt.Errorf("ReservationRepository.CompleteTx: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ReservationRepository.CompleteTx (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgReservationRepository) DeleteTx(ctx context.Context, tx repository.Tx, id int) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	result, err := sqlTx.ExecContext(ctx, `DELETE FROM reservations WHERE res_id = $1`, id)
	if err != nil {
		return fmt.Errorf("ReservationRepository.DeleteTx: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ReservationRepository.DeleteTx (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgReservationRepository) FindAllViews(ctx context.Context) ([]domain.ReservationView, error) {
	query := `SELECT r.res_id, r.user_id, r.vehicle_id, r.slot_id, r.start_time, r.end_time, r.status,
	                 u.name, v.reg_no, s.slot_name
	           FROM reservations r
	           JOIN users u ON r.user_id = u.user_id
	           JOIN vehicles v ON r.vehicle_id = v.vehicle_id
	           JOIN parking_slots s ON r.slot_id = s.slot_id
	           ORDER BY r.start_time DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.FindAllViews: %w", err)
	}
	defer rows.Close()

	var views []domain.ReservationView
	for rows.Next() {
		var v domain.ReservationView
		if err := rows.Scan(&v.ResID, &v.UserID, &v.VehicleID, &v.SlotID,
			&v.StartTime, &v.EndTime, &v.Status, &v.Name, &v.RegNo, &v.SlotName); err != nil {
			return nil, fmt.Errorf("ReservationRepository.FindAllViews (scanning row): %w", err)
		}
		v.StartTime = v.StartTime.In(time.UTC)
		views = append(views, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.FindAllViews (rows error): %w", err)
	}
	return views, nil
}
