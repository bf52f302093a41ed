package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"

	"github.com/lib/pq"
)

type pgVehicleRepository struct {
	db *sql.DB
}

func NewPgVehicleRepository(db *sql.DB) repository.VehicleRepository {
	return &pgVehicleRepository{db: db}
}

func (r *pgVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	query := `INSERT INTO vehicles (user_id, reg_no, type, created_at)
	           VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
	           RETURNING vehicle_id, created_at`
	err := r.db.QueryRowContext(ctx, query, vehicle.UserID, vehicle.RegNo, vehicle.Type).
		Scan(&vehicle.VehicleID, &vehicle.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "vehicles_reg_no_key" {
				return nil, fmt.Errorf("%w: biển số '%s' đã được đăng ký", repository.ErrDuplicateEntry, vehicle.RegNo)
			}
			if pqErr.Code.Name() == "foreign_key_violation" {
				return nil, fmt.Errorf("%w: người dùng %d không tồn tại", repository.ErrNotFound, vehicle.UserID)
			}
		}
		return nil, fmt.Errorf("VehicleRepository.Create: %w", err)
	}
	vehicle.CreatedAt = vehicle.CreatedAt.In(time.UTC)
	return vehicle, nil
}

func (r *pgVehicleRepository) FindByID(ctx context.Context, id int) (*domain.Vehicle, error) {
	return scanVehicle(r.db.QueryRowContext(ctx,
		`SELECT vehicle_id, user_id, reg_no, type, created_at FROM vehicles WHERE vehicle_id = $1`, id))
}

func (r *pgVehicleRepository) FindByIDTx(ctx context.Context, tx repository.Tx, id int) (*domain.Vehicle, error) {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}
	return scanVehicle(sqlTx.QueryRowContext(ctx,
		`SELECT vehicle_id, user_id, reg_no, type, created_at FROM vehicles WHERE vehicle_id = $1`, id))
}

func scanVehicle(row *sql.Row) (*domain.Vehicle, error) {
	vehicle := &domain.Vehicle{}
	err := row.Scan(&vehicle.VehicleID, &vehicle.UserID, &vehicle.RegNo, &vehicle.Type, &vehicle.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("VehicleRepository (scanning row): %w", err)
	}
	vehicle.CreatedAt = vehicle.CreatedAt.In(time.UTC)
	return vehicle, nil
}

func (r *pgVehicleRepository) FindAll(ctx context.Context) ([]domain.Vehicle, error) {
	query := `SELECT vehicle_id, user_id, reg_no, type, created_at FROM vehicles ORDER BY vehicle_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("VehicleRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		var vehicle domain.Vehicle
		if err := rows.Scan(&vehicle.VehicleID, &vehicle.UserID, &vehicle.RegNo, &vehicle.Type, &vehicle.CreatedAt); err != nil {
			return nil, fmt.Errorf("VehicleRepository.FindAll (scanning row): %w", err)
		}
		vehicle.CreatedAt = vehicle.CreatedAt.In(time.UTC)
		vehicles = append(vehicles, vehicle)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("VehicleRepository.FindAll (rows error): %w", err)
	}
	return vehicles, nil
}
