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

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) repository.UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `INSERT INTO users (name, role, created_at)
	           VALUES ($1, $2, CURRENT_TIMESTAMP)
	           RETURNING user_id, created_at`
	err := r.db.QueryRowContext(ctx, query, user.Name, user.Role).Scan(&user.UserID, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("UserRepository.Create: %w", err)
	}
	user.CreatedAt = user.CreatedAt.In(time.UTC)
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT user_id, name, role, created_at FROM users WHERE user_id = $1`, id))
}

func (r *pgUserRepository) FindByIDTx(ctx context.Context, tx repository.Tx, id int) (*domain.User, error) {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}
	return scanUser(sqlTx.QueryRowContext(ctx,
		`SELECT user_id, name, role, created_at FROM users WHERE user_id = $1`, id))
}

func scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(&user.UserID, &user.Name, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("UserRepository (scanning row): %w", err)
	}
	user.CreatedAt = user.CreatedAt.In(time.UTC)
	return user, nil
}

func (r *pgUserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	query := `SELECT user_id, name, role, created_at FROM users ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("UserRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.UserID, &user.Name, &user.Role, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("UserRepository.FindAll (scanning row): %w", err)
		}
		user.CreatedAt = user.CreatedAt.In(time.UTC)
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("UserRepository.FindAll (rows error): %w", err)
	}
	return users, nil
}
