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

type pgAccountRepository struct {
	db *sql.DB
}

func NewPgAccountRepository(db *sql.DB) repository.AccountRepository {
	return &pgAccountRepository{db: db}
}

func (r *pgAccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	query := `INSERT INTO accounts (username, password_hash, role, created_at, updated_at)
	           VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, account.Username, account.Password, account.Role).
		Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "accounts_username_key" {
				return nil, fmt.Errorf("%w: tên đăng nhập '%s' đã tồn tại", repository.ErrDuplicateEntry, account.Username)
			}
		}
		return nil, fmt.Errorf("AccountRepository.Create: %w", err)
	}
	account.CreatedAt = account.CreatedAt.In(time.UTC)
	account.UpdatedAt = account.UpdatedAt.In(time.UTC)
	return account, nil
}

func (r *pgAccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at, updated_at FROM accounts WHERE username = $1`,
		username))
}

func (r *pgAccountRepository) FindByID(ctx context.Context, id int) (*domain.Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at, updated_at FROM accounts WHERE id = $1`,
		id))
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	account := &domain.Account{}
	err := row.Scan(&account.ID, &account.Username, &account.Password, &account.Role,
		&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("AccountRepository (scanning row): %w", err)
	}
	account.CreatedAt = account.CreatedAt.In(time.UTC)
	account.UpdatedAt = account.UpdatedAt.In(time.UTC)
	return account, nil
}
