package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"
)

type pgPaymentRepository struct {
	db *sql.DB
}

func NewPgPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &pgPaymentRepository{db: db}
}

func (r *pgPaymentRepository) Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	query := `INSERT INTO payments (reservation_id, amount, mode, status, created_at)
	           VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
	           RETURNING payment_id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		payment.ReservationID, payment.Amount, payment.Mode, payment.Status,
	).Scan(&payment.PaymentID, &payment.CreatedAt)
	if err != nil {
		// Không kiểm tra reservation_id có tồn tại hay không: thanh toán
		// là một insert vô điều kiện, lỗi khóa ngoại (nếu có) là lỗi hệ thống.
		return nil, fmt.Errorf("PaymentRepository.Create: %w", err)
	}
	payment.CreatedAt = payment.CreatedAt.In(time.UTC)
	return payment, nil
}

func (r *pgPaymentRepository) FindAll(ctx context.Context) ([]domain.Payment, error) {
	query := `SELECT payment_id, reservation_id, amount, mode, status, created_at
	           FROM payments ORDER BY payment_id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("PaymentRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.PaymentID, &p.ReservationID, &p.Amount, &p.Mode, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("PaymentRepository.FindAll (scanning row): %w", err)
		}
		p.CreatedAt = p.CreatedAt.In(time.UTC)
		payments = append(payments, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("PaymentRepository.FindAll (rows error): %w", err)
	}
	return payments, nil
}
