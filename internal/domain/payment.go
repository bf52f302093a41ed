package domain

import "time"

type Payment struct {
	PaymentID     int       `json:"payment_id"`
	ReservationID int       `json:"reservation_id"`
	Amount        float64   `json:"amount"`
	Mode          string    `json:"mode"` // "cash", "card", "upi", ...
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

type RecordPaymentDTO struct {
	ReservationID int     `json:"reservation_id" binding:"required"`
	Amount        float64 `json:"amount" binding:"required"`
	Mode          string  `json:"mode" binding:"required"`
}
