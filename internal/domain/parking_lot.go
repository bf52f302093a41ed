package domain

import "time"

type ParkingLot struct {
	LotID     int       `json:"lot_id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner,omitempty"` // "staff", "student" hoặc rỗng
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type ParkingLotDTO struct {
	Name  string `json:"name" binding:"required"`
	Owner string `json:"owner"`
}
