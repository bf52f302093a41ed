package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCompleted ReservationStatus = "completed"
)

type Reservation struct {
	ResID     int               `json:"res_id"`
	UserID    int               `json:"user_id"`
	VehicleID int               `json:"vehicle_id"`
	SlotID    int               `json:"slot_id"`
	StartTime time.Time         `json:"start_time"`
	EndTime   null.Time         `json:"end_time"`
	Status    ReservationStatus `json:"status"`
}

// ReservationView là Reservation kèm tên người dùng, biển số và tên chỗ
// đỗ để hiển thị danh sách.
type ReservationView struct {
	Reservation
	Name     string `json:"name"`
	RegNo    string `json:"reg_no"`
	SlotName string `json:"slot_name"`
}

type ReserveDTO struct {
	UserID    int `json:"user_id" binding:"required"`
	VehicleID int `json:"vehicle_id" binding:"required"`
	SlotID    int `json:"slot_id" binding:"required"`
}

type CompleteReservationDTO struct {
	ResID int `json:"res_id" binding:"required"`
}

// SlotStatusNotification được broadcast qua WebSocket mỗi khi một giao
// dịch đặt chỗ làm thay đổi trạng thái chỗ đỗ.
type SlotStatusNotification struct {
	Type      string     `json:"type"` // "slot_update"
	SlotID    int        `json:"slot_id"`
	Status    SlotStatus `json:"status"`
	ResID     int        `json:"res_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
