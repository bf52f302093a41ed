package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidVehicleType = errors.New("loại xe không hợp lệ")

// Loại xe được lưu trong DB dưới dạng mã 1 ký tự. Dữ liệu đã lưu phụ
// thuộc vào ánh xạ này nên không được thay đổi.
const (
	VehicleTypeCar      = "c"
	VehicleTypeBike     = "b"
	VehicleTypeElectric = "e"
)

type Vehicle struct {
	VehicleID int       `json:"vehicle_id"`
	UserID    int       `json:"user_id"`
	RegNo     string    `json:"reg_no"`
	Type      string    `json:"-"` // mã trong DB: c, b, e
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// VehicleView trả loại xe về dạng đầy đủ (car/bike/electric) cho client.
type VehicleView struct {
	VehicleID int    `json:"vehicle_id"`
	UserID    int    `json:"user_id"`
	RegNo     string `json:"reg_no"`
	Type      string `json:"type"`
}

type RegisterVehicleDTO struct {
	UserID int    `json:"user_id" binding:"required"`
	RegNo  string `json:"reg_no" binding:"required"`
	Type   string `json:"type" binding:"required"`
}

// NormalizeVehicleType chuyển input của client thành mã lưu trữ.
// Chấp nhận car, bike, ev và electric (không phân biệt hoa thường).
func NormalizeVehicleType(input string) (string, error) {
	switch strings.ToLower(input) {
	case "car":
		return VehicleTypeCar, nil
	case "bike":
		return VehicleTypeBike, nil
	case "ev", "electric":
		return VehicleTypeElectric, nil
	}
	return "", fmt.Errorf("%w: '%s' (chỉ chấp nhận car, bike, ev/electric)", ErrInvalidVehicleType, input)
}

// VehicleTypeName là chiều ngược lại của NormalizeVehicleType.
func VehicleTypeName(code string) string {
	switch code {
	case VehicleTypeCar:
		return "car"
	case VehicleTypeBike:
		return "bike"
	case VehicleTypeElectric:
		return "electric"
	}
	return code
}

// RequiredSlotType ánh xạ mã loại xe sang loại chỗ đỗ tương ứng.
func RequiredSlotType(code string) SlotType {
	switch code {
	case VehicleTypeCar:
		return SlotTypeCar
	case VehicleTypeBike:
		return SlotTypeBike
	case VehicleTypeElectric:
		return SlotTypeElectric
	}
	return SlotType("")
}

func (v Vehicle) View() VehicleView {
	return VehicleView{
		VehicleID: v.VehicleID,
		UserID:    v.UserID,
		RegNo:     v.RegNo,
		Type:      VehicleTypeName(v.Type),
	}
}
