package domain

import "gopkg.in/guregu/null.v4"

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotReserved  SlotStatus = "reserved"
)

type SlotType string

const (
	SlotTypeCar      SlotType = "car"
	SlotTypeBike     SlotType = "bike"
	SlotTypeElectric SlotType = "electric"
	SlotTypeHandicap SlotType = "handicap"
)

type ParkingSlot struct {
	SlotID   int         `json:"slot_id"`
	LotID    int         `json:"lot_id"`
	SlotName string      `json:"slot_name"`
	SlotType SlotType    `json:"slot_type"`
	Status   SlotStatus  `json:"status"`
	FixedFor null.String `json:"fixed_for"` // "staff", "student" hoặc null
}

// SlotView là dữ liệu trả về cho GET /slots. Khi schema không có bảng
// parking_lots hoặc cột fixed_for thì lot_name/lot_owner/fixed_for là null.
type SlotView struct {
	SlotID   int         `json:"slot_id"`
	LotID    int         `json:"lot_id"`
	LotName  null.String `json:"lot_name"`
	LotOwner null.String `json:"lot_owner"`
	SlotName string      `json:"slot_name"`
	SlotType SlotType    `json:"slot_type"`
	Status   SlotStatus  `json:"status"`
	FixedFor null.String `json:"fixed_for"`
}

type ParkingSlotDTO struct {
	LotID    int    `json:"lot_id" binding:"required"`
	SlotName string `json:"slot_name" binding:"required"`
	SlotType string `json:"slot_type" binding:"required"`
	FixedFor string `json:"fixed_for"`
}

func ValidSlotType(t string) bool {
	switch SlotType(t) {
	case SlotTypeCar, SlotTypeBike, SlotTypeElectric, SlotTypeHandicap:
		return true
	}
	return false
}
