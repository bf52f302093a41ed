package handler

import (
	"errors"
	"net/http"
	"strconv"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"
	"campus_parking/internal/service"

	"github.com/gin-gonic/gin"
)

type SlotHandler struct {
	directoryService *service.DirectoryService
}

func NewSlotHandler(ds *service.DirectoryService) *SlotHandler {
	return &SlotHandler{directoryService: ds}
}

// GET /slots
func (h *SlotHandler) ListSlots(c *gin.Context) {
	views, err := h.directoryService.ListSlotViews(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách chỗ đỗ"})
		return
	}
	if views == nil {
		views = []domain.SlotView{}
	}
	c.JSON(http.StatusOK, views)
}

// POST /api/v1/parking-slots
func (h *SlotHandler) CreateParkingSlot(c *gin.Context) {
	var dto domain.ParkingSlotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slot, err := h.directoryService.CreateParkingSlot(c.Request.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy bãi đỗ"})
		case errors.Is(err, repository.ErrDuplicateEntry):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, slot)
}

// GET /api/v1/parking-slots/:slot_id
func (h *SlotHandler) GetParkingSlotByID(c *gin.Context) {
	slotID, err := strconv.Atoi(c.Param("slot_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Slot ID không hợp lệ"})
		return
	}

	slot, err := h.directoryService.GetParkingSlotByID(c.Request.Context(), slotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy chỗ đỗ xe"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thông tin chỗ đỗ xe"})
		return
	}
	c.JSON(http.StatusOK, slot)
}

// DELETE /api/v1/parking-slots/:slot_id
func (h *SlotHandler) DeleteParkingSlot(c *gin.Context) {
	slotID, err := strconv.Atoi(c.Param("slot_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Slot ID không hợp lệ"})
		return
	}

	if err := h.directoryService.DeleteParkingSlot(c.Request.Context(), slotID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy chỗ đỗ xe để xóa"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa chỗ đỗ xe"})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
