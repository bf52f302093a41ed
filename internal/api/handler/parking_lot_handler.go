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

type ParkingLotHandler struct {
	directoryService *service.DirectoryService
}

func NewParkingLotHandler(ds *service.DirectoryService) *ParkingLotHandler {
	return &ParkingLotHandler{directoryService: ds}
}

// POST /api/v1/parking-lots
func (h *ParkingLotHandler) CreateParkingLot(c *gin.Context) {
	var dto domain.ParkingLotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.directoryService.CreateParkingLot(c.Request.Context(), dto)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo bãi đỗ xe"})
		return
	}
	c.JSON(http.StatusCreated, lot)
}

// GET /api/v1/parking-lots
func (h *ParkingLotHandler) GetAllParkingLots(c *gin.Context) {
	lots, err := h.directoryService.GetAllParkingLots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách bãi đỗ"})
		return
	}
	if lots == nil {
		lots = []domain.ParkingLot{}
	}
	c.JSON(http.StatusOK, lots)
}

// GET /api/v1/parking-lots/:id
func (h *ParkingLotHandler) GetParkingLotByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Lot ID không hợp lệ"})
		return
	}

	lot, err := h.directoryService.GetParkingLotByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy bãi đỗ xe"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thông tin bãi đỗ xe"})
		return
	}
	c.JSON(http.StatusOK, lot)
}

// GET /api/v1/parking-lots/:id/slots
func (h *ParkingLotHandler) GetSlotsByLotID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Lot ID không hợp lệ"})
		return
	}

	slots, err := h.directoryService.GetSlotsByLotID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách chỗ đỗ"})
		return
	}
	if slots == nil {
		slots = []domain.ParkingSlot{}
	}
	c.JSON(http.StatusOK, slots)
}

// PUT /api/v1/parking-lots/:id
func (h *ParkingLotHandler) UpdateParkingLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Lot ID không hợp lệ"})
		return
	}

	var dto domain.ParkingLotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.directoryService.UpdateParkingLot(c.Request.Context(), id, dto)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy bãi đỗ xe để cập nhật"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật bãi đỗ xe"})
		return
	}
	c.JSON(http.StatusOK, lot)
}

// DELETE /api/v1/parking-lots/:id
func (h *ParkingLotHandler) DeleteParkingLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Lot ID không hợp lệ"})
		return
	}

	if err := h.directoryService.DeleteParkingLot(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy bãi đỗ xe để xóa"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
