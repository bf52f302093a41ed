package handler

import (
	"errors"
	"net/http"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"
	"campus_parking/internal/service"

	"github.com/gin-gonic/gin"
)

type VehicleHandler struct {
	directoryService *service.DirectoryService
}

func NewVehicleHandler(ds *service.DirectoryService) *VehicleHandler {
	return &VehicleHandler{directoryService: ds}
}

// GET /vehicles
func (h *VehicleHandler) GetAllVehicles(c *gin.Context) {
	vehicles, err := h.directoryService.GetAllVehicles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách xe"})
		return
	}
	if vehicles == nil {
		vehicles = []domain.VehicleView{}
	}
	c.JSON(http.StatusOK, vehicles)
}

// POST /vehicles
func (h *VehicleHandler) RegisterVehicle(c *gin.Context) {
	var dto domain.RegisterVehicleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, reg_no và type là bắt buộc"})
		return
	}

	vehicle, err := h.directoryService.RegisterVehicle(c.Request.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy người dùng để gán xe"})
		case errors.Is(err, repository.ErrDuplicateEntry):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrInvalidVehicleType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Loại xe không hợp lệ. Chỉ chấp nhận car, bike, ev/electric."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể đăng ký xe"})
		}
		return
	}
	c.JSON(http.StatusOK, vehicle.View())
}
