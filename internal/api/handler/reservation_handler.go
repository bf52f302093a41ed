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

type ReservationHandler struct {
	reservationService *service.ReservationService
}

func NewReservationHandler(rs *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: rs}
}

// GET /reservations
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	views, err := h.reservationService.ListReservations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách đơn đặt chỗ"})
		return
	}
	if views == nil {
		views = []domain.ReservationView{}
	}
	c.JSON(http.StatusOK, views)
}

// POST /reserve
func (h *ReservationHandler) Reserve(c *gin.Context) {
	var dto domain.ReserveDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, vehicle_id và slot_id là bắt buộc"})
		return
	}

	res, err := h.reservationService.Reserve(c.Request.Context(), dto)
	if err != nil {
		h.writeReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"res_id": res.ResID, "message": "Đặt chỗ thành công"})
}

// POST /complete
func (h *ReservationHandler) Complete(c *gin.Context) {
	var dto domain.CompleteReservationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "res_id là bắt buộc"})
		return
	}

	if _, err := h.reservationService.Complete(c.Request.Context(), dto.ResID); err != nil {
		h.writeReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đơn đặt chỗ đã hoàn thành, chỗ đỗ đã được trả về"})
}

// DELETE /reservations/:res_id
func (h *ReservationHandler) Cancel(c *gin.Context) {
	resID, err := strconv.Atoi(c.Param("res_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "res_id không hợp lệ"})
		return
	}

	cancelledID, err := h.reservationService.Cancel(c.Request.Context(), resID)
	if err != nil {
		h.writeReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"res_id": cancelledID, "message": "Đơn đặt chỗ đã bị xóa, chỗ đỗ đã được trả về"})
}

// writeReservationError ánh xạ lỗi domain sang status code:
// NotFound -> 404, Forbidden -> 403, Conflict -> 409, còn lại -> 500.
// Chi tiết lỗi storage không bao giờ được trả về cho client.
func (h *ReservationHandler) writeReservationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSlotRestricted), errors.Is(err, service.ErrVehicleTypeMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSlotNotAvailable), errors.Is(err, service.ErrReservationNotActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi xử lý đơn đặt chỗ"})
	}
}
