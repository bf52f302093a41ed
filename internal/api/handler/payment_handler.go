package handler

import (
	"net/http"

	"campus_parking/internal/domain"
	"campus_parking/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	directoryService *service.DirectoryService
}

func NewPaymentHandler(ds *service.DirectoryService) *PaymentHandler {
	return &PaymentHandler{directoryService: ds}
}

// POST /payments
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var dto domain.RecordPaymentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reservation_id, amount và mode là bắt buộc"})
		return
	}
	if dto.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Số tiền không hợp lệ"})
		return
	}

	payment, err := h.directoryService.RecordPayment(c.Request.Context(), dto)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể ghi nhận thanh toán"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_id": payment.PaymentID, "message": "Đã ghi nhận thanh toán"})
}

// GET /payments
func (h *PaymentHandler) GetAllPayments(c *gin.Context) {
	payments, err := h.directoryService.GetAllPayments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách thanh toán"})
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	c.JSON(http.StatusOK, payments)
}
