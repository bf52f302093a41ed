package handler

import (
	"net/http"

	"campus_parking/internal/domain"
	"campus_parking/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	directoryService *service.DirectoryService
}

func NewUserHandler(ds *service.DirectoryService) *UserHandler {
	return &UserHandler{directoryService: ds}
}

// GET /users
func (h *UserHandler) GetAllUsers(c *gin.Context) {
	users, err := h.directoryService.GetAllUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách người dùng"})
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	c.JSON(http.StatusOK, users)
}

// POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var dto domain.CreateUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name và role là bắt buộc"})
		return
	}

	user, err := h.directoryService.CreateUser(c.Request.Context(), dto)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo người dùng"})
		return
	}
	c.JSON(http.StatusOK, user)
}
