package domain

import "time"

// Vai trò của người dùng trong trường. Danh sách mở, các giá trị này
// là những vai trò hệ thống hiểu được cho việc kiểm tra fixed_for.
const (
	RoleStudent  = "student"
	RoleStaff    = "staff"
	RoleVisitor  = "visitor"
	RoleSecurity = "security"
)

type User struct {
	UserID    int       `json:"user_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type CreateUserDTO struct {
	Name string `json:"name" binding:"required"`
	Role string `json:"role" binding:"required"`
}
