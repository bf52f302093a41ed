package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("tên đăng nhập hoặc mật khẩu không đúng")
var ErrAccountAlreadyExists = errors.New("tên đăng nhập đã tồn tại")
var ErrTokenInvalid = errors.New("token không hợp lệ hoặc đã hết hạn")

// AuthService xác thực tài khoản quản trị (API /api/v1). API đặt chỗ
// công khai không đi qua service này.
type AuthService struct {
	accountRepo        repository.AccountRepository
	jwtSecret          string
	jwtExpirationHours time.Duration
}

func NewAuthService(accountRepo repository.AccountRepository, jwtSecret string, jwtExpHours time.Duration) *AuthService {
	return &AuthService{
		accountRepo:        accountRepo,
		jwtSecret:          jwtSecret,
		jwtExpirationHours: jwtExpHours,
	}
}

func (s *AuthService) Register(ctx context.Context, dto domain.RegisterAccountDTO) (*domain.Account, error) {
	existing, err := s.accountRepo.FindByUsername(ctx, dto.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lỗi khi kiểm tra tài khoản: %w", err)
	}
	if existing != nil {
		return nil, ErrAccountAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("lỗi hash mật khẩu: %w", err)
	}

	role := dto.Role
	if role == "" {
		role = "operator"
	}

	account := &domain.Account{
		Username: dto.Username,
		Password: string(hashedPassword),
		Role:     role,
	}
	created, err := s.accountRepo.Create(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("lỗi khi tạo tài khoản: %w", err)
	}
	created.Password = ""
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, dto domain.LoginAccountDTO) (*domain.AuthResponseDTO, error) {
	account, err := s.accountRepo.FindByUsername(ctx, dto.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lỗi khi tìm tài khoản: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(dto.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expirationTime := time.Now().Add(s.jwtExpirationHours)
	claims := jwt.MapClaims{
		"sub":      fmt.Sprintf("%d", account.ID),
		"exp":      expirationTime.Unix(),
		"iat":      time.Now().Unix(),
		"role":     account.Role,
		"username": account.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("lỗi tạo token: %w", err)
	}

	return &domain.AuthResponseDTO{
		Token:    tokenString,
		UserID:   account.ID,
		Username: account.Username,
		Role:     account.Role,
	}, nil
}

// ValidateToken dùng cho middleware.
func (s *AuthService) ValidateToken(tokenString string) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("phương thức ký không mong muốn: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, nil, fmt.Errorf("%w: token có định dạng sai", ErrTokenInvalid)
		} else if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil, fmt.Errorf("%w: token đã hết hạn", ErrTokenInvalid)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, nil, ErrTokenInvalid
	}
	return token, claims, nil
}
