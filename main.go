package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus_parking/internal/api"
	"campus_parking/internal/api/handler"
	"campus_parking/internal/api/middleware"
	"campus_parking/internal/config"
	"campus_parking/internal/repository"
	"campus_parking/internal/repository/postgresql"
	"campus_parking/internal/service"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	log.Println("Cấu hình đã được tải.")

	// 2. Setup Database Connection
	db, err := postgresql.NewDB(cfg)
	if err != nil {
		log.Fatalf("Không thể kết nối database: %v", err)
	}
	defer db.Close()
	log.Println("Đã kết nối database thành công!")

	// 3. Chọn chiến lược đọc danh sách chỗ đỗ MỘT LẦN lúc khởi động
	var slotReader repository.SlotViewReader
	richSchema, err := postgresql.DetectRichSlotSchema(context.Background(), db)
	if err != nil {
		log.Printf("Cảnh báo: kiểm tra schema thất bại, dùng truy vấn slots đơn giản: %v", err)
		richSchema = false
	}
	if richSchema {
		slotReader = postgresql.NewRichSlotReader(db)
		log.Println("Schema check: dùng truy vấn slots đầy đủ (join bãi đỗ và fixed_for).")
	} else {
		slotReader = postgresql.NewSimpleSlotReader(db)
		log.Println("Schema check: dùng truy vấn slots đơn giản (thiếu parking_lots hoặc fixed_for).")
	}

	// 4. Initialize Repositories
	userRepo := postgresql.NewPgUserRepository(db)
	vehicleRepo := postgresql.NewPgVehicleRepository(db)
	lotRepo := postgresql.NewPgParkingLotRepository(db)
	slotRepo := postgresql.NewPgParkingSlotRepository(db)
	reservationRepo := postgresql.NewPgReservationRepository(db)
	paymentRepo := postgresql.NewPgPaymentRepository(db)
	accountRepo := postgresql.NewPgAccountRepository(db)
	txBeginner := postgresql.NewTxBeginner(db)

	// 5. Init WebSocket manager
	wsManager := handler.NewWebSocketManager()
	go wsManager.Start()
	log.Println("WebSocket Manager đã được khởi động.")

	// 6. Initialize Services
	authService := service.NewAuthService(accountRepo, cfg.JWTSecret, cfg.JWTExpirationHours)
	directoryService := service.NewDirectoryService(userRepo, vehicleRepo, lotRepo, slotRepo, slotReader, paymentRepo)
	reservationService := service.NewReservationService(txBeginner, userRepo, vehicleRepo, slotRepo, reservationRepo, wsManager)

	// 7. Initialize Auth Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)

	// 8. Setup HTTP Router
	router := api.SetupRouter(authService, directoryService, reservationService, authMiddleware, wsManager)

	// 9. Start HTTP Server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server đang chạy trên port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Lỗi ListenAndServe(): %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Đang tắt server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server buộc phải tắt: %v", err)
	}

	log.Println("Server đã tắt.")
}
