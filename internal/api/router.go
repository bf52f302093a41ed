package api

import (
	"net/http"

	"campus_parking/internal/api/handler"
	"campus_parking/internal/api/middleware"
	"campus_parking/internal/metrics"
	"campus_parking/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRouter(
	authService *service.AuthService,
	directoryService *service.DirectoryService,
	reservationService *service.ReservationService,
	authMw *middleware.AuthMiddleware,
	wsManager *handler.WebSocketManager,
) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(metrics.GinMiddleware())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Server is running"})
	})
	r.GET("/metrics", metrics.Handler())

	// WebSocket endpoint (không cần auth cho real-time connection)
	wsHandler := handler.NewWebSocketHandler(wsManager)
	r.GET("/ws", wsHandler.HandleWebSocket)

	userH := handler.NewUserHandler(directoryService)
	r.GET("/users", userH.GetAllUsers)
	r.POST("/users", userH.CreateUser)

	vehicleH := handler.NewVehicleHandler(directoryService)
	r.GET("/vehicles", vehicleH.GetAllVehicles)
	r.POST("/vehicles", vehicleH.RegisterVehicle)

	slotH := handler.NewSlotHandler(directoryService)
	r.GET("/slots", slotH.ListSlots)

	reservationH := handler.NewReservationHandler(reservationService)
	r.GET("/reservations", reservationH.ListReservations)
	r.POST("/reserve", reservationH.Reserve)
	r.POST("/complete", reservationH.Complete)
	r.DELETE("/reservations/:res_id", reservationH.Cancel)

	paymentH := handler.NewPaymentHandler(directoryService)
	r.GET("/payments", paymentH.GetAllPayments)
	r.POST("/payments", paymentH.RecordPayment)

	authHandler := handler.NewAuthHandler(authService)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// Nhóm quản trị: tạo/sửa/xóa bãi đỗ và chỗ đỗ, yêu cầu JWT
	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		lotH := handler.NewParkingLotHandler(directoryService)
		lotRoutes := v1.Group("/parking-lots")
		{
			lotRoutes.POST("", authMw.AuthorizeRole("admin"), lotH.CreateParkingLot)
			lotRoutes.GET("", lotH.GetAllParkingLots)
			lotRoutes.GET("/:id", lotH.GetParkingLotByID)
			lotRoutes.GET("/:id/slots", lotH.GetSlotsByLotID)
			lotRoutes.PUT("/:id", authMw.AuthorizeRole("admin"), lotH.UpdateParkingLot)
			lotRoutes.DELETE("/:id", authMw.AuthorizeRole("admin"), lotH.DeleteParkingLot)
		}

		slotRoutes := v1.Group("/parking-slots")
		{
			slotRoutes.POST("", authMw.AuthorizeRole("admin"), slotH.CreateParkingSlot)
			slotRoutes.GET("/:slot_id", slotH.GetParkingSlotByID)
			slotRoutes.DELETE("/:slot_id", authMw.AuthorizeRole("admin"), slotH.DeleteParkingSlot)
		}
	}

	return r
}
