package router

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/digital-menu/config"
	"github.com/yeremiapane/digital-menu/controllers"
	"github.com/yeremiapane/digital-menu/hub"
	"github.com/yeremiapane/digital-menu/middlewares"
	"github.com/yeremiapane/digital-menu/services"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB, h *hub.Hub, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.NewRateLimiter(cfg.HTTPRateLimit, 1).RateLimit())

	// Service
	orderSvc := services.NewOrderService(db, services.NewGormCatalog(db), cfg.StaffRoles, cfg.TxTimeout)
	notificationSvc := services.NewNotificationService(db, cfg.TxTimeout)
	presenceSvc := services.NewPresenceService(db, cfg.TxTimeout)
	events := controllers.NewOrderEvents(h.Router)

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(db)
	orderCtrl := controllers.NewOrderController(orderSvc, events)
	notificationCtrl := controllers.NewNotificationController(notificationSvc)
	socketCtrl := controllers.NewSocketController(h, orderSvc, presenceSvc, events, cfg.StaffRoles, hub.ClientOptions{
		SendBuffer:      cfg.WSSendBuffer,
		EventsPerSecond: cfg.WSEventsPerSecond,
		EventBurst:      cfg.WSEventBurst,
	})
	socketCtrl.AllowedOrigin = cfg.CORSOrigin

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/login", userCtrl.Login)
	}

	// Socket: staff pakai token, customer pakai table_id atau register_table_socket
	r.GET("/ws", middlewares.WebSocketAuthMiddleware(), socketCtrl.ServeWS)

	// -- CUSTOMER (Tanpa Auth) --
	r.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	r.GET("/tables/:table_id/orders", orderCtrl.GetTableOrders)
	r.GET("/tables/:table_id/connected", socketCtrl.GetTablePresence)
	r.GET("/tables/:table_id/notifications", notificationCtrl.GetTableNotifications)
	r.PATCH("/tables/:table_id/notifications/:notif_id/read", notificationCtrl.MarkTableNotificationRead)
	r.POST("/tables/:table_id/notifications/read-all", notificationCtrl.MarkAllTableNotificationsRead)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())
	auth.Use(middlewares.RequireRoles(cfg.StaffRoles...))

	auth.GET("/profile", userCtrl.GetProfile)

	// ORDERS
	auth.GET("/orders", orderCtrl.GetAllOrders)
	auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	auth.POST("/orders/:order_id/confirm", orderCtrl.ConfirmOrder)
	auth.POST("/orders/:order_id/reject", orderCtrl.RejectOrder)

	// NOTIFICATIONS
	auth.GET("/notifications", notificationCtrl.GetStaffNotifications)
	auth.GET("/notifications/unread-count", notificationCtrl.GetStaffUnreadCount)
	auth.PATCH("/notifications/:notif_id/read", notificationCtrl.MarkStaffNotificationRead)
	auth.POST("/notifications/read-all", notificationCtrl.MarkAllStaffNotificationsRead)

	return r
}
