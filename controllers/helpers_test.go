package controllers

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/digital-menu/database"
	"github.com/yeremiapane/digital-menu/hub"
	"github.com/yeremiapane/digital-menu/middlewares"
	"github.com/yeremiapane/digital-menu/models"
	"github.com/yeremiapane/digital-menu/services"
	"github.com/yeremiapane/digital-menu/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var staffRoles = []string{"admin", "waiter"}

type testEnv struct {
	db     *gorm.DB
	hub    *hub.Hub
	router *gin.Engine
	orders *services.OrderService

	table   models.Table
	staff   models.User
	product models.Product
	token   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("controllers-test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	env := &testEnv{db: db, hub: hub.New()}
	env.table = models.Table{Name: "Table 1", TNumber: 1}
	env.staff = models.User{Name: "Waiter", Email: "w@test.local", Password: "x", Role: "waiter"}
	env.product = models.Product{Name: "Nasi Goreng", Price: 5}
	require.NoError(t, db.Create(&env.table).Error)
	require.NoError(t, db.Create(&env.staff).Error)
	require.NoError(t, db.Create(&env.product).Error)

	env.token, err = utils.GenerateToken(env.staff.ID, env.staff.Role)
	require.NoError(t, err)

	env.orders = services.NewOrderService(db, services.NewGormCatalog(db), staffRoles, 5*time.Second)
	notifications := services.NewNotificationService(db, 5*time.Second)
	presence := services.NewPresenceService(db, 5*time.Second)
	events := NewOrderEvents(env.hub.Router)

	orderCtrl := NewOrderController(env.orders, events)
	notifCtrl := NewNotificationController(notifications)
	socketCtrl := NewSocketController(env.hub, env.orders, presence, events, staffRoles, hub.DefaultClientOptions())

	r := gin.New()
	r.GET("/ws", middlewares.WebSocketAuthMiddleware(), socketCtrl.ServeWS)
	r.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	r.GET("/tables/:table_id/orders", orderCtrl.GetTableOrders)
	r.GET("/tables/:table_id/connected", socketCtrl.GetTablePresence)
	r.GET("/tables/:table_id/notifications", notifCtrl.GetTableNotifications)
	r.PATCH("/tables/:table_id/notifications/:notif_id/read", notifCtrl.MarkTableNotificationRead)
	r.POST("/tables/:table_id/notifications/read-all", notifCtrl.MarkAllTableNotificationsRead)

	admin := r.Group("/admin", middlewares.AuthMiddleware(), middlewares.RequireRoles(staffRoles...))
	admin.GET("/orders", orderCtrl.GetAllOrders)
	admin.POST("/orders/:order_id/confirm", orderCtrl.ConfirmOrder)
	admin.POST("/orders/:order_id/reject", orderCtrl.RejectOrder)
	admin.GET("/notifications", notifCtrl.GetStaffNotifications)
	admin.GET("/notifications/unread-count", notifCtrl.GetStaffUnreadCount)
	admin.PATCH("/notifications/:notif_id/read", notifCtrl.MarkStaffNotificationRead)
	admin.POST("/notifications/read-all", notifCtrl.MarkAllStaffNotificationsRead)

	env.router = r
	return env
}

func (e *testEnv) submit(t *testing.T, guestID string) *models.Order {
	t.Helper()
	res, err := e.orders.SubmitOrder(context.Background(), services.SubmitOrderInput{
		TableID:   e.table.ID,
		GuestID:   guestID,
		CartItems: []services.CartItem{{ProductID: e.product.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	return res.Order
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, auth bool) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

// dial membuka koneksi socket ke server httptest yang memakai router env
func (e *testEnv) dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if query != "" {
		url += "?" + query
	}
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, event string, data interface{}) {
	t.Helper()
	frame, err := json.Marshal(map[string]interface{}{"event": event, "data": data})
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, frame))
}

func read(t *testing.T, ws *websocket.Conn) hub.Inbound {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, frame, err := ws.ReadMessage()
	require.NoError(t, err)
	in, err := hub.Decode(frame)
	require.NoError(t, err)
	return in
}

func errorMessage(t *testing.T, in hub.Inbound) string {
	t.Helper()
	var p hub.ErrorPayload
	require.NoError(t, in.Bind(&p))
	return p.Message
}

