package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/digital-menu/hub"
	"github.com/yeremiapane/digital-menu/models"
	"github.com/yeremiapane/digital-menu/services"
	"github.com/yeremiapane/digital-menu/utils"
)

// NewOrderPayload -> data untuk event new_order_notification
type NewOrderPayload struct {
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	OrderCode  string    `json:"orderCode"`
	TableID    string    `json:"tableId"`
	TableName  string    `json:"tableName"`
	TotalPrice float64   `json:"totalPrice"`
	CreatedAt  time.Time `json:"createdAt"`
}

// OrderEvents meneruskan hasil pipeline order yang sudah commit ke koneksi socket.
// Dipakai oleh handler socket dan HTTP supaya fan-out-nya sama.
type OrderEvents struct {
	router *hub.Router
}

func NewOrderEvents(router *hub.Router) *OrderEvents {
	return &OrderEvents{router: router}
}

// OrderCreated -> ack ke pengirim saja, lalu notifikasi ke semua staff yang online.
func (e *OrderEvents) OrderCreated(submitterConn string, res *services.SubmitResult) int {
	order := res.Order

	if submitterConn != "" {
		if err := e.router.Emit(submitterConn, hub.EventOrderCreated, order); err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"connection_id": submitterConn,
				"order_id":      order.ID,
			}).WithError(err).Warn("Order ack not delivered")
		}
	}

	payload := NewOrderPayload{
		Type:       models.NotificationNewOrder,
		OrderID:    order.ID,
		OrderCode:  order.OrderCode,
		TotalPrice: order.TotalPrice,
		CreatedAt:  order.CreatedAt,
	}
	if order.Table != nil {
		payload.TableID = order.Table.ID
		payload.TableName = order.Table.Name
	}
	payload.Title, payload.Message = services.NewOrderText(order, payload.TableName)

	delivered := e.router.Broadcast(hub.AllStaff(), hub.EventNewOrderNotification, payload)
	if delivered == 0 {
		utils.InfoLogger.WithField("order_id", order.ID).Info("No staff online, order kept as stored notification")
	}
	return delivered
}

// StatusChanged -> ke semua tab guest pemilik order, atau seluruh meja kalau order tidak punya guest.
func (e *OrderEvents) StatusChanged(res *services.TransitionResult) int {
	order := res.Order
	if order.TableID == nil {
		return 0
	}

	sel := hub.Table(*order.TableID)
	if order.GuestID != nil && *order.GuestID != "" {
		sel = hub.Guest(*order.TableID, *order.GuestID)
	}
	return e.router.Broadcast(sel, hub.EventOrderStatusUpdate, order)
}

// Failure mengirim order_error dengan pesan yang aman ke koneksi yang memulai operasi.
func (e *OrderEvents) Failure(connID string, err error, fields logrus.Fields) {
	logFailure(err, fields)
	if connID == "" {
		return
	}
	_ = e.router.Emit(connID, hub.EventOrderError, hub.ErrorPayload{Message: services.PublicMessage(err)})
}

func logFailure(err error, fields logrus.Fields) {
	if services.IsExpected(err) {
		utils.InfoLogger.WithFields(fields).WithError(err).Info("Order request rejected")
		return
	}
	utils.ErrorLogger.WithFields(fields).WithError(err).Error("Order request failed")
}

// respondServiceError -> versi HTTP dari Failure
func respondServiceError(c *gin.Context, err error) {
	logFailure(err, logrus.Fields{"path": c.Request.URL.Path})
	status := services.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		utils.RespondError(c, status, errors.New(services.MsgGenericFailure))
		return
	}
	utils.RespondError(c, status, errors.New(services.PublicMessage(err)))
}
