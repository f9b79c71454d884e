package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/digital-menu/middlewares"
	"github.com/yeremiapane/digital-menu/models"
	"github.com/yeremiapane/digital-menu/services"
	"github.com/yeremiapane/digital-menu/utils"
)

type OrderController struct {
	Orders *services.OrderService
	Events *OrderEvents
}

func NewOrderController(orders *services.OrderService, events *OrderEvents) *OrderController {
	return &OrderController{Orders: orders, Events: events}
}

// GetAllOrders -> list order untuk admin dengan search dan pagination
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	result, err := oc.Orders.ListOrders(c.Request.Context(), services.ListOrdersQuery{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", result)
}

// GetOrderByID -> detail order beserta items
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	order, err := oc.Orders.GetOrder(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

func (oc *OrderController) ConfirmOrder(c *gin.Context) {
	oc.transition(c, models.OrderStatusConfirmed, "Order confirmed")
}

func (oc *OrderController) RejectOrder(c *gin.Context) {
	oc.transition(c, models.OrderStatusRejected, "Order rejected")
}

// transition memakai pipeline yang sama dengan event socket, termasuk broadcast ke meja
func (oc *OrderController) transition(c *gin.Context, status, message string) {
	res, err := oc.Orders.TransitionOrder(c.Request.Context(), c.Param("order_id"), c.GetString(middlewares.CtxUserID), status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	oc.Events.StatusChanged(res)
	utils.RespondJSON(c, http.StatusOK, message, res.Order)
}

// GetTableOrders -> "my orders" untuk customer
func (oc *OrderController) GetTableOrders(c *gin.Context) {
	orders, err := oc.Orders.ListTableOrders(c.Request.Context(), c.Param("table_id"), c.Query("guest_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}
