package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/digital-menu/hub"
	"github.com/yeremiapane/digital-menu/middlewares"
	"github.com/yeremiapane/digital-menu/models"
	"github.com/yeremiapane/digital-menu/services"
	"github.com/yeremiapane/digital-menu/utils"
)

type registerTableRequest struct {
	TableID string `json:"tableId"`
	GuestID string `json:"guestId"`
}

type joinAdminRequest struct {
	Token string `json:"token"`
}

type adminRoomJoined struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type orderRequest struct {
	OrderID string `json:"orderId"`
}

type SocketController struct {
	Hub           *hub.Hub
	Orders        *services.OrderService
	Presence      *services.PresenceService
	Events        *OrderEvents
	StaffRoles    []string
	ClientOptions hub.ClientOptions
	// AllowedOrigin kosong atau "*" berarti semua origin diterima
	AllowedOrigin string

	upgrader websocket.Upgrader
}

func NewSocketController(h *hub.Hub, orders *services.OrderService, presence *services.PresenceService, events *OrderEvents, staffRoles []string, opts hub.ClientOptions) *SocketController {
	sc := &SocketController{
		Hub:           h,
		Orders:        orders,
		Presence:      presence,
		Events:        events,
		StaffRoles:    staffRoles,
		ClientOptions: opts,
	}
	sc.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     sc.checkOrigin,
	}
	return sc
}

func (sc *SocketController) checkOrigin(r *http.Request) bool {
	if sc.AllowedOrigin == "" || sc.AllowedOrigin == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || origin == sc.AllowedOrigin
}

func (sc *SocketController) isStaffRole(role string) bool {
	for _, r := range sc.StaffRoles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// ServeWS -> GET /ws?token=&table_id=
func (sc *SocketController) ServeWS(c *gin.Context) {
	var (
		identity    hub.Identity
		hasIdentity bool
	)

	if userID := c.GetString(middlewares.CtxUserID); userID != "" {
		role := c.GetString(middlewares.CtxRole)
		if !sc.isStaffRole(role) {
			utils.ErrorLogger.WithFields(logrus.Fields{"user_id": userID, "role": role}).Warn("Socket handshake with non-staff role")
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		identity, hasIdentity = hub.StaffIdentity(userID, role), true
	} else if tableID := c.GetString(middlewares.CtxTableID); tableID != "" {
		exists, err := sc.Presence.TableExists(c.Request.Context(), tableID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		if !exists {
			utils.RespondError(c, http.StatusNotFound, errors.New("table not found"))
			return
		}
		identity, hasIdentity = hub.CustomerIdentity(tableID, ""), true
	}

	conn, err := sc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := hub.NewClient(conn, sc.ClientOptions)
	sc.onConnect(client, identity, hasIdentity)

	client.Run(sc.dispatch)

	sc.onDisconnect(client.ID())
}

func (sc *SocketController) onConnect(client *hub.Client, identity hub.Identity, hasIdentity bool) {
	sc.Hub.Router.Attach(client)

	fields := logrus.Fields{"connection_id": client.ID()}
	if hasIdentity {
		sc.Hub.Registry.Register(client.ID(), identity)
		fields["kind"] = identity.Kind
		fields["user_id"] = identity.UserID
		fields["table_id"] = identity.TableID

		if identity.IsStaff() {
			if err := sc.Presence.SetStaffHint(context.Background(), identity.UserID, client.ID()); err != nil {
				utils.ErrorLogger.WithFields(fields).WithError(err).Warn("Failed to store staff socket hint")
			}
		}
	}
	utils.InfoLogger.WithFields(fields).Info("Socket connected")
}

// onDisconnect membersihkan satu koneksi saja. Aman dipanggil lebih dari sekali.
func (sc *SocketController) onDisconnect(connID string) {
	identity, known := sc.Hub.Registry.Deregister(connID)
	sc.Hub.Router.Detach(connID)

	ctx := context.Background()
	fields := logrus.Fields{"connection_id": connID}

	removed, err := sc.Presence.RemoveTableConnection(ctx, connID)
	if err != nil {
		utils.ErrorLogger.WithFields(fields).WithError(err).Warn("Failed to remove table connection")
	}
	fields["table_rows"] = removed

	if known && identity.IsStaff() {
		cleared, err := sc.Presence.ClearStaffHint(ctx, connID)
		if err != nil {
			utils.ErrorLogger.WithFields(fields).WithError(err).Warn("Failed to clear staff socket hint")
		}
		fields["staff_hint_cleared"] = cleared > 0
	}

	utils.InfoLogger.WithFields(fields).Info("Socket disconnected")
}

// dispatch dipanggil berurutan per koneksi
func (sc *SocketController) dispatch(client *hub.Client, in hub.Inbound) {
	switch in.Event {
	case hub.EventRegisterTable:
		sc.registerTable(client, in)
	case hub.EventJoinAdminRoom:
		sc.joinAdminRoom(client, in)
	case hub.EventCreateOrder:
		sc.createOrder(client, in)
	case hub.EventConfirmOrder:
		sc.transition(client, in, models.OrderStatusConfirmed)
	case hub.EventRejectOrder:
		sc.transition(client, in, models.OrderStatusRejected)
	default:
		_ = sc.Hub.Router.Emit(client.ID(), hub.EventSocketError, hub.ErrorPayload{Message: "unknown event " + in.Event})
	}
}

func (sc *SocketController) registerTable(client *hub.Client, in hub.Inbound) {
	reject := func(msg string) {
		_ = sc.Hub.Router.Emit(client.ID(), hub.EventSocketError, hub.ErrorPayload{Message: msg})
	}

	if current, ok := sc.Hub.Registry.IdentityOf(client.ID()); ok && current.IsStaff() {
		reject("staff connections cannot register a table")
		return
	}

	var req registerTableRequest
	if err := in.Bind(&req); err != nil {
		reject("malformed register_table_socket data")
		return
	}
	req.TableID = strings.TrimSpace(req.TableID)
	req.GuestID = strings.TrimSpace(req.GuestID)

	fields := logrus.Fields{
		"connection_id": client.ID(),
		"table_id":      req.TableID,
		"guest_id":      req.GuestID,
	}

	err := sc.Presence.RegisterTableConnection(context.Background(), req.TableID, req.GuestID, client.ID())
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		reject(ve.Error())
		return
	}
	if err != nil {
		// baris presence hanya hint, routing tetap jalan
		utils.ErrorLogger.WithFields(fields).WithError(err).Warn("Failed to persist table connection")
	}

	sc.Hub.Registry.Register(client.ID(), hub.CustomerIdentity(req.TableID, req.GuestID))
	utils.InfoLogger.WithFields(fields).Info("Table socket registered")

	_ = sc.Hub.Router.Emit(client.ID(), hub.EventTableRegistered, req)
}

// joinAdminRoom -> masuk ke room staff. Koneksi dengan token di handshake cukup kirim event
// tanpa data; koneksi lain harus menyertakan token staff di data.
func (sc *SocketController) joinAdminRoom(client *hub.Client, in hub.Inbound) {
	fields := logrus.Fields{"connection_id": client.ID()}
	reject := func(msg string) {
		_ = sc.Hub.Router.Emit(client.ID(), hub.EventSocketError, hub.ErrorPayload{Message: msg})
	}

	var req joinAdminRequest
	if len(in.Data) > 0 && string(in.Data) != "null" {
		if err := in.Bind(&req); err != nil {
			reject("malformed join_admin_room data")
			return
		}
	}

	current, known := sc.Hub.Registry.IdentityOf(client.ID())
	identity := current
	if req.Token != "" {
		claims, err := utils.ParseToken(req.Token)
		if err != nil {
			utils.ErrorLogger.WithFields(fields).Warn("Join admin room with invalid token")
			reject(services.MsgNoPermission)
			return
		}
		identity = hub.StaffIdentity(claims.UserID, claims.Role)
	}

	if !identity.IsStaff() || !sc.isStaffRole(identity.Role) {
		fields["role"] = identity.Role
		utils.ErrorLogger.WithFields(fields).Warn("Join admin room denied")
		reject(services.MsgNoPermission)
		return
	}

	ctx := context.Background()
	if known && current.Kind == hub.KindCustomer {
		if _, err := sc.Presence.RemoveTableConnection(ctx, client.ID()); err != nil {
			utils.ErrorLogger.WithFields(fields).WithError(err).Warn("Failed to remove table connection")
		}
	}

	sc.Hub.Registry.Register(client.ID(), identity)
	if err := sc.Presence.SetStaffHint(ctx, identity.UserID, client.ID()); err != nil {
		utils.ErrorLogger.WithFields(fields).WithError(err).Warn("Failed to store staff socket hint")
	}

	fields["user_id"] = identity.UserID
	utils.InfoLogger.WithFields(fields).Info("Joined admin room")

	_ = sc.Hub.Router.Emit(client.ID(), hub.EventAdminRoomJoined, adminRoomJoined{UserID: identity.UserID, Role: identity.Role})
}

func (sc *SocketController) createOrder(client *hub.Client, in hub.Inbound) {
	fields := logrus.Fields{"connection_id": client.ID(), "event": in.Event}

	var input services.SubmitOrderInput
	if err := in.Bind(&input); err != nil {
		sc.Events.Failure(client.ID(), &services.ValidationError{Message: "malformed order data"}, fields)
		return
	}

	if current, ok := sc.Hub.Registry.IdentityOf(client.ID()); ok && current.Kind == hub.KindCustomer {
		if current.TableID != "" && current.TableID != strings.TrimSpace(input.TableID) {
			sc.Events.Failure(client.ID(), &services.ValidationError{Field: "tableId", Message: "does not match this connection"}, fields)
			return
		}
	}

	res, err := sc.Orders.SubmitOrder(context.Background(), input)
	if err != nil {
		fields["table_id"] = input.TableID
		fields["guest_id"] = input.GuestID
		sc.Events.Failure(client.ID(), err, fields)
		return
	}

	sc.Events.OrderCreated(client.ID(), res)
}

func (sc *SocketController) transition(client *hub.Client, in hub.Inbound, status string) {
	fields := logrus.Fields{"connection_id": client.ID(), "event": in.Event}

	var req orderRequest
	if err := in.Bind(&req); err != nil {
		sc.Events.Failure(client.ID(), &services.ValidationError{Message: "malformed order data"}, fields)
		return
	}
	fields["order_id"] = req.OrderID

	// koneksi customer atau anonim tidak punya user id, jadi akan ditolak oleh service
	identity, _ := sc.Hub.Registry.IdentityOf(client.ID())
	staffID := ""
	if identity.IsStaff() {
		staffID = identity.UserID
	}

	res, err := sc.Orders.TransitionOrder(context.Background(), req.OrderID, staffID, status)
	if err != nil {
		sc.Events.Failure(client.ID(), err, fields)
		return
	}

	sc.Events.StatusChanged(res)
}

// GetTablePresence -> GET /tables/:table_id/connected?guest_id=
func (sc *SocketController) GetTablePresence(c *gin.Context) {
	tableID := c.Param("table_id")
	guestID := strings.TrimSpace(c.Query("guest_id"))

	sel := hub.Table(tableID)
	if guestID != "" {
		sel = hub.Guest(tableID, guestID)
	}
	conns := sc.Hub.Registry.ConnectionsFor(sel)

	utils.RespondJSON(c, http.StatusOK, "Connection status", gin.H{
		"tableId":     tableID,
		"guestId":     guestID,
		"connected":   len(conns) > 0,
		"connections": len(conns),
	})
}
