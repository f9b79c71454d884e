package hub

import (
	"errors"

	"github.com/goccy/go-json"
)

// Event dari client ke server
const (
	EventRegisterTable = "register_table_socket"
	EventJoinAdminRoom = "join_admin_room"
	EventCreateOrder   = "create_order"
	EventConfirmOrder  = "confirm_order"
	EventRejectOrder   = "reject_order"
	EventPing          = "ping"
)

// Event dari server ke client
const (
	EventOrderCreated         = "order_created_successfully"
	EventOrderError           = "order_error"
	EventNewOrderNotification = "new_order_notification"
	EventOrderStatusUpdate    = "order_status_update"
	EventTableRegistered      = "table_socket_registered"
	EventAdminRoomJoined      = "admin_room_joined"
	EventSocketError          = "socket_error"
	EventPong                 = "pong"
)

var ErrEmptyEvent = errors.New("frame has no event name")

// Message adalah frame keluar: {"event": "...", "data": ...}
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Inbound adalah frame masuk. Data di-decode belakangan oleh handler event.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ErrorPayload dipakai untuk order_error dan socket_error
type ErrorPayload struct {
	Message string `json:"message"`
}

func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func Decode(frame []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(frame, &in); err != nil {
		return Inbound{}, err
	}
	if in.Event == "" {
		return Inbound{}, ErrEmptyEvent
	}
	return in, nil
}

// Bind men-decode data event ke struct tujuan
func (in Inbound) Bind(dst interface{}) error {
	if len(in.Data) == 0 {
		return errors.New("event has no data")
	}
	return json.Unmarshal(in.Data, dst)
}
