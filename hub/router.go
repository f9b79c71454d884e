package hub

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/digital-menu/utils"
)

var ErrNotConnected = errors.New("connection is not attached")

// Sender adalah satu koneksi transport yang bisa menerima frame.
// Send tidak boleh blocking; koneksi lambat harus menolak frame sendiri.
type Sender interface {
	ID() string
	Send(frame []byte) error
}

// Router mengirim event ke koneksi hidup, baik point-to-point maupun lewat Selector.
type Router struct {
	registry *Registry

	mu      sync.RWMutex
	senders map[string]Sender
}

func NewRouter(registry *Registry) *Router {
	return &Router{
		registry: registry,
		senders:  make(map[string]Sender),
	}
}

func (r *Router) Attach(s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[s.ID()] = s
}

func (r *Router) Detach(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.senders, connID)
}

func (r *Router) IsAttached(connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.senders[connID]
	return ok
}

// Emit mengirim satu event ke satu koneksi saja (ack ke pengirim, error, pong).
func (r *Router) Emit(connID, event string, payload interface{}) error {
	r.mu.RLock()
	s, ok := r.senders[connID]
	r.mu.RUnlock()
	if !ok {
		return ErrNotConnected
	}

	frame, err := Encode(Message{Event: event, Data: payload})
	if err != nil {
		return err
	}
	return s.Send(frame)
}

// Broadcast me-resolve selector saat dipanggil lalu mengirim ke setiap koneksi yang ditemukan.
// Fire-and-forget: kegagalan satu penerima tidak menghentikan yang lain.
// Mengembalikan jumlah koneksi yang berhasil menerima frame; nol bukan error.
func (r *Router) Broadcast(sel Selector, event string, payload interface{}) int {
	connIDs := r.registry.ConnectionsFor(sel)
	if len(connIDs) == 0 {
		utils.InfoLogger.WithFields(logrus.Fields{
			"event":  event,
			"target": sel.String(),
		}).Debug("No live connections for broadcast")
		return 0
	}

	frame, err := Encode(Message{Event: event, Data: payload})
	if err != nil {
		utils.ErrorLogger.WithError(err).WithField("event", event).Error("Error marshaling message")
		return 0
	}

	r.mu.RLock()
	targets := make([]Sender, 0, len(connIDs))
	for _, id := range connIDs {
		if s, ok := r.senders[id]; ok {
			targets = append(targets, s)
		}
	}
	r.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if err := s.Send(frame); err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"event":         event,
				"connection_id": s.ID(),
			}).WithError(err).Warn("Dropped frame for connection")
			continue
		}
		delivered++
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"event":     event,
		"target":    sel.String(),
		"delivered": delivered,
		"resolved":  len(connIDs),
	}).Debug("Broadcast sent")

	return delivered
}
