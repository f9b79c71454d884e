// Package hub menampung koneksi socket yang hidup: siapa pemiliknya (Registry)
// dan bagaimana event dikirim ke mereka (Router).
//
// Satu Hub dibuat saat proses start lalu dioper ke semua handler.
package hub

type Hub struct {
	Registry *Registry
	Router   *Router
}

func New() *Hub {
	registry := NewRegistry()
	return &Hub{
		Registry: registry,
		Router:   NewRouter(registry),
	}
}
