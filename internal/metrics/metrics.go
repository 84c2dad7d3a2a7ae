package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesPersisted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_persisted_total",
		Help: "Messages accepted by the store, by write origin.",
	}, []string{"origin"})

	Broadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_room_broadcasts_total",
		Help: "Room broadcasts fanned out over the realtime channel.",
	})

	OpenConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_ws_open_connections",
		Help: "Currently open websocket connections.",
	})
)

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
