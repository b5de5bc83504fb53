package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the two idempotent write paths. "created" counts writes
// that reached the store; "reused" counts requests answered from an
// existing record.
var (
	ExportsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vizzydb_exports_created_total",
		Help: "Export records created (downstream project calls made).",
	})
	ExportsReused = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vizzydb_exports_reused_total",
		Help: "Export requests answered idempotently from an existing record.",
	})
	MessagesAppended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vizzydb_messages_appended_total",
		Help: "Chat messages appended.",
	})
	MessagesDeduped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vizzydb_messages_deduped_total",
		Help: "Chat appends answered idempotently by client_msg_id.",
	})
	RetentionRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vizzydb_retention_removed_total",
		Help: "Records removed or soft-deleted by retention runs.",
	}, []string{"collection"})
)
