package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_orders_created_total",
		Help: "Total number of orders created.",
	})

	OrderTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_order_transitions_total",
		Help: "Order status transitions by target status.",
	},
		[]string{"status"},
	)

	SubmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_submissions_total",
		Help: "Deliverable files recorded on orders.",
	})

	MessagesSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_messages_sent_total",
		Help: "Direct messages appended to conversations.",
	})

	BlockTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_block_toggles_total",
		Help: "Block relation changes by action.",
	},
		[]string{"action"},
	)

	AssistantRepliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_assistant_replies_total",
		Help: "Help-chat replies by source.",
	},
		[]string{"source"},
	)

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_operation_errors_total",
		Help: "Errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	ActiveSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "marketplace_realtime_subscriptions",
		Help: "Current number of live realtime subscriptions.",
	})
)
