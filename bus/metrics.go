package bus

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// 入队消息总数
	enqueueMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fieldrule",
			Subsystem: "bus",
			Name:      "enqueue_messages_total",
			Help:      "Total messages enqueued, by queue and message type",
		},
		[]string{"queue", "type"},
	)

	// 出队消息总数
	dequeueMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fieldrule",
			Subsystem: "bus",
			Name:      "dequeue_messages_total",
			Help:      "Total messages dequeued, by queue and message type",
		},
		[]string{"queue", "type"},
	)
)

func init() {
	prometheus.MustRegister(enqueueMessagesTotal, dequeueMessagesTotal)
}
