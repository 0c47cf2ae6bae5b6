package wire

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wire_messages_sent_total",
			Help: "Number of messages written to a stream, by kind",
		},
		[]string{"kind"},
	)

	messagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wire_messages_received_total",
			Help: "Number of messages read from a stream, by kind",
		},
		[]string{"kind"},
	)
)
