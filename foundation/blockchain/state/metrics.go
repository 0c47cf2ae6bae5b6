package state

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chainHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledger",
		Name:      "chain_height",
		Help:      "Number of blocks in the chain.",
	})

	utxoCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledger",
		Name:      "utxos",
		Help:      "Number of unspent transaction outputs.",
	})

	mempoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledger",
		Name:      "mempool_transactions",
		Help:      "Number of transactions waiting in the mempool.",
	})

	targetLeadingZeros = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledger",
		Name:      "target_leading_zero_bits",
		Help:      "Leading zero bits of the current target, a rough difficulty.",
	})

	blocksAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "blocks_accepted_total",
		Help:      "Blocks appended to the chain.",
	})

	blocksRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "blocks_rejected_total",
		Help:      "Blocks that failed validation.",
	})

	txRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "transactions_rejected_total",
		Help:      "Transactions refused by the mempool.",
	})
)

// updateMetrics publishes the gauges. The caller must hold a lock.
func updateMetrics(s *State) {
	chainHeight.Set(float64(len(s.blocks)))
	utxoCount.Set(float64(len(s.utxos)))
	mempoolCount.Set(float64(s.mempool.Count()))
	targetLeadingZeros.Set(float64(256 - s.target.BitLen()))
}
