// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package resolver

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "contractvm"

type metrics struct {
	txs             prometheus.Counter
	txsFailed       prometheus.Counter
	receipts        prometheus.Counter
	receiptsFailed  prometheus.Counter
	gasBurnt        prometheus.Counter
	receiptsPerCall prometheus.Histogram
}

func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		txs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "txs",
			Help:      "Number of transactions resolved",
		}),
		txsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "txs_failed",
			Help:      "Number of transactions whose final status is a failure",
		}),
		receipts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "receipts_executed",
			Help:      "Number of receipts executed",
		}),
		receiptsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "receipts_failed",
			Help:      "Number of receipts whose execution failed",
		}),
		gasBurnt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "gas_burnt",
			Help:      "Total gas burnt by executed receipts",
		}),
		receiptsPerCall: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "receipts_per_tx",
			Help:      "Number of receipts executed per transaction",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 16, 32},
		}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.txs),
		registerer.Register(m.txsFailed),
		registerer.Register(m.receipts),
		registerer.Register(m.receiptsFailed),
		registerer.Register(m.gasBurnt),
		registerer.Register(m.receiptsPerCall),
	)
	return m, errs.Err
}
