// Package prometheus exports pipeline stage metrics to Prometheus.
package prometheus

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fwojciec/pageflow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values for completed operations.
const (
	OutcomeSuccess       = "success"
	OutcomeFetchError    = "fetch_error"
	OutcomeTransferError = "transfer_error"
	OutcomeExtractError  = "extract_error"
	OutcomeError         = "error"
)

var _ pageflow.StageObserver = (*Observer)(nil)

// Observer records in-flight work and completions per stage.
type Observer struct {
	inflight *prometheus.GaugeVec
	items    *prometheus.CounterVec
}

// NewObserver registers the collectors against reg, or the default
// registerer when reg is nil.
func NewObserver(reg prometheus.Registerer) (*Observer, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &Observer{
		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pageflow_stage_inflight",
			Help: "Operations currently in flight per stage.",
		}, []string{"stage"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pageflow_stage_items_total",
			Help: "Completed operations per stage partitioned by outcome.",
		}, []string{"stage", "outcome"}),
	}
	for _, collector := range []prometheus.Collector{o.inflight, o.items} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register stage collector: %w", err)
		}
	}
	return o, nil
}

// Admitted implements pageflow.StageObserver.
func (o *Observer) Admitted(stage string, inflight int) {
	o.inflight.WithLabelValues(stage).Set(float64(inflight))
}

// Completed implements pageflow.StageObserver.
func (o *Observer) Completed(stage string, inflight int, err error) {
	o.inflight.WithLabelValues(stage).Set(float64(inflight))
	o.items.WithLabelValues(stage, outcome(err)).Inc()
}

func outcome(err error) string {
	var fetchErr *pageflow.FetchError
	var transferErr *pageflow.TransferError
	var extractErr *pageflow.ExtractError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &fetchErr):
		return OutcomeFetchError
	case errors.As(err, &transferErr):
		return OutcomeTransferError
	case errors.As(err, &extractErr):
		return OutcomeExtractError
	default:
		return OutcomeError
	}
}

// Handler returns an http.Handler exposing the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
