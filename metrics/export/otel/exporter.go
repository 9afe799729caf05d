package otel

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goSpace "github.com/MrEthical07/goSpace"
	"github.com/MrEthical07/goSpace/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Constructor errors.
var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goSpace.MetricsSnapshot
	NotificationsDropped() uint64
}

type observedCounter struct {
	id         goSpace.MetricID
	instrument metric.Int64ObservableCounter
}

// observedHistogram reports cumulative bucket counts on one gauge keyed by
// the "le" attribute, plus a sample count gauge.
type observedHistogram struct {
	id      goSpace.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// bucketSets holds the precomputed "le" attribute per bucket, +Inf last.
var bucketSets = func() []metric.ObserveOption {
	out := make([]metric.ObserveOption, 0, len(internaldefs.HistogramUpperBounds)+1)
	for _, le := range internaldefs.HistogramUpperBounds {
		out = append(out, metric.WithAttributes(attribute.String("le", strconv.FormatFloat(le, 'g', -1, 64))))
	}
	return append(out, metric.WithAttributes(attribute.String("le", "+Inf")))
}()

// OTelExporter publishes engine counters through observable instruments
// that read one snapshot per collection.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
	histograms   []observedHistogram
	dropped      metric.Int64ObservableCounter
}

// NewOTelExporter registers instruments on meter for engine.
func NewOTelExporter(meter metric.Meter, engine *goSpace.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource registers instruments on meter for any snapshot source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exp := &OTelExporter{source: source}
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", def.Name, err)
		}
		exp.counters = append(exp.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		buckets, err := meter.Int64ObservableGauge(def.Name+"_bucket", metric.WithDescription(def.Help+" Cumulative bucket counts."))
		if err != nil {
			return nil, fmt.Errorf("create histogram buckets %s: %w", def.Name, err)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription(def.Help+" Sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count %s: %w", def.Name, err)
		}
		exp.histograms = append(exp.histograms, observedHistogram{id: def.ID, buckets: buckets, count: count})
		observables = append(observables, buckets, count)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.DroppedName, metric.WithDescription(internaldefs.DroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("create notifications dropped counter: %w", err)
	}
	exp.dropped = dropped
	observables = append(observables, dropped)

	exp.registration, err = meter.RegisterCallback(exp.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return exp, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		o.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}
	for _, h := range e.histograms {
		raw, ok := snapshot.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, set := range bucketSets {
			o.ObserveInt64(h.buckets, int64(cumulative[i]), set)
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	o.ObserveInt64(e.dropped, int64(e.source.NotificationsDropped()))
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
