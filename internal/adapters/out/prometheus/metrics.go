// Package prometheus exposes e-kanban metrics on a dedicated registry.
package prometheus

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"ekanban/internal/core/application/projection"
	"ekanban/internal/core/domain/model/order"
	"ekanban/internal/core/ports"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ekanban"

type Metrics struct {
	registry *prom.Registry

	OrderEvents   *prom.CounterVec
	ActiveOrders  *prom.GaugeVec
	UrgentOrders  prom.Gauge
	BoardStale    prom.Gauge
	HTTPRequests  *prom.CounterVec
	HTTPLatencyMS *prom.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prom.NewRegistry(),
		OrderEvents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "order_events_total",
			Help:      "Orders created or advanced, by resulting status and location.",
		}, []string{"status", "location"}),
		ActiveOrders: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "active_orders",
			Help:      "Active orders on the latest board, by status.",
		}, []string{"status"}),
		UrgentOrders: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "urgent_orders",
			Help:      "Pending orders older than the urgency threshold.",
		}),
		BoardStale: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "board_stale",
			Help:      "1 while the live feed is disrupted.",
		}),
		HTTPRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		HTTPLatencyMS: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.OrderEvents,
		m.ActiveOrders,
		m.UrgentOrders,
		m.BoardStale,
		m.HTTPRequests,
		m.HTTPLatencyMS,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveBoard refreshes the board gauges.
func (m *Metrics) ObserveBoard(board projection.Board, now time.Time) {
	m.ActiveOrders.WithLabelValues(order.Pending.String()).Set(float64(board.Counts.Pending))
	m.ActiveOrders.WithLabelValues(order.InTransit.String()).Set(float64(board.Counts.InTransit))
	m.UrgentOrders.Set(float64(len(board.Urgent(now))))
	if board.Stale {
		m.BoardStale.Set(1)
	} else {
		m.BoardStale.Set(0)
	}
}

func (m *Metrics) ObserveRequest(handler string, status int, took time.Duration) {
	m.HTTPRequests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
	m.HTTPLatencyMS.WithLabelValues(handler).Observe(float64(took.Microseconds()) / 1000)
}

// CountingPublisher counts every published event, then forwards it.
type CountingPublisher struct {
	metrics *Metrics
	next    ports.OrderEventPublisher
}

func (m *Metrics) CountingPublisher(next ports.OrderEventPublisher) *CountingPublisher {
	return &CountingPublisher{metrics: m, next: next}
}

func (p *CountingPublisher) Publish(ctx context.Context, e order.ChangedEvent) error {
	p.metrics.OrderEvents.WithLabelValues(e.Status.String(), e.Location).Inc()
	return p.next.Publish(ctx, e)
}
