package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はHTTPと在庫ワークフローのカウンタ。nilでも呼べる。
type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	purchases    *prometheus.CounterVec
	freeUnits    prometheus.Counter
	returns      *prometheus.CounterVec
}

// New は reg に登録して返す。reg が nil なら何も記録しない。
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	purchases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_purchases_total",
		Help: "Purchase attempts by result.",
	}, []string{"result"})
	freeUnits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inventory_free_units_granted_total",
		Help: "Free units handed out by discounts.",
	})
	returns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_return_requests_total",
		Help: "Return request events by outcome.",
	}, []string{"outcome"})

	reg.MustRegister(httpRequests, httpDuration, purchases, freeUnits, returns)
	return &Metrics{
		httpRequests: httpRequests,
		httpDuration: httpDuration,
		purchases:    purchases,
		freeUnits:    freeUnits,
		returns:      returns,
	}
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	route = normalizeLabel(route)
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// result: ok / insufficient_stock / not_found / error
func (m *Metrics) IncPurchase(result string) {
	if m == nil || m.purchases == nil {
		return
	}
	m.purchases.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *Metrics) AddFreeUnits(n int64) {
	if m == nil || m.freeUnits == nil || n <= 0 {
		return
	}
	m.freeUnits.Add(float64(n))
}

// outcome: submitted / accepted / rejected / over_limit
func (m *Metrics) IncReturn(outcome string) {
	if m == nil || m.returns == nil {
		return
	}
	m.returns.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
