package crawler

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lukemcguire/leadcrawl/result"
)

// Metrics holds Prometheus collectors for crawl activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	PagesFetched  prometheus.Counter
	FetchFailures *prometheus.CounterVec
	EmailsFound   prometheus.Counter
	PhonesFound   prometheus.Counter
	LinksOffered  *prometheus.CounterVec
}

// NewMetrics creates the crawl collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadcrawl",
			Name:      "pages_fetched_total",
			Help:      "HTML pages fetched and processed.",
		}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadcrawl",
			Name:      "fetch_failures_total",
			Help:      "Pages that could not be fetched or processed, by category.",
		}, []string{"category"}),
		EmailsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadcrawl",
			Name:      "emails_recorded_total",
			Help:      "Distinct business emails recorded.",
		}),
		PhonesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadcrawl",
			Name:      "phones_recorded_total",
			Help:      "Distinct phone numbers recorded.",
		}),
		LinksOffered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadcrawl",
			Name:      "links_enqueued_total",
			Help:      "Links accepted by the frontier, by class.",
		}, []string{"class"}),
	}

	for _, c := range []prometheus.Collector{m.PagesFetched, m.FetchFailures, m.EmailsFound, m.PhonesFound, m.LinksOffered} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) pageFetched() {
	if m != nil {
		m.PagesFetched.Inc()
	}
}

func (m *Metrics) fetchFailed(category result.ErrorCategory) {
	if m != nil {
		m.FetchFailures.WithLabelValues(string(category)).Inc()
	}
}

func (m *Metrics) recorded(emails, phones int) {
	if m != nil {
		m.EmailsFound.Add(float64(emails))
		m.PhonesFound.Add(float64(phones))
	}
}

func (m *Metrics) linksOffered(priority, regular int) {
	if m != nil {
		m.LinksOffered.WithLabelValues("priority").Add(float64(priority))
		m.LinksOffered.WithLabelValues("regular").Add(float64(regular))
	}
}
