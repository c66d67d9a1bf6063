package metric

import "github.com/prometheus/client_golang/prometheus"

// SessionFlags reports the current derived session flags.
type SessionFlags func() (authenticated, admin bool)

// SessionCollector samples session flags at scrape time.
type SessionCollector struct {
	flags SessionFlags

	authenticatedDesc *prometheus.Desc
	adminDesc         *prometheus.Desc
}

// NewSessionCollector creates a collector backed by flags.
func NewSessionCollector(flags SessionFlags) *SessionCollector {
	return &SessionCollector{
		flags: flags,
		authenticatedDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "authenticated"),
			"1 when a user is logged in, else 0.",
			nil, nil,
		),
		adminDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "admin"),
			"1 when the logged-in user is an admin, else 0.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.authenticatedDesc
	ch <- c.adminDesc
}

// Collect implements prometheus.Collector.
func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	authenticated, admin := c.flags()
	ch <- prometheus.MustNewConstMetric(c.authenticatedDesc, prometheus.GaugeValue, boolToFloat(authenticated))
	ch <- prometheus.MustNewConstMetric(c.adminDesc, prometheus.GaugeValue, boolToFloat(admin))
}

// WatchSession registers a SessionCollector for flags. It is a no-op on a
// nil Registry.
func (r *Registry) WatchSession(flags SessionFlags) error {
	if r == nil {
		return nil
	}
	return r.registry.Register(NewSessionCollector(flags))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
