package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"parking-facility/internal/parking"
)

// AvailabilitySource is satisfied by *parking.Facility.
type AvailabilitySource interface {
	Availability() map[parking.Category]parking.CategoryAvailability
}

// AvailabilityCollector exposes per-category slot counts, read fresh from the
// facility on every scrape.
type AvailabilityCollector struct {
	source    AvailabilitySource
	available *prometheus.Desc
	occupied  *prometheus.Desc
	reserved  *prometheus.Desc
	total     *prometheus.Desc
	waitlist  *prometheus.Desc
}

func NewAvailabilityCollector(source AvailabilitySource) *AvailabilityCollector {
	labels := []string{"category"}
	return &AvailabilityCollector{
		source: source,
		available: prometheus.NewDesc("parking_slots_available",
			"Free slots per category.", labels, nil),
		occupied: prometheus.NewDesc("parking_slots_occupied",
			"Slots not free per category, reserved slots included.", labels, nil),
		reserved: prometheus.NewDesc("parking_slots_reserved",
			"Reserved slots per category.", labels, nil),
		total: prometheus.NewDesc("parking_slots_total",
			"Configured capacity per category.", labels, nil),
		waitlist: prometheus.NewDesc("parking_waitlist_length",
			"Vehicles waiting per category.", labels, nil),
	}
}

func (c *AvailabilityCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.available
	ch <- c.occupied
	ch <- c.reserved
	ch <- c.total
	ch <- c.waitlist
}

func (c *AvailabilityCollector) Collect(ch chan<- prometheus.Metric) {
	availability := c.source.Availability()
	for _, category := range parking.Categories {
		a, ok := availability[category]
		if !ok {
			continue
		}
		label := category.String()
		ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue, float64(a.Available), label)
		ch <- prometheus.MustNewConstMetric(c.occupied, prometheus.GaugeValue, float64(a.Occupied), label)
		ch <- prometheus.MustNewConstMetric(c.reserved, prometheus.GaugeValue, float64(a.Reserved), label)
		ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(a.Total), label)
		ch <- prometheus.MustNewConstMetric(c.waitlist, prometheus.GaugeValue, float64(a.Waitlist), label)
	}
}
