package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the last-minute listing pipeline, store round-trips included.
	ListingLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "villa_listing_latency_seconds",
		Help:    "Latency of the last-minute listing pipeline",
		Buckets: prometheus.DefBuckets,
	})

	// Listing requests by outcome (ok, cached, unavailable, table_missing, access_denied, error).
	ListingRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "villa_listing_requests_total",
		Help: "Total number of listing requests by outcome",
	}, []string{"outcome"})

	// Unique champion slots found before pagination.
	ChampionSlots = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "villa_listing_champion_slots",
		Help:    "Unique (villa, check-in) slots found per listing request",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
	})

	// JSON fields that failed to decode and were replaced by an empty list.
	MalformedJSONFields = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "villa_offer_malformed_json_total",
		Help: "Embedded JSON fields that failed to decode",
	}, []string{"field"})

	// Records in the published offer snapshot.
	SnapshotRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "villa_offer_snapshot_records",
		Help: "Number of offers in the current cache snapshot",
	})

	// Snapshot refresh attempts by result (ok, error).
	SnapshotRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "villa_offer_snapshot_refreshes_total",
		Help: "Offer snapshot refresh attempts",
	}, []string{"result"})
)

func Init() {
	prometheus.MustRegister(
		ListingLatency,
		ListingRequests,
		ChampionSlots,
		MalformedJSONFields,
		SnapshotRecords,
		SnapshotRefreshes,
	)
}
