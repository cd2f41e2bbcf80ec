package exporter

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	METRIC_DISTRIBUTION_SUCCESS = "distribution_success_count"
	METRIC_DISTRIBUTION_FAILURE = "distribution_failure_count"
	METRIC_TRANSFER_RETRY       = "transfer_retry_count"
	METRIC_PROOF_TOLERATED      = "payment_proof_tolerated_count"
)

var (
	counters map[string]prometheus.Counter
)

func Init() {

	// Create metric spaces
	counters = make(map[string]prometheus.Counter)

	register := func(name, help string) {
		counter := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xyn",
			Subsystem: "presale",
			Name:      name,
			Help:      help,
		})
		prometheus.MustRegister(counter)
		counters[name] = counter
	}

	register(METRIC_DISTRIBUTION_SUCCESS, "Counts distributions that settled successfully")
	register(METRIC_DISTRIBUTION_FAILURE, "Counts distributions that returned a failure result")
	register(METRIC_TRANSFER_RETRY, "Counts failed transfer attempts")
	register(METRIC_PROOF_TOLERATED, "Counts payments accepted on existence alone")
}

func GetCounter(name string) prometheus.Counter {
	return counters[name]
}

func inc(name string) {
	if counter, ok := counters[name]; ok {
		counter.Inc()
	}
}

func IncDistributionSuccess() {
	inc(METRIC_DISTRIBUTION_SUCCESS)
}

func IncDistributionFailure() {
	inc(METRIC_DISTRIBUTION_FAILURE)
}

func IncTransferRetry() {
	inc(METRIC_TRANSFER_RETRY)
}

func IncProofTolerated() {
	inc(METRIC_PROOF_TOLERATED)
}
