package prometheusmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// preloadLabelValues creates the label combinations of the vectors whose label values are known
// upfront, so they are exported as zero before anything is recorded.
func preloadLabelValues(m *Metrics) {
	var (
		alertValues          = alertTypesAsString()
		boolValues           = boolValuesAsString()
		cacheResultValues    = cacheResultsAsString()
		responseStatusValues = responseStatusesAsString()
		fetchTypeValues      = storedDataFetchTypesAsString()
		storedErrorValues    = storedDataErrorsAsString()
	)

	preloadLabelValuesForCounter(m.responses, map[string][]string{
		responseStatusLabel: responseStatusValues,
	})

	preloadLabelValuesForCounter(m.alerts, map[string][]string{
		alertLabel: alertValues,
	})

	preloadLabelValuesForHistogram(m.prebidCacheWriteTimer, map[string][]string{
		successLabel: boolValues,
	})

	preloadLabelValuesForCounter(m.categoryCacheResult, map[string][]string{
		cacheResultLabel: cacheResultValues,
	})

	preloadLabelValuesForHistogram(m.storedCategoryFetchTimer, map[string][]string{
		storedDataFetchTypeLabel: fetchTypeValues,
	})

	preloadLabelValuesForCounter(m.storedCategoryErrors, map[string][]string{
		storedDataErrorLabel: storedErrorValues,
	})

	preloadLabelValuesForHistogram(m.storedImpFetchTimer, map[string][]string{
		storedDataFetchTypeLabel: fetchTypeValues,
	})

	preloadLabelValuesForCounter(m.storedImpErrors, map[string][]string{
		storedDataErrorLabel: storedErrorValues,
	})
}

func preloadLabelValuesForCounter(counter *prometheus.CounterVec, labelsWithValues map[string][]string) {
	registerLabelPermutations(labelsWithValues, func(labels prometheus.Labels) {
		counter.With(labels)
	})
}

func preloadLabelValuesForHistogram(histogram *prometheus.HistogramVec, labelsWithValues map[string][]string) {
	registerLabelPermutations(labelsWithValues, func(labels prometheus.Labels) {
		histogram.With(labels)
	})
}

func registerLabelPermutations(labelsWithValues map[string][]string, register func(prometheus.Labels)) {
	if len(labelsWithValues) == 0 {
		return
	}

	keys := make([]string, 0, len(labelsWithValues))
	values := make([][]string, 0, len(labelsWithValues))
	for k, v := range labelsWithValues {
		keys = append(keys, k)
		values = append(values, v)
	}

	labels := prometheus.Labels{}
	registerLabelPermutationsRecursive(0, keys, values, labels, register)
}

func registerLabelPermutationsRecursive(depth int, keys []string, values [][]string, labels prometheus.Labels, register func(prometheus.Labels)) {
	label := keys[depth]
	isLeaf := depth == len(keys)-1

	for _, value := range values[depth] {
		labels[label] = value

		if isLeaf {
			registeredLabels := prometheus.Labels{}
			for k, v := range labels {
				registeredLabels[k] = v
			}
			register(registeredLabels)
		} else {
			registerLabelPermutationsRecursive(depth+1, keys, values, labels, register)
		}
	}
}
