package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "content"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	FieldOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "field_operations_total", Help: "Field operations executed, by operation and outcome kind."},
		[]string{"operation", "outcome"},
	)
	CoercionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "coercion_failures_total", Help: "Field values that fell back to a default during type coercion."},
		[]string{"type"},
	)

	MigrationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "migration_runs_total", Help: "Migration runs by outcome (clean, dirty, failed, locked)."},
		[]string{"outcome"},
	)
	MigrationModified = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "migration_documents_modified_total", Help: "Documents modified by each migration stage."},
		[]string{"stage"},
	)
	MigrationStageSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "migration_stage_duration_seconds", Help: "Wall time of each migration stage.", Buckets: prometheus.DefBuckets},
		[]string{"stage"},
	)

	LocaleViewsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "locale_views_written_total", Help: "Locale views written by sync, by language."},
		[]string{"language"},
	)
	LocaleInconsistencies = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "locale_inconsistencies_total", Help: "Inconsistencies reported by consistency checks, by kind."},
		[]string{"kind"},
	)

	RecordsValidated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "records_validated_total", Help: "Master records checked by validation, by outcome."},
		[]string{"outcome"},
	)

	SemanticIDs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "semantic_ids_generated_total", Help: "Semantic identifiers generated, by caller."},
		[]string{"source"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(FieldOperations)
	reg.MustRegister(CoercionFailures)
	reg.MustRegister(MigrationRuns)
	reg.MustRegister(MigrationModified)
	reg.MustRegister(MigrationStageSeconds)
	reg.MustRegister(LocaleViewsWritten)
	reg.MustRegister(LocaleInconsistencies)
	reg.MustRegister(RecordsValidated)
	reg.MustRegister(SemanticIDs)
}
