package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { RegisterCollectors(reg) })

	FieldOperations.WithLabelValues("rename", "FieldNotFound").Inc()
	require.Equal(t, 1, testutil.CollectAndCount(FieldOperations, "content_field_operations_total"))

	// registering twice on the same registry is a programming error
	require.Panics(t, func() { RegisterCollectors(reg) })
}

func TestRecordsValidatedByOutcome(t *testing.T) {
	before := testutil.ToFloat64(RecordsValidated.WithLabelValues("invalid"))
	RecordsValidated.WithLabelValues("invalid").Add(2)
	require.Equal(t, before+2, testutil.ToFloat64(RecordsValidated.WithLabelValues("invalid")))
}
