package sslident

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/instrumentation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/metric/metricdata/metricdatatest"
	"gotest.tools/v3/assert"
)

func TestVerifierMetrics(t *testing.T) {
	t.Parallel()

	reader := metric.NewManualReader()
	meter := metric.NewMeterProvider(metric.WithReader(reader))

	verifier, err := New(WithMeterProvider(meter))
	assert.NilError(t, err)

	certificate := Certificate{
		Extensions: Extensions{SubjectAltName: "DNS:example.com"},
	}

	matched, err := verifier.Verify("example.com", certificate)
	assert.NilError(t, err)
	assert.Assert(t, matched)

	matched, err = verifier.Verify("example.net", certificate)
	assert.NilError(t, err)
	assert.Assert(t, !matched)

	rm := metricdata.ResourceMetrics{}
	assert.NilError(t, reader.Collect(context.Background(), &rm))
	assert.Assert(t, len(rm.ScopeMetrics) == 1)

	assert.DeepEqual(t, instrumentation.Scope{
		Name:    "github.com/art4/sslident",
		Version: "0.1.0",
	}, rm.ScopeMetrics[0].Scope)

	want := metricdata.Metrics{
		Name: "certificate.verifications",
		Data: metricdata.Sum[int64]{
			Temporality: metricdata.CumulativeTemporality,
			IsMonotonic: true,
			DataPoints: []metricdata.DataPoint[int64]{
				{
					Attributes: attribute.NewSet(
						attribute.String("verification.outcome", "match"),
					),
					Value: 1,
				},
				{
					Attributes: attribute.NewSet(
						attribute.String("verification.outcome", "mismatch"),
					),
					Value: 1,
				},
			},
		},
		Description: "The number of hostname verification verdicts, by outcome.",
		Unit:        "{verification}",
	}

	metricdatatest.AssertEqual(t, want, rm.ScopeMetrics[0].Metrics[0], metricdatatest.IgnoreTimestamp())
}
