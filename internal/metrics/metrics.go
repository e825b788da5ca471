// Package metrics records check-in counters through the OpenTelemetry metric API.
// Without a host-installed meter provider the counters are no-ops.
package metrics

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/thebtf/emocheck/pkg/models"
)

// MeterName is the instrumentation scope of all check-in instruments.
const MeterName = "emocheck"

// Recorder holds the check-in counters. A nil *Recorder records nothing.
type Recorder struct {
	sessionsStarted  metric.Int64Counter
	featuresRecorded metric.Int64Counter
	policyViolations metric.Int64Counter
	alertsEmitted    metric.Int64Counter
}

// New creates a recorder on the global meter provider.
func New() *Recorder {
	return NewWithMeter(otel.Meter(MeterName))
}

// NewWithMeter creates a recorder on meter. Instruments that fail to register
// are logged and left as no-ops.
func NewWithMeter(meter metric.Meter) *Recorder {
	return &Recorder{
		sessionsStarted:  counter(meter, "checkin.sessions.started", "Check-in sessions started"),
		featuresRecorded: counter(meter, "checkin.features.recorded", "Feature completions recorded"),
		policyViolations: counter(meter, "checkin.policy.violations", "Features rejected for the session age"),
		alertsEmitted:    counter(meter, "checkin.alerts.emitted", "Clinical alerts raised"),
	}
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("{count}"))
	if err != nil {
		log.Warn().Err(err).Str("instrument", name).Msg("Failed to create counter")
		return nil
	}
	return c
}

// SessionStarted counts a new session.
func (r *Recorder) SessionStarted(ctx context.Context) {
	if r == nil || r.sessionsStarted == nil {
		return
	}
	r.sessionsStarted.Add(ctx, 1)
}

// FeatureRecorded counts a feature completion.
func (r *Recorder) FeatureRecorded(ctx context.Context, f models.FeatureID) {
	if r == nil || r.featuresRecorded == nil {
		return
	}
	r.featuresRecorded.Add(ctx, 1, metric.WithAttributes(attribute.String("feature", string(f))))
}

// PolicyViolation counts a feature rejected by the age policy.
func (r *Recorder) PolicyViolation(ctx context.Context, f models.FeatureID) {
	if r == nil || r.policyViolations == nil {
		return
	}
	r.policyViolations.Add(ctx, 1, metric.WithAttributes(attribute.String("feature", string(f))))
}

// AlertsEmitted counts alerts by level.
func (r *Recorder) AlertsEmitted(ctx context.Context, alerts []models.ClinicalAlert) {
	if r == nil || r.alertsEmitted == nil {
		return
	}
	for _, a := range alerts {
		r.alertsEmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("level", string(a.Level))))
	}
}
