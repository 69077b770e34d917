package subscription

import (
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultCreated   = "created"
	resultDuplicate = "duplicate"
	resultNotFound  = "not_found"
	resultInvalid   = "invalid"
	resultError     = "error"
)

type Metrics struct {
	subscriptions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		subscriptions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waitlist_subscriptions_total",
				Help: "Subscription attempts by outcome.",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(m.subscriptions)
	return m
}

func (m *Metrics) observe(err error) {
	if m == nil {
		return
	}
	m.subscriptions.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch apperrors.GetErrorType(err) {
	case "":
		return resultCreated
	case apperrors.ErrorTypeConflict:
		return resultDuplicate
	case apperrors.ErrorTypeNotFound:
		return resultNotFound
	case apperrors.ErrorTypeInvalidRequest:
		return resultInvalid
	default:
		return resultError
	}
}
