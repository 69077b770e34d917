package upload

import (
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	uploads *prometheus.CounterVec
	bytes   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waitlist_logo_uploads_total",
				Help: "Logo upload attempts by outcome.",
			},
			[]string{"result"},
		),
		bytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "waitlist_logo_upload_bytes_total",
				Help: "Bytes written to logo storage.",
			},
		),
	}

	reg.MustRegister(m.uploads, m.bytes)
	return m
}

func (m *Metrics) observe(size int64, err error) {
	if m == nil {
		return
	}
	if err == nil {
		m.uploads.WithLabelValues("stored").Inc()
		m.bytes.Add(float64(size))
		return
	}
	if apperrors.IsType(err, apperrors.ErrorTypeInvalidRequest) {
		m.uploads.WithLabelValues("rejected").Inc()
		return
	}
	m.uploads.WithLabelValues("error").Inc()
}
