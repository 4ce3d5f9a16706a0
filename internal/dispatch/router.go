// Package dispatch sends a rendered notification over the channels a caller
// selected and reports the outcome of each one.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/example/pos-notifier/internal/common"
)

var (
	sendCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_sends_total",
		Help: "Notification sends by medium and result",
	}, []string{"medium", "status"})
	sendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_send_duration_seconds",
		Help:    "Latency of a single transport send",
		Buckets: prometheus.DefBuckets,
	}, []string{"medium"})
)

type Router struct {
	email  EmailTransport
	sms    SMSTransport
	logger zerolog.Logger
}

func NewRouter(email EmailTransport, sms SMSTransport, logger zerolog.Logger) *Router {
	return &Router{email: email, sms: sms, logger: common.Component(logger, "dispatch")}
}

// Dispatch makes at most one send attempt per selected medium. With
// ChannelBoth the email and SMS sends run concurrently and neither cancels
// the other. Transport errors are logged and reported as ErrTransport.
func (r *Router) Dispatch(ctx context.Context, req Request) Report {
	ctx, span := otel.Tracer("dispatch").Start(ctx, "dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("dispatch.id", req.DispatchID),
		attribute.String("dispatch.channel", string(req.Channel)),
	)

	media := mediaFor(req.Channel)
	report := Report{Channel: req.Channel}
	if len(media) == 0 {
		span.RecordError(ErrUnknownChannel)
		return report
	}

	report.Outcomes = make([]Outcome, len(media))
	var g errgroup.Group
	for i, m := range media {
		g.Go(func() error {
			report.Outcomes[i] = r.send(ctx, m, req)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range report.Outcomes {
		if o.Err != nil {
			span.RecordError(o.Err)
		}
	}
	return report
}

func (r *Router) send(ctx context.Context, m Medium, req Request) (out Outcome) {
	out = Outcome{Medium: m}
	logger := common.WithContext(ctx, r.logger).With().
		Str("operation", "send").
		Str("channel", string(m)).
		Str("dispatch_id", req.DispatchID).
		Logger()

	if err := precheck(m, req); err != nil {
		out.Err = err
		out.Error = err.Error()
		sendCounter.WithLabelValues(string(m), "rejected").Inc()
		logger.Warn().Err(err).Msg("send skipped")
		return out
	}

	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("%w: panic: %v", ErrTransport, p)
			out.Succeeded = false
			out.Err = err
			out.Error = ErrTransport.Error()
			sendCounter.WithLabelValues(string(m), "error").Inc()
			logger.Error().Err(err).Msg("transport panicked")
		}
	}()

	out.Attempted = true
	start := time.Now()
	var err error
	switch m {
	case MediumEmail:
		err = r.email.SendEmail(ctx, req.Settings.Email, Email{
			To:           req.To.Email,
			Subject:      req.Message.Subject,
			Body:         req.Message.EmailBody,
			Presentation: req.MessageType,
		})
	case MediumSMS:
		err = r.sms.SendSMS(ctx, req.Settings.SMS, req.To.Phone, req.Message.SMSBody)
	}
	sendLatency.WithLabelValues(string(m)).Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Error().Err(err).Msg("transport send failed")
		out.Err = fmt.Errorf("%w: %v", ErrTransport, err)
		out.Error = ErrTransport.Error()
		sendCounter.WithLabelValues(string(m), "error").Inc()
		return out
	}
	out.Succeeded = true
	sendCounter.WithLabelValues(string(m), "ok").Inc()
	return out
}

func precheck(m Medium, req Request) error {
	switch m {
	case MediumEmail:
		if strings.TrimSpace(req.To.Email) == "" {
			return ErrMissingEmail
		}
	case MediumSMS:
		if strings.TrimSpace(req.To.Phone) == "" {
			return ErrMissingPhone
		}
		if !req.Settings.SMS.Configured() {
			return ErrSMSNotConfigured
		}
	}
	return nil
}
