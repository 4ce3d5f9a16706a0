// Package notify implements the send-notification operation: classify the
// kind, resolve its tags from the record, render the three template fields
// and dispatch them over the selected channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/example/pos-notifier/internal/business"
	"github.com/example/pos-notifier/internal/common"
	"github.com/example/pos-notifier/internal/dispatch"
	"github.com/example/pos-notifier/internal/events"
	"github.com/example/pos-notifier/internal/record"
	"github.com/example/pos-notifier/internal/render"
	"github.com/example/pos-notifier/internal/vocabulary"
)

const (
	MsgSent    = "Notification sent successfully"
	MsgPartial = "Notification partially sent"
	MsgFailed  = "Something went wrong, please try again"
)

// Reason codes accompany a failed Result.
const (
	ReasonInvalidRequest = "invalid_request"
	ReasonUnknownKind    = "unknown_kind"
	ReasonNotFound       = "record_not_found"
	ReasonTransport      = "transport_failure"
	ReasonPartial        = "partial_failure"
	ReasonInternal       = "internal_error"
)

var sendCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "notify_send_requests_total",
	Help: "Send-notification operations by message type and result",
}, []string{"message_type", "result"})

type SendRequest struct {
	Kind       vocabulary.Kind
	RecordID   int64
	BusinessID int64
	ToEmail    string
	Phone      string
	Subject    string
	EmailBody  string
	SMSBody    string
	Channel    dispatch.Channel
}

type Result struct {
	Success    bool               `json:"success"`
	Message    string             `json:"msg"`
	Reason     string             `json:"reason,omitempty"`
	DispatchID string             `json:"dispatch_id,omitempty"`
	Outcomes   []dispatch.Outcome `json:"outcomes,omitempty"`
}

type TagResolver interface {
	Resolve(ctx context.Context, entry vocabulary.Entry, recordID, businessID int64) (*render.TagMap, render.Snapshot, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatch.Request) dispatch.Report
}

type Service struct {
	classifier *vocabulary.Classifier
	resolver   TagResolver
	router     Dispatcher
	templates  TemplateStore
	publisher  events.Publisher
	logger     zerolog.Logger
	newID      func() string
}

func NewService(
	classifier *vocabulary.Classifier,
	resolver TagResolver,
	router Dispatcher,
	templates TemplateStore,
	publisher events.Publisher,
	logger zerolog.Logger,
) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		classifier: classifier,
		resolver:   resolver,
		router:     router,
		templates:  templates,
		publisher:  publisher,
		logger:     common.Component(logger, "notify"),
		newID:      uuid.NewString,
	}
}

// SendNotification never returns an error: every failure is logged and folded
// into a Result with a generic message.
func (s *Service) SendNotification(ctx context.Context, req SendRequest) (res Result) {
	ctx, span := otel.Tracer("notify").Start(ctx, "send-notification")
	defer span.End()

	dispatchID := s.newID()
	span.SetAttributes(
		attribute.String("dispatch.id", dispatchID),
		attribute.String("notification.kind", string(req.Kind)),
		attribute.Int64("business.id", req.BusinessID),
	)
	logger := common.WithContext(ctx, s.logger).With().
		Str("operation", "send_notification").
		Str("dispatch_id", dispatchID).
		Str("kind", string(req.Kind)).
		Int64("record_id", req.RecordID).
		Int64("business_id", req.BusinessID).
		Logger()

	messageType := "unknown"
	defer func() {
		if p := recover(); p != nil {
			logger.Error().Interface("panic", p).Msg("send notification panicked")
			res = Result{Message: MsgFailed, Reason: ReasonInternal, DispatchID: dispatchID}
		}
		sendCounter.WithLabelValues(messageType, resultLabel(res)).Inc()
	}()

	fail := func(reason string, err error) Result {
		span.RecordError(err)
		logger.Error().Err(err).Str("reason", reason).Msg("notification not sent")
		return Result{Message: MsgFailed, Reason: reason, DispatchID: dispatchID}
	}

	if _, err := dispatch.ParseChannel(string(req.Channel)); err != nil {
		return fail(ReasonInvalidRequest, err)
	}

	entry, err := s.classifier.Classify(req.Kind)
	if err != nil {
		return fail(ReasonUnknownKind, err)
	}
	messageType = entry.MessageType.String()

	tags, snap, err := s.resolver.Resolve(ctx, entry, req.RecordID, req.BusinessID)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) || errors.Is(err, business.ErrNotFound) {
			return fail(ReasonNotFound, err)
		}
		return fail(ReasonInternal, err)
	}

	msg := render.RenderMessage(req.Subject, req.EmailBody, req.SMSBody, tags)
	report := s.router.Dispatch(ctx, dispatch.Request{
		DispatchID:  dispatchID,
		Message:     msg,
		MessageType: entry.MessageType,
		Channel:     req.Channel,
		To:          dispatch.Destination{Email: strings.TrimSpace(req.ToEmail), Phone: strings.TrimSpace(req.Phone)},
		Settings:    dispatch.Settings{Email: snap.Profile.Email, SMS: snap.Profile.SMS},
	})

	res = summarize(report)
	res.DispatchID = dispatchID
	if !res.Success {
		span.RecordError(report.Err())
		logger.Error().Err(report.Err()).Str("reason", res.Reason).Msg("notification dispatch failed")
	} else {
		logger.Info().Str("channel", string(req.Channel)).Msg("notification sent")
	}

	if err := s.publisher.Publish(ctx, outcomeEvent(dispatchID, req, res)); err != nil {
		logger.Warn().Err(err).Msg("publish outcome event failed")
	}
	return res
}

func summarize(report dispatch.Report) Result {
	res := Result{Outcomes: report.Outcomes}
	switch {
	case report.Success():
		res.Success = true
		res.Message = MsgSent
	case report.Partial():
		var failed []string
		for _, o := range report.Failed() {
			failed = append(failed, string(o.Medium))
		}
		res.Message = fmt.Sprintf("%s: %s failed", MsgPartial, strings.Join(failed, ", "))
		res.Reason = ReasonPartial
	default:
		res.Message = MsgFailed
		res.Reason = ReasonTransport
		for _, o := range report.Outcomes {
			if !o.Attempted {
				res.Reason = ReasonInvalidRequest
			}
		}
	}
	return res
}

func outcomeEvent(dispatchID string, req SendRequest, res Result) events.Outcome {
	ev := events.Outcome{
		DispatchID: dispatchID,
		BusinessID: req.BusinessID,
		Kind:       string(req.Kind),
		RecordID:   req.RecordID,
		Selection:  string(req.Channel),
		Status:     resultLabel(res),
	}
	for _, o := range res.Outcomes {
		ev.Channels = append(ev.Channels, events.ChannelStatus{
			Channel:   string(o.Medium),
			Attempted: o.Attempted,
			Succeeded: o.Succeeded,
			Error:     o.Error,
		})
	}
	return ev
}

func resultLabel(res Result) string {
	switch {
	case res.Success:
		return "sent"
	case res.Reason == ReasonPartial:
		return "partial"
	default:
		return "failed"
	}
}
