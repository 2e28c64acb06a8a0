package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"loadgate/internal/logging"
	"loadgate/internal/notifications"
	"loadgate/internal/publish"
	"loadgate/internal/services"
	"loadgate/internal/trigger"
)

const (
	StageEvaluate = "evaluate"
	StagePublish  = "publish"
	StageDispatch = "dispatch"

	tracerName = "loadgate/internal/pipeline"
)

// Dispatcher sends the deploy notification. *dispatch.Client satisfies it.
type Dispatcher interface {
	Send(ctx context.Context, version string) error
}

// Outcome summarizes one run. Version is set once publish succeeds, even if
// the dispatch afterwards fails.
type Outcome struct {
	Triggered     bool             `json:"triggered"`
	Decision      trigger.Decision `json:"decision"`
	Version       string           `json:"version,omitempty"`
	CorrelationID string           `json:"correlation_id"`
}

// Option configures a Runner.
type Option func(*Runner)

// WithPublisher sets the delegate and the request it is invoked with.
func WithPublisher(delegate publish.Delegate, req publish.Request) Option {
	return WithPublisherFunc(func() (publish.Delegate, error) { return delegate, nil }, req)
}

// WithPublisherFunc defers building the delegate until a run triggers, so a
// skipped run never needs publish configuration.
func WithPublisherFunc(fn func() (publish.Delegate, error), req publish.Request) Option {
	return func(r *Runner) {
		r.newDelegate = fn
		r.request = req
	}
}

// WithDispatcher sets the deploy notifier.
func WithDispatcher(d Dispatcher) Option {
	return WithDispatcherFunc(func() (Dispatcher, error) { return d, nil })
}

// WithDispatcherFunc defers building the dispatcher until a run triggers.
func WithDispatcherFunc(fn func() (Dispatcher, error)) Option {
	return func(r *Runner) {
		r.newDispatcher = fn
	}
}

// WithNotifier sets the outcome notification service.
func WithNotifier(n notifications.Service) Option {
	return func(r *Runner) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRepository records the dispatch target for notifications.
func WithRepository(repo string) Option {
	return func(r *Runner) {
		r.repository = repo
	}
}

// Runner sequences evaluate, publish, and dispatch. It holds no state between
// runs.
type Runner struct {
	rule          trigger.Rule
	newDelegate   func() (publish.Delegate, error)
	request       publish.Request
	newDispatcher func() (Dispatcher, error)
	notifier      notifications.Service
	repository    string
	logger        *slog.Logger
}

// NewRunner constructs a Runner gated on rule.
func NewRunner(rule trigger.Rule, opts ...Option) *Runner {
	r := &Runner{
		rule:     rule,
		notifier: notifications.NewService(nil),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates event and, when it triggers, publishes and dispatches. A
// false predicate is not an error. Both collaborators are resolved before
// publishing, and a publish failure stops the run before any dispatch.
func (r *Runner) Run(ctx context.Context, event trigger.Event) (Outcome, error) {
	correlationID := uuid.NewString()
	ctx = services.WithRequestID(ctx, correlationID)
	ctx = services.WithPullRequest(ctx, event.PullRequest.Number)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "loadgate.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("loadgate.correlation_id", correlationID),
		attribute.String("github.event.action", event.Action),
	)

	outcome := Outcome{CorrelationID: correlationID}
	outcome.Decision = r.Evaluate(ctx, event)
	outcome.Triggered = outcome.Decision.Triggered
	span.SetAttributes(attribute.Bool("loadgate.triggered", outcome.Triggered))
	if !outcome.Triggered {
		return outcome, nil
	}

	delegate, err := r.delegate()
	if err != nil {
		r.recordFailure(ctx, span, StagePublish, err)
		return outcome, fmt.Errorf("%s: %w", StagePublish, err)
	}
	dispatcher, err := r.dispatcher()
	if err != nil {
		r.recordFailure(ctx, span, StageDispatch, err)
		return outcome, fmt.Errorf("%s: %w", StageDispatch, err)
	}

	version, err := r.publishWith(ctx, delegate)
	if err != nil {
		r.recordFailure(ctx, span, StagePublish, err)
		return outcome, fmt.Errorf("%s: %w", StagePublish, err)
	}
	outcome.Version = version

	if err := r.dispatchWith(ctx, dispatcher, version); err != nil {
		r.recordFailure(ctx, span, StageDispatch, err)
		return outcome, fmt.Errorf("%s: %w", StageDispatch, err)
	}

	payload := notifications.Payload{
		"version":    version,
		"repository": r.repository,
	}
	if event.PullRequest.Number > 0 {
		payload["pull_request"] = event.PullRequest.Number
	}
	r.notify(ctx, notifications.EventDispatched, payload)
	return outcome, nil
}

// Evaluate applies the rule and logs the decision.
func (r *Runner) Evaluate(ctx context.Context, event trigger.Event) trigger.Decision {
	ctx = services.WithStage(ctx, StageEvaluate)
	logger := r.stageLogger(ctx, StageEvaluate)

	decision := trigger.Evaluate(r.rule, event)
	logger.Info("trigger evaluated",
		logging.String(logging.FieldEventType, "trigger_evaluated"),
		logging.Bool("triggered", decision.Triggered),
		logging.String("action", decision.Action),
		logging.String("reason", decision.Reason),
	)
	return decision
}

// Publish runs the delegate and returns the version it reports.
func (r *Runner) Publish(ctx context.Context) (string, error) {
	delegate, err := r.delegate()
	if err != nil {
		return "", err
	}
	return r.publishWith(ctx, delegate)
}

// Dispatch sends exactly one deploy notification for version.
func (r *Runner) Dispatch(ctx context.Context, version string) error {
	dispatcher, err := r.dispatcher()
	if err != nil {
		return err
	}
	return r.dispatchWith(ctx, dispatcher, version)
}

func (r *Runner) delegate() (publish.Delegate, error) {
	if r.newDelegate == nil {
		return nil, services.Wrap(services.ErrConfiguration, StagePublish, "configure", "no publish delegate configured", nil)
	}
	delegate, err := r.newDelegate()
	if err != nil {
		return nil, err
	}
	if delegate == nil {
		return nil, services.Wrap(services.ErrConfiguration, StagePublish, "configure", "no publish delegate configured", nil)
	}
	return delegate, nil
}

func (r *Runner) dispatcher() (Dispatcher, error) {
	if r.newDispatcher == nil {
		return nil, services.Wrap(services.ErrConfiguration, StageDispatch, "configure", "no dispatcher configured", nil)
	}
	dispatcher, err := r.newDispatcher()
	if err != nil {
		return nil, err
	}
	if dispatcher == nil {
		return nil, services.Wrap(services.ErrConfiguration, StageDispatch, "configure", "no dispatcher configured", nil)
	}
	return dispatcher, nil
}

func (r *Runner) publishWith(ctx context.Context, delegate publish.Delegate) (string, error) {
	ctx = services.WithStage(ctx, StagePublish)
	logger := r.stageLogger(ctx, StagePublish)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "loadgate.publish")
	defer span.End()

	started := time.Now()
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	result, err := delegate.Publish(ctx, r.request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.String("loadgate.version", result.Version))
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("version", result.Version),
		logging.Duration("stage_duration", time.Since(started).Round(time.Millisecond)),
	)
	return result.Version, nil
}

func (r *Runner) dispatchWith(ctx context.Context, dispatcher Dispatcher, version string) error {
	ctx = services.WithStage(ctx, StageDispatch)
	logger := r.stageLogger(ctx, StageDispatch)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "loadgate.dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("loadgate.version", version))

	started := time.Now()
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	if err := dispatcher.Send(ctx, version); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("version", version),
		logging.Duration("stage_duration", time.Since(started).Round(time.Millisecond)),
	)
	return nil
}

func (r *Runner) stageLogger(ctx context.Context, stage string) *slog.Logger {
	return logging.WithContext(ctx, logging.NewComponentLogger(r.logger, stage))
}

func (r *Runner) recordFailure(ctx context.Context, span trace.Span, stage string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	logger := r.stageLogger(services.WithStage(ctx, stage), stage)
	if errors.Is(err, context.Canceled) {
		logger.Debug("run interrupted")
		return
	}
	logging.ErrorWithContext(
		logger,
		"stage failed",
		"stage_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, services.Hint(err)),
	)
	r.notify(ctx, notifications.EventFailed, notifications.Payload{
		"stage": stage,
		"error": err,
	})
}

func (r *Runner) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := r.notifier.Publish(ctx, event, payload); err != nil {
		if errors.Is(err, context.Canceled) {
			r.logger.Debug("run canceled, could not send notification")
			return
		}
		r.logger.Warn("notification failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "notification_failed"),
			logging.String("notification", string(event)),
		)
	}
}
