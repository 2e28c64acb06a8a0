package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"loadgate/internal/logging"
	"loadgate/internal/notifications"
	"loadgate/internal/pipeline"
	"loadgate/internal/publish"
	"loadgate/internal/services"
	"loadgate/internal/trigger"
)

type stubDelegate struct {
	calls   int
	request publish.Request
	result  publish.Result
	err     error
}

func (s *stubDelegate) Publish(_ context.Context, req publish.Request) (publish.Result, error) {
	s.calls++
	s.request = req
	return s.result, s.err
}

type stubDispatcher struct {
	calls    int
	versions []string
	err      error
	stage    string
	reqID    string
}

func (s *stubDispatcher) Send(ctx context.Context, version string) error {
	s.calls++
	s.versions = append(s.versions, version)
	s.stage, _ = services.StageFromContext(ctx)
	s.reqID, _ = services.RequestIDFromContext(ctx)
	return s.err
}

type recordedNotification struct {
	event   notifications.Event
	payload notifications.Payload
}

type stubNotifier struct {
	sent []recordedNotification
	err  error
}

func (s *stubNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	s.sent = append(s.sent, recordedNotification{event: event, payload: payload})
	return s.err
}

func labeledEvent(label string) trigger.Event {
	return trigger.Event{
		Action:      trigger.ActionLabeled,
		Label:       &trigger.Label{Name: label},
		PullRequest: trigger.PullRequest{Number: 42},
	}
}

func TestRunSkipsWhenNotTriggered(t *testing.T) {
	delegate := &stubDelegate{result: publish.Result{Version: "1.2.3"}}
	dispatcher := &stubDispatcher{}
	notifier := &stubNotifier{}
	runner := pipeline.NewRunner(trigger.DefaultRule(),
		pipeline.WithPublisher(delegate, publish.Request{}),
		pipeline.WithDispatcher(dispatcher),
		pipeline.WithNotifier(notifier),
	)

	outcome, err := runner.Run(context.Background(), labeledEvent("docs"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.Triggered {
		t.Fatal("expected not triggered")
	}
	if outcome.CorrelationID == "" {
		t.Fatal("expected correlation id")
	}
	if delegate.calls != 0 || dispatcher.calls != 0 {
		t.Fatalf("expected no publish or dispatch, got %d/%d", delegate.calls, dispatcher.calls)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("expected no notifications, got %d", len(notifier.sent))
	}
}

func TestRunPublishesThenDispatches(t *testing.T) {
	req := publish.Request{
		Prefix: "load-test-",
		Credentials: []publish.Credential{
			{Env: "REGISTRY_USERNAME", Value: "user"},
			{Env: "REGISTRY_PASSWORD", Value: "pass"},
		},
	}
	delegate := &stubDelegate{result: publish.Result{Version: "1.2.3"}}
	dispatcher := &stubDispatcher{}
	notifier := &stubNotifier{}
	runner := pipeline.NewRunner(trigger.DefaultRule(),
		pipeline.WithPublisher(delegate, req),
		pipeline.WithDispatcher(dispatcher),
		pipeline.WithNotifier(notifier),
		pipeline.WithRepository("saleor/saleor-multitenant"),
	)

	outcome, err := runner.Run(context.Background(), labeledEvent("load test"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !outcome.Triggered || outcome.Version != "1.2.3" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if delegate.calls != 1 || delegate.request.Prefix != "load-test-" || len(delegate.request.Credentials) != 2 {
		t.Fatalf("unexpected publish call: %d %+v", delegate.calls, delegate.request)
	}
	if dispatcher.calls != 1 || dispatcher.versions[0] != "1.2.3" {
		t.Fatalf("unexpected dispatch calls %v", dispatcher.versions)
	}
	if dispatcher.stage != pipeline.StageDispatch {
		t.Fatalf("expected dispatch stage in context, got %q", dispatcher.stage)
	}
	if dispatcher.reqID != outcome.CorrelationID {
		t.Fatalf("expected correlation id %q in context, got %q", outcome.CorrelationID, dispatcher.reqID)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].event != notifications.EventDispatched {
		t.Fatalf("expected one dispatched notification, got %+v", notifier.sent)
	}
	if got := notifier.sent[0].payload["version"]; got != "1.2.3" {
		t.Fatalf("unexpected notification version %v", got)
	}
}

func TestRunDispatchedNotificationPullRequest(t *testing.T) {
	tests := []struct {
		name   string
		number int
		want   any
		exists bool
	}{
		{name: "numbered", number: 42, want: 42, exists: true},
		{name: "missing number", number: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &stubNotifier{}
			runner := pipeline.NewRunner(trigger.DefaultRule(),
				pipeline.WithPublisher(&stubDelegate{result: publish.Result{Version: "1.2.3"}}, publish.Request{}),
				pipeline.WithDispatcher(&stubDispatcher{}),
				pipeline.WithNotifier(notifier),
			)
			event := labeledEvent("load test")
			event.PullRequest.Number = tt.number

			if _, err := runner.Run(context.Background(), event); err != nil {
				t.Fatalf("Run returned error: %v", err)
			}
			if len(notifier.sent) != 1 {
				t.Fatalf("expected one notification, got %+v", notifier.sent)
			}
			got, ok := notifier.sent[0].payload["pull_request"]
			if ok != tt.exists || got != tt.want {
				t.Fatalf("pull_request = %v (present %v), want %v (present %v)", got, ok, tt.want, tt.exists)
			}
		})
	}
}

func TestRunPublishFailureSkipsDispatch(t *testing.T) {
	publishErr := services.Wrap(services.ErrExternalTool, "publish", "run", "build failed", nil)
	delegate := &stubDelegate{err: publishErr}
	dispatcher := &stubDispatcher{}
	notifier := &stubNotifier{}
	runner := pipeline.NewRunner(trigger.DefaultRule(),
		pipeline.WithPublisher(delegate, publish.Request{}),
		pipeline.WithDispatcher(dispatcher),
		pipeline.WithNotifier(notifier),
	)

	outcome, err := runner.Run(context.Background(), labeledEvent("load test"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "publish: ") {
		t.Fatalf("expected stage prefix, got %q", err.Error())
	}
	if !outcome.Triggered || outcome.Version != "" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if dispatcher.calls != 0 {
		t.Fatalf("dispatch must not run after publish failure, got %d calls", dispatcher.calls)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].event != notifications.EventFailed {
		t.Fatalf("expected failure notification, got %+v", notifier.sent)
	}
	if notifier.sent[0].payload["stage"] != pipeline.StagePublish {
		t.Fatalf("unexpected failure stage %v", notifier.sent[0].payload["stage"])
	}
}

func TestRunDispatchFailureKeepsVersion(t *testing.T) {
	dispatchErr := services.Wrap(services.ErrRemote, "dispatch", "send", "", errors.New("422"))
	delegate := &stubDelegate{result: publish.Result{Version: "1.2.3"}}
	dispatcher := &stubDispatcher{err: dispatchErr}
	notifier := &stubNotifier{}
	runner := pipeline.NewRunner(trigger.DefaultRule(),
		pipeline.WithPublisher(delegate, publish.Request{}),
		pipeline.WithDispatcher(dispatcher),
		pipeline.WithNotifier(notifier),
	)

	outcome, err := runner.Run(context.Background(), labeledEvent("load test"))
	if !errors.Is(err, services.ErrRemote) {
		t.Fatalf("expected ErrRemote, got %v", err)
	}
	if outcome.Version != "1.2.3" {
		t.Fatalf("expected version preserved, got %q", outcome.Version)
	}
	if dispatcher.calls != 1 {
		t.Fatalf("expected one dispatch attempt, got %d", dispatcher.calls)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].event != notifications.EventFailed {
		t.Fatalf("expected failure notification, got %+v", notifier.sent)
	}
}

func TestRunNotificationErrorDoesNotFailRun(t *testing.T) {
	runner := pipeline.NewRunner(trigger.DefaultRule(),
		pipeline.WithPublisher(&stubDelegate{result: publish.Result{Version: "1.2.3"}}, publish.Request{}),
		pipeline.WithDispatcher(&stubDispatcher{}),
		pipeline.WithNotifier(&stubNotifier{err: errors.New("ntfy down")}),
	)
	if _, err := runner.Run(context.Background(), labeledEvent("load test")); err != nil {
		t.Fatalf("expected notification failure to be ignored, got %v", err)
	}
}

func TestRunCanceledSkipsFailureNotification(t *testing.T) {
	notifier := &stubNotifier{}
	runner := pipeline.NewRunner(trigger.DefaultRule(),
		pipeline.WithPublisher(&stubDelegate{err: context.Canceled}, publish.Request{}),
		pipeline.WithDispatcher(&stubDispatcher{}),
		pipeline.WithNotifier(notifier),
	)
	_, err := runner.Run(context.Background(), labeledEvent("load test"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("expected no notification on cancellation, got %+v", notifier.sent)
	}
}

func TestRunMissingCollaboratorsAreConfigurationErrors(t *testing.T) {
	runner := pipeline.NewRunner(trigger.DefaultRule())
	_, err := runner.Run(context.Background(), labeledEvent("load test"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration without delegate, got %v", err)
	}

	runner = pipeline.NewRunner(trigger.DefaultRule(),
		pipeline.WithPublisher(&stubDelegate{result: publish.Result{Version: "1.2.3"}}, publish.Request{}),
	)
	_, err = runner.Run(context.Background(), labeledEvent("load test"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration without dispatcher, got %v", err)
	}
}

func TestRunLogsCorrelationIDOnEveryStage(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New returned error: %v", err)
	}
	runner := pipeline.NewRunner(trigger.DefaultRule(),
		pipeline.WithPublisher(&stubDelegate{result: publish.Result{Version: "1.2.3"}}, publish.Request{}),
		pipeline.WithDispatcher(&stubDispatcher{}),
		pipeline.WithLogger(logger),
	)

	outcome, err := runner.Run(context.Background(), labeledEvent("load test"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	stages := map[string]bool{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid json log line %q: %v", line, err)
		}
		if entry[logging.FieldCorrelationID] != outcome.CorrelationID {
			t.Fatalf("log line missing correlation id: %q", line)
		}
		if pr, ok := entry[logging.FieldPullRequest].(float64); !ok || pr != 42 {
			t.Fatalf("log line missing pull request number: %q", line)
		}
		if stage, ok := entry[logging.FieldStage].(string); ok {
			stages[stage] = true
		}
	}
	for _, stage := range []string{pipeline.StageEvaluate, pipeline.StagePublish, pipeline.StageDispatch} {
		if !stages[stage] {
			t.Fatalf("expected log lines for stage %s, saw %v", stage, stages)
		}
	}
}

func TestRunDefersCollaboratorsUntilTriggered(t *testing.T) {
	built := 0
	runner := pipeline.NewRunner(trigger.DefaultRule(),
		pipeline.WithPublisherFunc(func() (publish.Delegate, error) {
			built++
			return nil, errors.New("should not build")
		}, publish.Request{}),
		pipeline.WithDispatcherFunc(func() (pipeline.Dispatcher, error) {
			built++
			return nil, errors.New("should not build")
		}),
	)
	if _, err := runner.Run(context.Background(), labeledEvent("docs")); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if built != 0 {
		t.Fatalf("expected no collaborators built for a skipped run, got %d", built)
	}
}

func TestRunDispatcherErrorPreventsPublish(t *testing.T) {
	delegate := &stubDelegate{result: publish.Result{Version: "1.2.3"}}
	tokenErr := services.Wrap(services.ErrConfiguration, "dispatch", "configure", "token is empty", nil)
	runner := pipeline.NewRunner(trigger.DefaultRule(),
		pipeline.WithPublisher(delegate, publish.Request{}),
		pipeline.WithDispatcherFunc(func() (pipeline.Dispatcher, error) { return nil, tokenErr }),
	)
	_, err := runner.Run(context.Background(), labeledEvent("load test"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if delegate.calls != 0 {
		t.Fatalf("publish must not run without a dispatcher, got %d calls", delegate.calls)
	}
}
