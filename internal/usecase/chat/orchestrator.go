// Package chat turns an inbound chat request into a stream of UI events,
// delegating to a native tool-use driver or a prompt-tooling driver
// depending on the stored credential.
package chat

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"genui-gateway/internal/domain"
	"genui-gateway/internal/infra/tracer"
)

// Request is an inbound chat request.
type Request struct {
	Messages  []domain.ChatMessage `json:"messages"`
	Model     string               `json:"model"`
	WebSearch bool                 `json:"webSearch"`
}

// OrchestratorDeps holds injected dependencies for the orchestrator.
type OrchestratorDeps struct {
	Credentials  domain.CredentialStore
	Drivers      DriverFactory
	Logger       *slog.Logger
	IDs          IDFunc // optional, nil = NewID
	DefaultModel string // used when a request names no model
}

// Orchestrator is the chat entry point.
type Orchestrator struct {
	deps OrchestratorDeps
}

func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	deps.IDs = orDefaultIDs(deps.IDs)
	return &Orchestrator{deps: deps}
}

// Handle validates the request and returns its event stream. Errors are
// returned before any stream exists: ErrAuthMissing or ErrAuthInvalid for
// credential problems, ErrInvalidInput for an empty conversation. The
// stream yields MessageStart, the driver's events, then Done.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (iter.Seq[domain.StreamEvent], error) {
	token, ok := o.deps.Credentials.Load()
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return nil, domain.NewDomainError("Orchestrator.Handle", domain.ErrAuthMissing, "no credential configured")
	}
	if err := o.deps.Credentials.Validate(token); err != nil {
		if !errors.Is(err, domain.ErrAuthInvalid) {
			err = domain.NewDomainError("Orchestrator.Handle", domain.ErrAuthInvalid, err.Error())
		}
		return nil, err
	}

	kind := domain.ClassifyCredential(token)
	driver, err := o.deps.Drivers.For(kind)
	if err != nil {
		return nil, err
	}

	msgs := Normalize(req.Messages)
	if len(msgs) == 0 {
		return nil, domain.NewDomainError("Orchestrator.Handle", domain.ErrInvalidInput, "no messages with text content")
	}

	model := req.Model
	if model == "" {
		model = o.deps.DefaultModel
	}
	in := Input{Credential: token, Model: model, Messages: msgs}

	o.deps.Logger.Info("chat request",
		"driver", driver.Name(),
		"credential", string(kind),
		"model", model,
		"messages", len(msgs),
		"web_search", req.WebSearch,
	)

	return func(yield func(domain.StreamEvent) bool) {
		ctx, span := tracer.StartSpan(ctx, "chat.handle",
			trace.WithAttributes(
				tracer.StringAttr("chat.driver", driver.Name()),
				tracer.StringAttr("llm.model", model),
				tracer.IntAttr("chat.messages", len(msgs)),
			),
		)
		defer span.End()

		out := newSink(yield)
		if !out.emit(domain.MessageStart{MessageID: o.deps.IDs(prefixMessage)}) {
			return
		}
		events := 0
		for ev := range driver.Stream(ctx, in) {
			if !out.emit(ev) {
				return
			}
			events++
		}
		span.SetAttributes(tracer.IntAttr("chat.events", events))
		out.emit(domain.Done{})
		tracer.SetOK(span)
	}, nil
}

// Normalize flattens message parts and drops messages with no text or an
// unknown role.
func Normalize(in []domain.ChatMessage) []domain.Message {
	out := make([]domain.Message, 0, len(in))
	for _, m := range in {
		if !domain.IsValidRole(m.Role) {
			continue
		}
		content := m.Flatten()
		if strings.TrimSpace(content) == "" {
			continue
		}
		out = append(out, domain.Message{Role: m.Role, Content: content})
	}
	return out
}
