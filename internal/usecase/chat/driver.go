package chat

import (
	"context"
	"iter"

	"genui-gateway/internal/domain"
)

// Input is the normalized conversation handed to a driver.
type Input struct {
	Credential string
	Model      string
	Messages   []domain.Message
}

// Driver turns one conversation into a stream of UI events. The sequence
// never yields MessageStart or Done; it ends after Finish or StreamError.
// Stopping iteration early cancels the upstream provider call.
type Driver interface {
	Name() string
	Stream(ctx context.Context, in Input) iter.Seq[domain.StreamEvent]
}

// DriverFactory picks the driver for a credential kind.
type DriverFactory interface {
	For(kind domain.CredentialKind) (Driver, error)
}

// Drivers selects Native for API keys and Prompt for setup tokens.
type Drivers struct {
	Native Driver
	Prompt Driver
}

// For implements DriverFactory.
func (d Drivers) For(kind domain.CredentialKind) (Driver, error) {
	switch kind {
	case domain.CredentialAPIKey:
		if d.Native != nil {
			return d.Native, nil
		}
	case domain.CredentialSetupToken:
		if d.Prompt != nil {
			return d.Prompt, nil
		}
	default:
		return nil, domain.NewDomainError("Drivers.For", domain.ErrAuthInvalid, "unrecognized credential format")
	}
	return nil, domain.NewDomainError("Drivers.For", domain.ErrDisabled, "no driver for "+string(kind))
}

// sink forwards events to yield and remembers when the consumer stopped,
// so yield is never called again after it returned false.
type sink struct {
	yield func(domain.StreamEvent) bool
	ok    bool
}

func newSink(yield func(domain.StreamEvent) bool) *sink {
	return &sink{yield: yield, ok: true}
}

func (s *sink) emit(events ...domain.StreamEvent) bool {
	for _, ev := range events {
		if !s.ok {
			return false
		}
		s.ok = s.yield(ev)
	}
	return s.ok
}
