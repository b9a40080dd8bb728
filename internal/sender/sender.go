// Package sender wraps a single delivery attempt: suppression lookup,
// transport call with a timeout, and classification of the outcome into
// temporary and permanent failures. The queue's retry rule keys on that
// classification.
package sender

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/coldpilot/coldpilot-backend/internal/repository"
)

// Message is a fully-formed email ready for one delivery attempt.
type Message struct {
	From     string
	FromName string
	To       string
	Subject  string
	Body     string
	HTMLBody string
}

// Credentials are the SMTP transport credentials of one sending account.
type Credentials struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Result is returned on a successful delivery attempt.
type Result struct {
	MessageID string
}

// Transport performs the actual delivery. Implementations must honor ctx
// cancellation.
type Transport interface {
	Deliver(ctx context.Context, msg Message, creds Credentials) (messageID string, err error)
}

type Executor struct {
	Transport    Transport
	Suppressions repository.SuppressionRepositoryInterface
	Timeout      time.Duration
	Logger       *zap.SugaredLogger
}

func NewExecutor(transport Transport, suppressions repository.SuppressionRepositoryInterface, timeout time.Duration, logger *zap.SugaredLogger) *Executor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Executor{Transport: transport, Suppressions: suppressions, Timeout: timeout, Logger: logger}
}

// Send performs one delivery attempt. A suppressed recipient fails
// permanently without touching the transport. All failures come back as
// *SendError so callers can branch on Temporary.
func (e *Executor) Send(ctx context.Context, msg Message, creds Credentials) (*Result, error) {
	suppressed, err := e.Suppressions.IsSuppressed(ctx, msg.To)
	if err != nil {
		return nil, &SendError{Code: CodeSuppressionLookup, Message: err.Error(), Temporary: true}
	}
	if suppressed {
		e.Logger.Infow("recipient suppressed, not sending", "recipient", msg.To)
		return nil, &SendError{Code: CodeSuppressed, Message: "recipient is on the suppression list", Temporary: false}
	}

	sendCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	messageID, err := e.Transport.Deliver(sendCtx, msg, creds)
	if err != nil {
		classified := Classify(err)
		e.Logger.Warnw("delivery attempt failed",
			"recipient", msg.To, "code", classified.Code, "temporary", classified.Temporary, "err", err)
		return nil, classified
	}

	return &Result{MessageID: messageID}, nil
}
