package sender

import (
	"context"
	"errors"
	"net"
	"strings"
)

// SendError is a classified delivery failure. Temporary failures are
// retried by the queue with backoff; permanent ones never are.
type SendError struct {
	Code      string
	Message   string
	Temporary bool
}

func (e *SendError) Error() string {
	return e.Message
}

const (
	CodeSuppressed        = "suppressed"
	CodeSuppressionLookup = "suppression_lookup_failed"
	CodeTimeout           = "timeout"
	CodeConnection        = "connection"
	CodeDNS               = "dns"
	CodeRateLimited       = "rate_limited"
	CodeAuth              = "auth"
	CodeInvalidRecipient  = "invalid_recipient"
	CodeMailboxBlocked    = "mailbox_blocked"
	CodeBlacklisted       = "blacklisted"
	CodeUnknown           = "unknown"
)

// Pattern tables. Permanent patterns win over temporary ones: an error that
// looks certainly doomed must not loop through the retry schedule.
var permanentPatterns = []struct {
	substr string
	code   string
}{
	{"authentication failed", CodeAuth},
	{"auth failed", CodeAuth},
	{"invalid credentials", CodeAuth},
	{"username and password not accepted", CodeAuth},
	{"invalid recipient", CodeInvalidRecipient},
	{"no such user", CodeInvalidRecipient},
	{"user unknown", CodeInvalidRecipient},
	{"does not exist", CodeInvalidRecipient},
	{"mailbox full", CodeMailboxBlocked},
	{"mailbox unavailable", CodeMailboxBlocked},
	{"blocked", CodeMailboxBlocked},
	{"blacklist", CodeBlacklisted},
	{"spamhaus", CodeBlacklisted},
}

var temporaryPatterns = []struct {
	substr string
	code   string
}{
	{"timeout", CodeTimeout},
	{"timed out", CodeTimeout},
	{"deadline exceeded", CodeTimeout},
	{"connection reset", CodeConnection},
	{"connection refused", CodeConnection},
	{"broken pipe", CodeConnection},
	{"no such host", CodeDNS},
	{"dns", CodeDNS},
	{"rate limit", CodeRateLimited},
	{"too many", CodeRateLimited},
	{"try again", CodeRateLimited},
	{"temporarily", CodeRateLimited},
}

// Classify maps a transport error to a SendError. Already-classified errors
// pass through. Anything that does not match a known-permanent pattern
// defaults to temporary, so an ambiguous failure gets its retries.
func Classify(err error) *SendError {
	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return sendErr
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	for _, p := range permanentPatterns {
		if strings.Contains(lower, p.substr) {
			return &SendError{Code: p.code, Message: msg, Temporary: false}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &SendError{Code: CodeTimeout, Message: msg, Temporary: true}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &SendError{Code: CodeTimeout, Message: msg, Temporary: true}
	}

	for _, p := range temporaryPatterns {
		if strings.Contains(lower, p.substr) {
			return &SendError{Code: p.code, Message: msg, Temporary: true}
		}
	}

	return &SendError{Code: CodeUnknown, Message: msg, Temporary: true}
}

// IsTemporary reports whether the error should be retried.
func IsTemporary(err error) bool {
	return Classify(err).Temporary
}
