package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"tradevision/internal/domain/models"
	"tradevision/internal/domain/repository"
)

// Reason identifies why an inbound event was rejected.
type Reason string

const (
	ReasonBadSignature     Reason = "bad_signature"
	ReasonStaleOrFuture    Reason = "stale_or_future"
	ReasonSymbolNotAllowed Reason = "symbol_not_allowed"
	ReasonBadTimeframe     Reason = "bad_timeframe"
)

// RejectionError reports a failed validation check. Rejections happen before
// any write and are client errors, not server failures.
type RejectionError struct {
	Reason Reason
	Detail string
}

func (e *RejectionError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// DefaultTolerance bounds how far an event timestamp may drift from now.
const DefaultTolerance = 10 * time.Minute

// Validator authenticates and sanity-checks inbound webhook events. All
// checks are pure; order is signature, freshness, symbol, timeframe,
// short-circuiting on the first failure.
type Validator struct {
	secret    []byte
	tolerance time.Duration
	allowed   map[string]struct{}
	now       func() time.Time
}

// Option configures Validator.
type Option func(*Validator)

// WithTolerance sets the freshness window.
func WithTolerance(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.tolerance = d
		}
	}
}

// WithClock overrides the time source. Tests only.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

// NewValidator creates a validator for the given shared secret and symbol
// allow-list. Allow-list membership is case-insensitive.
func NewValidator(secret string, allowedSymbols []string, opts ...Option) *Validator {
	v := &Validator{
		secret:    []byte(secret),
		tolerance: DefaultTolerance,
		allowed:   make(map[string]struct{}, len(allowedSymbols)),
		now:       time.Now,
	}
	for _, sym := range allowedSymbols {
		v.allowed[strings.ToUpper(strings.TrimSpace(sym))] = struct{}{}
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs the full check chain over the raw request body, its
// signature header and the decoded event.
func (v *Validator) Validate(body []byte, signature string, ev models.WebhookEvent) error {
	if err := v.VerifySignature(body, signature); err != nil {
		return err
	}
	return v.ValidateEvent(ev)
}

// VerifySignature checks the HMAC-SHA256 hex signature over the exact raw
// body bytes using a constant-time comparison.
func (v *Validator) VerifySignature(body []byte, signature string) error {
	if signature == "" {
		return &RejectionError{Reason: ReasonBadSignature, Detail: "missing signature"}
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return &RejectionError{Reason: ReasonBadSignature, Detail: "signature mismatch"}
	}
	return nil
}

// ValidateEvent runs the signature-independent checks: freshness, symbol
// membership and timeframe membership.
func (v *Validator) ValidateEvent(ev models.WebhookEvent) error {
	nowMs := v.now().UnixMilli()
	if drift := nowMs - ev.TS; drift > v.tolerance.Milliseconds() || -drift > v.tolerance.Milliseconds() {
		return &RejectionError{
			Reason: ReasonStaleOrFuture,
			Detail: fmt.Sprintf("timestamp %d outside tolerance", ev.TS),
		}
	}

	if _, ok := v.allowed[strings.ToUpper(ev.Symbol)]; !ok {
		return &RejectionError{
			Reason: ReasonSymbolNotAllowed,
			Detail: fmt.Sprintf("symbol %q not in allow-list", ev.Symbol),
		}
	}

	if !repository.IsValidTimeframe(repository.Timeframe(ev.TF)) {
		return &RejectionError{
			Reason: ReasonBadTimeframe,
			Detail: fmt.Sprintf("unsupported timeframe %q", ev.TF),
		}
	}

	return nil
}

// Sign computes the hex HMAC-SHA256 signature of a body. Exposed for the
// demo generator and tests to produce valid requests.
func (v *Validator) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
