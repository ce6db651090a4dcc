package errors

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// detailPrefix tags safe-detail payloads that carry JSON produced by
// WithReportableDetails, so DecodeReportableDetails can find them again.
const detailPrefix = "__json__:"

// ErrorBuilder chains context onto an error. It is not an error itself;
// the chain ends with Mark, which attaches the sentinel the transport
// layer maps to a status code.
type ErrorBuilder struct {
	err error
}

// NewError starts a chain from a fresh internal message.
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.New(msg)}
}

// WithError starts a chain from an existing error.
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// WithMessage prepends internal context. Never shown to customers.
func (b *ErrorBuilder) WithMessage(msg string) *ErrorBuilder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

// WithHint attaches the customer-facing message.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

// WithHintf attaches a formatted customer-facing message.
func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

// WithReportableDetails attaches structured details that survive into
// the API error envelope, such as per-field validation failures.
func (b *ErrorBuilder) WithReportableDetails(details map[string]any) *ErrorBuilder {
	marshaled, err := json.Marshal(details)
	if err != nil {
		return b
	}
	b.err = errors.WithSafeDetails(b.err, detailPrefix+"%s", errors.Safe(string(marshaled)))
	return b
}

// Mark attaches the sentinel and ends the chain.
func (b *ErrorBuilder) Mark(reference error) error {
	b.err = errors.Mark(b.err, reference)
	return b.err
}

// DecodeReportableDetails collects every detail map attached along the
// error chain via WithReportableDetails. Returns nil when none exist.
func DecodeReportableDetails(err error) map[string]any {
	var details map[string]any

	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			if !strings.HasPrefix(payload, detailPrefix) {
				continue
			}

			var decoded map[string]any
			if json.Unmarshal([]byte(strings.TrimPrefix(payload, detailPrefix)), &decoded) != nil {
				continue
			}

			if details == nil {
				details = make(map[string]any, len(decoded))
			}
			for k, v := range decoded {
				details[k] = v
			}
		}
	}

	return details
}
