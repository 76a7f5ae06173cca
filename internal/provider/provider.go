// Package provider defines the quote-adapter abstraction: a uniform Adapter
// interface over external quote sources, the typed Failure taxonomy every
// adapter reports through, and a registry that maps asset classes to ordered
// adapter chains.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/seenimoa/quotechat/pkg/models"
)

// FailureKind classifies why an adapter could not answer.
type FailureKind int

const (
	// FailureUnsupported: the instrument is outside the adapter's declared set.
	FailureUnsupported FailureKind = iota + 1
	// FailureNetwork: transport error, timeout or unexpected HTTP status.
	FailureNetwork
	// FailureMalformed: the response did not have the documented shape.
	FailureMalformed
	// FailureRateLimited: the provider (or our own limiter) refused the call.
	FailureRateLimited
)

func (k FailureKind) String() string {
	switch k {
	case FailureUnsupported:
		return "unsupported"
	case FailureNetwork:
		return "network"
	case FailureMalformed:
		return "malformed"
	case FailureRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Failure is the typed error returned by adapters for every ordinary failure
// mode. It is never shown to end users.
type Failure struct {
	Provider string
	Kind     FailureKind
	Err      error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Provider, f.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", f.Provider, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// NewFailure builds a Failure of the given kind.
func NewFailure(provider string, kind FailureKind, err error) *Failure {
	return &Failure{Provider: provider, Kind: kind, Err: err}
}

// Unsupported builds an Unsupported failure with a formatted reason.
func Unsupported(provider, format string, args ...any) *Failure {
	return &Failure{Provider: provider, Kind: FailureUnsupported, Err: fmt.Errorf(format, args...)}
}

// Malformed builds a Malformed failure with a formatted reason.
func Malformed(provider, format string, args ...any) *Failure {
	return &Failure{Provider: provider, Kind: FailureMalformed, Err: fmt.Errorf(format, args...)}
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsUnsupported reports whether err is an Unsupported failure.
func IsUnsupported(err error) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == FailureUnsupported
}

// Credential describes a credential an adapter needs.
type Credential struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	EnvVar      string `json:"env_var"`
}

// AdapterInfo holds metadata about a registered adapter.
type AdapterInfo struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Website     string              `json:"website"`
	Classes     []models.AssetClass `json:"asset_classes"`
	Credentials []Credential        `json:"credentials,omitempty"`
}

// Adapter is the uniform interface to one external quote source.
//
// Fetch makes at most one outbound call and must report ordinary failures
// (unknown symbol, non-2xx status, bad payload) as *Failure. Instruments
// outside the adapter's declared set fail with FailureUnsupported before any
// network I/O. On success the returned quote carries Instrument, Price and,
// when the source has it, ChangePercent24h; the resolver fills the rest.
type Adapter interface {
	Info() AdapterInfo
	Supports(inst models.Instrument) bool
	Fetch(ctx context.Context, inst models.Instrument) (*models.Quote, error)
}
