package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

var (
	// ErrNoProvidersConfigured is returned when no client has a valid key.
	ErrNoProvidersConfigured = errors.New("no AI providers configured")
	// ErrAllProvidersFailed is returned when every configured client failed.
	ErrAllProvidersFailed = errors.New("all AI providers failed")
)

// Kind classifies a provider failure.
type Kind string

const (
	KindAuth      Kind = "auth"
	KindNetwork   Kind = "network"
	KindTimeout   Kind = "timeout"
	KindUpstream  Kind = "upstream"
	KindMalformed Kind = "malformed"
)

// Error is returned by every Client.Complete failure.
type Error struct {
	Provider string
	Kind     Kind
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s error (status %d): %s", e.Provider, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Provider, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or KindUpstream when err did not
// come from a provider adapter.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUpstream
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindAuth
}

func missingKey(provider string) *Error {
	return &Error{Provider: provider, Kind: KindAuth, Message: "API key not configured"}
}

func statusError(provider string, status int, msg string) *Error {
	kind := KindUpstream
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		kind = KindAuth
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Provider: provider, Kind: kind, Status: status, Message: msg}
}

func malformed(provider, msg string, err error) *Error {
	return &Error{Provider: provider, Kind: KindMalformed, Message: msg, Err: err}
}

// transportError classifies a failure that happened before a status code was
// received. Deadline expiry maps to a timeout, everything else to network.
func transportError(provider string, err error) *Error {
	if isTimeout(err) {
		return &Error{Provider: provider, Kind: KindTimeout, Message: "request timed out", Err: err}
	}
	return &Error{Provider: provider, Kind: KindNetwork, Err: err}
}

// sdkError classifies an error surfaced by a vendor SDK that is neither an
// API status error nor recognizably a transport failure.
func sdkError(provider string, err error) *Error {
	if isTimeout(err) {
		return transportError(provider, err)
	}
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) || errors.Is(err, context.Canceled) {
		return transportError(provider, err)
	}
	return malformed(provider, "unexpected client error", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
