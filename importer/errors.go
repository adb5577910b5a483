package importer

import (
	"errors"
	"fmt"
)

// ErrInvalidInput indicates a malformed or disallowed-domain source.
type ErrInvalidInput struct {
	Reason string
}

func (e ErrInvalidInput) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// ErrNetwork indicates a transport failure while fetching a page.
type ErrNetwork struct {
	Err error
}

func (e ErrNetwork) Error() string {
	return fmt.Errorf("network error: %w", e.Err).Error()
}

func (e ErrNetwork) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates the fetch deadline was exceeded.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrBlocked indicates an auth wall or bot challenge, whether by HTTP
// status or by content sniffing.
type ErrBlocked struct {
	AuthRequired bool
}

func (e ErrBlocked) Error() string {
	if e.AuthRequired {
		return "blocked: this page requires signing in"
	}
	return "blocked: access denied or bot challenge served"
}

// ErrNotFound indicates a missing page or a profile with no detectable
// shelves.
type ErrNotFound struct {
	Reason string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("not found: %s", e.Reason)
}

// ErrUpstream indicates a failing response from the site or the
// catalog API.
type ErrUpstream struct {
	Status int
	Err    error
}

func (e ErrUpstream) Error() string {
	if e.Err != nil {
		return fmt.Errorf("upstream error: %w", e.Err).Error()
	}
	return fmt.Sprintf("upstream error: status %d", e.Status)
}

func (e ErrUpstream) Unwrap() error {
	return e.Err
}

// ErrNoIdentifier indicates a fetched page exposed no usable catalog
// identifier. Hint is a user-facing suggestion shaped by the URL.
type ErrNoIdentifier struct {
	Hint string
}

func (e ErrNoIdentifier) Error() string {
	return fmt.Sprintf("no identifier found in page. %s", e.Hint)
}

// ErrPartial indicates some sub-resources of an import failed while
// others succeeded.
type ErrPartial struct {
	Succeeded int
	Failed    int
}

func (e ErrPartial) Error() string {
	return fmt.Sprintf("partial import: %d succeeded, %d failed", e.Succeeded, e.Failed)
}

// ReasonLabel maps an import error to a stable label for logs and
// metrics.
func ReasonLabel(err error) string {
	if err == nil {
		return "none"
	}
	var invalid ErrInvalidInput
	if errors.As(err, &invalid) {
		return "invalid_input"
	}
	var network ErrNetwork
	if errors.As(err, &network) {
		return "network"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var blocked ErrBlocked
	if errors.As(err, &blocked) {
		return "blocked"
	}
	var notFound ErrNotFound
	if errors.As(err, &notFound) {
		return "not_found"
	}
	var upstream ErrUpstream
	if errors.As(err, &upstream) {
		return "upstream"
	}
	var noID ErrNoIdentifier
	if errors.As(err, &noID) {
		return "no_identifier"
	}
	var partial ErrPartial
	if errors.As(err, &partial) {
		return "partial"
	}
	return "other"
}
