package domain

import "errors"

var (
	// ErrUpstreamStatus signals a non-2xx answer from the rendering service.
	ErrUpstreamStatus = errors.New("rendering service returned an error status")
	// ErrUpstreamTransport signals that no answer was received at all.
	ErrUpstreamTransport = errors.New("rendering service unreachable")
	// ErrUpstreamTimeout signals that the outbound call exceeded its time budget.
	ErrUpstreamTimeout = errors.New("rendering service timed out")
	// ErrResponseTooLarge signals a rendered payload above the configured limit.
	ErrResponseTooLarge = errors.New("rendering service response exceeds size limit")

	// ErrInvalidAPIKey signals that the provided API key does not match.
	ErrInvalidAPIKey = errors.New("invalid api key")
)
