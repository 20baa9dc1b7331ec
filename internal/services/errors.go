package services

import "errors"

// ErrEmptyMessage is returned by Submit when the trimmed input is empty.
// No conversation state is mutated.
var ErrEmptyMessage = errors.New("empty message")

// Provider error taxonomy. Each failure from the completion provider is
// classified into one of these so callers can distinguish a bad key from a
// rate limit from a flaky network, while the provider's own message is kept
// in the wrapped error for surfacing.
var (
	ErrProviderAuth      = errors.New("provider authentication failed")
	ErrProviderRateLimit = errors.New("provider rate limited")
	ErrProviderTransport = errors.New("provider request failed")
)

// errMalformedHistory marks a completion call whose history cannot be
// replayed: empty, or not ending with a user turn. That is a caller bug, not
// a provider failure, so it stays outside the provider taxonomy and surfaces
// as the generic error message.
var errMalformedHistory = errors.New("malformed completion history")

// IsProviderError reports whether err came from the completion provider.
func IsProviderError(err error) bool {
	return errors.Is(err, ErrProviderAuth) ||
		errors.Is(err, ErrProviderRateLimit) ||
		errors.Is(err, ErrProviderTransport)
}
