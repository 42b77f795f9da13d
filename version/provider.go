package version

import (
	"context"
	"errors"
	"fmt"
)

// Provider answers which ledger an address belongs on. Implementations may
// call a remote service and may retry internally; the engine never does.
type Provider interface {
	ResolveVersion(ctx context.Context, address string) (Version, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, address string) (Version, error)

// ResolveVersion implements Provider.
func (f ProviderFunc) ResolveVersion(ctx context.Context, address string) (Version, error) {
	return f(ctx, address)
}

// Static is a Provider that always answers the same version.
type Static Version

// ResolveVersion implements Provider.
func (s Static) ResolveVersion(context.Context, string) (Version, error) {
	return Version(s), nil
}

// ErrFailedToResolveVersion matches every *ResolutionError.
var ErrFailedToResolveVersion = errors.New("version: failed to resolve version")

// ErrInvalidVersion is the cause recorded when a provider answers a value
// outside Legacy and Current.
var ErrInvalidVersion = errors.New("version: provider returned an unknown version")

// ResolutionError reports a provider failure for one address.
type ResolutionError struct {
	Address string
	Cause   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("version: failed to resolve version for %s: %v", e.Address, e.Cause)
}

// Unwrap returns the provider's error.
func (e *ResolutionError) Unwrap() error { return e.Cause }

// Is matches ErrFailedToResolveVersion.
func (e *ResolutionError) Is(target error) bool {
	return target == ErrFailedToResolveVersion
}
