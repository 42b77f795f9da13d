package version

import (
	"context"
	"errors"
	"log/slog"
)

// Resolver wraps a Provider. It does not cache: every call reaches the
// provider so a stale answer can never outlive a migration.
type Resolver struct {
	provider Provider
	logger   *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver over p.
func NewResolver(p Provider, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		provider: p,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve asks the provider for the address's version. Any provider error,
// and any answer that is not a known version, comes back as a
// *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, address string) (Version, error) {
	if r.provider == nil {
		return 0, &ResolutionError{Address: address, Cause: errors.New("no version provider configured")}
	}

	v, err := r.provider.ResolveVersion(ctx, address)
	if err != nil {
		var rerr *ResolutionError
		if errors.As(err, &rerr) {
			return 0, err
		}
		return 0, &ResolutionError{Address: address, Cause: err}
	}
	if !v.Valid() {
		return 0, &ResolutionError{Address: address, Cause: ErrInvalidVersion}
	}

	r.logger.Debug("version resolved", "address", address, "version", v.String())
	return v, nil
}
