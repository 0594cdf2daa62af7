package chat

import "context"

type identityKey struct{}

// attaches the caller identity to ctx
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// returns the caller identity, the zero value for anonymous callers
func IdentityFrom(ctx context.Context) Identity {
	if ctx == nil {
		return Identity{}
	}

	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}
