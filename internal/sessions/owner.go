package sessions

import "context"

type ownerKey struct{}

// scopes every session the manager resolves under ctx to owner
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// the owner ctx is scoped to, empty when unscoped
func OwnerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

// cache key for the course context inside the owner's namespace
func scopedKey(ctx context.Context, courseID, cmID int64) string {
	key := Key(courseID, cmID)

	if owner := OwnerFrom(ctx); owner != "" {
		return "user_" + owner + ":" + key
	}

	return key
}
