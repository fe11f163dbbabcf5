// SPDX-License-Identifier: Apache-2.0

package auth

import "context"

type siteIDContextKey struct{}
type userIDContextKey struct{}

var ctxSiteIDKey siteIDContextKey
var ctxUserIDKey userIDContextKey

// WithSiteID stores the current tenant id on the request context. Recording
// without a site on context writes site 0, which is a valid tenant.
func WithSiteID(ctx context.Context, siteID int64) context.Context {
	return context.WithValue(ctx, ctxSiteIDKey, siteID)
}

// SiteIDFromContext reads the current tenant id from context.
func SiteIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(ctxSiteIDKey)
	id, ok := v.(int64)
	if !ok {
		return 0, false
	}
	return id, true
}

// WithUserID stores the acting user id on the request context. Anonymous
// requests simply never call this.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, userID)
}

// UserIDFromContext reads the acting user id from context. Returns false for
// anonymous requests and for non-positive stored ids.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(ctxUserIDKey)
	id, ok := v.(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}
