package shield

import "context"

type clientIPContextKey struct{}
type userAgentContextKey struct{}
type userContextKey struct{}

// UserInfo identifies the authenticated principal attached to a request
// context by the caller (typically the auth middleware).
type UserInfo struct {
	UserID   string
	Username string
}

// WithClientIP attaches the caller's IP address to ctx. The Engine uses it to
// fill audit records when the explicit RequestInfo fields are empty.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithUserAgent attaches the HTTP User-Agent string to ctx for audit records.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

// WithUser attaches the authenticated principal to ctx. The activity
// middleware logs only requests that carry one.
func WithUser(ctx context.Context, user UserInfo) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext reports the principal previously attached with WithUser.
func UserFromContext(ctx context.Context) (UserInfo, bool) {
	if ctx == nil {
		return UserInfo{}, false
	}
	user, ok := ctx.Value(userContextKey{}).(UserInfo)
	return user, ok
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func userAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	userAgent, _ := ctx.Value(userAgentContextKey{}).(string)
	return userAgent
}
