package goSession

import "context"

type clientIPContextKey struct{}
type remoteHostContextKey struct{}
type trackingCookieContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. CreateSession records
// it in the session and the legacy cookie; audit events carry it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithRemoteHost attaches the caller's resolved host name to ctx.
func WithRemoteHost(ctx context.Context, host string) context.Context {
	return context.WithValue(ctx, remoteHostContextKey{}, host)
}

// WithTrackingCookie attaches the browser tracking cookie value, recorded in
// the legacy session audit row.
func WithTrackingCookie(ctx context.Context, cookie string) context.Context {
	return context.WithValue(ctx, trackingCookieContextKey{}, cookie)
}

func clientIPFromContext(ctx context.Context) string {
	return stringFromContext(ctx, clientIPContextKey{})
}

func remoteHostFromContext(ctx context.Context) string {
	return stringFromContext(ctx, remoteHostContextKey{})
}

func trackingCookieFromContext(ctx context.Context) string {
	return stringFromContext(ctx, trackingCookieContextKey{})
}

func stringFromContext(ctx context.Context, key any) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
