package steward

import "context"

type contextKey int

const ctxKeySubject contextKey = iota

// WithSubject returns a context carrying the authenticated subject
// identifier. The identity provider integration sets this once per request.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, ctxKeySubject, subject)
}

// SubjectFromContext returns the authenticated subject identifier, or ""
// when none is present. An empty subject is always a deny.
func SubjectFromContext(ctx context.Context) string {
	v, ok := ctx.Value(ctxKeySubject).(string)
	if !ok {
		return ""
	}
	return v
}
