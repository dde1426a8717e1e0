package common

import (
	"context"
)

type contextKey string

const (
	// SubjectKey holds the authenticated identity's JWT subject.
	SubjectKey contextKey = "subject"
)

// GetSubjectFromContext extracts the authenticated subject from the
// request context.
func GetSubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SubjectKey).(string)
	return subject, ok
}

// WithSubject returns a context carrying the authenticated subject.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, SubjectKey, subject)
}
