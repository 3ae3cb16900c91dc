package auth

import "context"

// SubjectChecker reports whether an authenticated subject may act.
// found is false when no profile exists for the subject.
type SubjectChecker interface {
	SubjectActive(ctx context.Context, subject string) (active bool, found bool, err error)
}
