package alarms

import (
	"fmt"

	"refinery-ops/internal/platform/apperr"
)

// ErrNotFound indicates a missing threshold record.
var ErrNotFound = fmt.Errorf("alert threshold: %w", apperr.ErrNotFound)
