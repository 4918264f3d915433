package audit

import (
	"context"

	"github.com/cccteam/ccc"
)

// Recorder persists activity records.
type Recorder interface {
	LogActivity(ctx context.Context, actorID ccc.UUID, action string, details map[string]any) error
}
