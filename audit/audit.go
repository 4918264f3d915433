// Package audit records privileged actions on a best-effort basis.
package audit

import (
	"context"

	"github.com/cccteam/ccc"
	"github.com/cccteam/logger"
	"github.com/go-playground/errors/v5"
)

// Actions recorded by the administrative handlers.
const (
	ActionCreateUser  = "admin_create_user"
	ActionDeleteUser  = "admin_delete_user"
	ActionUpdateEmail = "update_email"
)

// Logger writes activity records and never fails its caller.
type Logger struct {
	recorder Recorder
}

// NewLogger returns a Logger writing to r. A nil r disables recording.
func NewLogger(r Recorder) *Logger {
	return &Logger{recorder: r}
}

// Record writes an activity record. A failure is logged and swallowed.
func (l *Logger) Record(ctx context.Context, actorID ccc.UUID, action string, details map[string]any) {
	if l == nil || l.recorder == nil {
		return
	}

	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	if err := l.recorder.LogActivity(ctx, actorID, action, details); err != nil {
		logger.Ctx(ctx).Errorf("audit record %s by %s dropped: %s", action, actorID, errors.Wrap(err, "Recorder.LogActivity()"))
	}
}
