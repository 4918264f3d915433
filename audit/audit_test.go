package audit

import (
	"context"
	"testing"

	"github.com/cccteam/ccc"
	"github.com/cccteam/eduauth/mock/mock_audit"
	"github.com/go-playground/errors/v5"
	"go.uber.org/mock/gomock"
)

func TestLogger_Record(t *testing.T) {
	t.Parallel()

	actor := ccc.Must(ccc.NewUUID())
	details := map[string]any{"email": "new@school.test"}

	tests := []struct {
		name    string
		prepare func(r *mock_audit.MockRecorder)
	}{
		{
			name: "recorded",
			prepare: func(r *mock_audit.MockRecorder) {
				r.EXPECT().LogActivity(gomock.Any(), actor, ActionCreateUser, details).Return(nil)
			},
		},
		{
			name: "failure is swallowed",
			prepare: func(r *mock_audit.MockRecorder) {
				r.EXPECT().LogActivity(gomock.Any(), actor, ActionCreateUser, details).Return(errors.New("insert failed"))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := mock_audit.NewMockRecorder(gomock.NewController(t))
			tt.prepare(rec)

			NewLogger(rec).Record(context.Background(), actor, ActionCreateUser, details)
		})
	}
}

func TestLogger_RecordDisabled(t *testing.T) {
	t.Parallel()

	var l *Logger
	l.Record(context.Background(), ccc.NilUUID, ActionDeleteUser, nil)
	NewLogger(nil).Record(context.Background(), ccc.NilUUID, ActionDeleteUser, nil)
}
