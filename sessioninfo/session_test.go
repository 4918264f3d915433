package sessioninfo

import (
	"context"
	"reflect"
	"testing"

	"github.com/cccteam/ccc"
)

func TestUserFromCtx(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		ctx       context.Context
		want      *UserInfo
		wantPanic bool
	}{
		{
			name:      "does not find user info in context",
			ctx:       context.Background(),
			wantPanic: true,
		},
		{
			name: "gets user info from context",
			ctx: NewUserCtx(context.Background(), &UserInfo{
				ID:    ccc.Must(ccc.UUIDFromString("de6e1a12-2d4d-4c4d-aaf1-d82cb9a9eff5")),
				Email: "head@school.test",
			}),
			want: &UserInfo{
				ID:    ccc.Must(ccc.UUIDFromString("de6e1a12-2d4d-4c4d-aaf1-d82cb9a9eff5")),
				Email: "head@school.test",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			defer func() {
				if r := recover(); (r != nil) != tt.wantPanic {
					t.Errorf("UserFromCtx() panic = %v, wantPanic %v", r, tt.wantPanic)
				}
			}()

			if got := UserFromCtx(tt.ctx); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("UserFromCtx() = %v, want %v", got, tt.want)
			}
		})
	}
}
