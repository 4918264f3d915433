// Package sessioninfo carries the authenticated caller of a privileged request.
package sessioninfo

import (
	"context"
	"fmt"

	"github.com/cccteam/ccc"
)

// ctxKey is a type for storing values in the request context
type ctxKey string

// CtxUserInfo is the key used to store the UserInfo in the context.
const CtxUserInfo ctxKey = "userInfo"

// UserInfo is the caller resolved from the bearer credential.
type UserInfo struct {
	ID    ccc.UUID
	Email string
}

// NewUserCtx returns a copy of ctx carrying user.
func NewUserCtx(ctx context.Context, user *UserInfo) context.Context {
	return context.WithValue(ctx, CtxUserInfo, user)
}

// UserFromCtx returns the user information from the context
func UserFromCtx(ctx context.Context) *UserInfo {
	userInfo, ok := ctx.Value(CtxUserInfo).(*UserInfo)
	if !ok {
		panic(fmt.Sprintf("failed to find %s in request context", CtxUserInfo))
	}

	return userInfo
}
