// Package eduauth serves the privileged account operations of the platform.
//
// Every handler re-verifies its caller before acting: the bearer credential
// is resolved to an identity, the administrator role is checked, and only
// then is the payload validated and the identity provider called.
package eduauth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cccteam/ccc"
	"github.com/cccteam/eduauth/audit"
	"github.com/cccteam/eduauth/identity"
	"github.com/cccteam/eduauth/internal/guard"
	"github.com/cccteam/eduauth/internal/validation"
	"github.com/cccteam/eduauth/roles"
	"github.com/cccteam/eduauth/sessioninfo"
	"github.com/cccteam/httpio"
	"github.com/cccteam/logger"
	"github.com/go-playground/errors/v5"
)

// Client facing messages.
const (
	MsgCannotTargetSelf = "cannot target self"
	MsgUserNotFound     = "user not found"
	MsgInvalidBody      = "invalid request body"
)

// Admin implements AdminHandlers.
type Admin struct {
	guard         *guard.Guard
	provider      identity.Admin
	handle        LogHandler
	allowedOrigin string
	audit         *audit.Logger
	roleStore     roles.Store
	assigner      *roles.Assigner
}

// NewAdmin creates a new Admin. verifier resolves bearer credentials, checker
// answers role checks and provider performs the account changes.
func NewAdmin(verifier identity.Verifier, checker roles.Checker, provider identity.Admin, options ...AdminOption) *Admin {
	a := &Admin{
		guard:         guard.New(verifier, checker),
		provider:      provider,
		handle:        httpio.Log,
		allowedOrigin: "*",
	}

	for _, opt := range options {
		opt(a)
	}

	return a
}

// CreateUserRequest is the create-user payload.
type CreateUserRequest struct {
	Email       string `json:"email"                 validate:"required,email"`
	Password    string `json:"password"              validate:"required,password"`
	FirstName   string `json:"firstName,omitempty"   validate:"omitempty,notblank,max=100"`
	LastName    string `json:"lastName,omitempty"    validate:"omitempty,notblank,max=100"`
	Role        string `json:"role"                  validate:"required,role"`
	SchoolLevel string `json:"schoolLevel,omitempty" validate:"omitempty,notblank,max=50"`
}

// DeleteUserRequest is the delete-user payload.
type DeleteUserRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

// UpdateEmailRequest is the update-email payload. An empty UserID targets the caller.
type UpdateEmailRequest struct {
	UserID   string `json:"userId,omitempty" validate:"omitempty,uuid"`
	NewEmail string `json:"newEmail"         validate:"required,email"`
}

// CreateUser handles creating a user account with a role.
func (a *Admin) CreateUser() http.HandlerFunc {
	type response struct {
		UserID ccc.UUID `json:"userId"`
	}

	decoder := newDecoder[CreateUserRequest]()

	return a.cors(a.handle(func(w http.ResponseWriter, r *http.Request) error {
		ctx, err := a.authorize(r)
		if err != nil {
			return writeError(ctx, w, err)
		}

		req, err := decode(decoder, r)
		if err != nil {
			return writeError(ctx, w, err)
		}

		id, err := a.createUser(ctx, req)
		if err != nil {
			return writeError(ctx, w, err)
		}

		return httpio.NewEncoder(w).Ok(response{UserID: id})
	}))
}

// DeleteUser handles deleting a user account.
func (a *Admin) DeleteUser() http.HandlerFunc {
	type response struct {
		Success bool `json:"success"`
	}

	decoder := newDecoder[DeleteUserRequest]()

	return a.cors(a.handle(func(w http.ResponseWriter, r *http.Request) error {
		ctx, err := a.authorize(r)
		if err != nil {
			return writeError(ctx, w, err)
		}

		req, err := decode(decoder, r)
		if err != nil {
			return writeError(ctx, w, err)
		}

		if err := a.deleteUser(ctx, req); err != nil {
			return writeError(ctx, w, err)
		}

		return httpio.NewEncoder(w).Ok(response{Success: true})
	}))
}

// UpdateEmail handles changing the email address of a user account. Callers
// may change their own address. Changing another account requires the
// administrator role, which is checked before the payload is decoded.
func (a *Admin) UpdateEmail() http.HandlerFunc {
	type response struct {
		Success bool `json:"success"`
	}

	decoder := newDecoder[UpdateEmailRequest]()

	return a.cors(a.handle(func(w http.ResponseWriter, r *http.Request) error {
		ctx, err := a.guard.Authenticate(r)
		if err != nil {
			return writeError(ctx, w, err)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			return writeError(ctx, w, httpio.NewBadRequestMessageWithError(errors.Wrap(err, "io.ReadAll()"), MsgInvalidBody))
		}

		target, err := a.emailTarget(ctx, targetUserID(body))
		if err != nil {
			return writeError(ctx, w, err)
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		req, err := decode(decoder, r)
		if err != nil {
			return writeError(ctx, w, err)
		}

		if err := a.changeEmail(ctx, target, req); err != nil {
			return writeError(ctx, w, err)
		}

		return httpio.NewEncoder(w).Ok(response{Success: true})
	}))
}

// API returns programmatic access to the handler internals.
func (a *Admin) API() *AdminAPI {
	return &AdminAPI{admin: a}
}

// authorize runs the authentication and administrator checks.
func (a *Admin) authorize(r *http.Request) (context.Context, error) {
	ctx, err := a.guard.Authenticate(r)
	if err != nil {
		return ctx, err
	}

	if err := a.guard.RequireRole(ctx, sessioninfo.UserFromCtx(ctx).ID, roles.Admin); err != nil {
		return ctx, err
	}

	return ctx, nil
}

func (a *Admin) createUser(ctx context.Context, req *CreateUserRequest) (ccc.UUID, error) {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	caller := sessioninfo.UserFromCtx(ctx)

	role, err := roles.Parse(req.Role)
	if err != nil {
		return ccc.NilUUID, httpio.NewBadRequestMessageWithError(err, "role is invalid")
	}

	metadata := map[string]any{"role": role.String()}
	for k, v := range map[string]string{
		"first_name":   req.FirstName,
		"last_name":    req.LastName,
		"school_level": req.SchoolLevel,
	} {
		if v = strings.TrimSpace(v); v != "" {
			metadata[k] = v
		}
	}

	user, err := a.provider.CreateUser(ctx, &identity.NewUser{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		Metadata: metadata,
	})
	if err != nil {
		if errors.Is(err, identity.ErrEmailExists) {
			return ccc.NilUUID, httpio.NewBadRequestMessageWithError(err, identity.ErrEmailExists.Error())
		}

		return ccc.NilUUID, errors.Wrap(err, "identity.Admin.CreateUser()")
	}

	if a.assigner != nil {
		if _, err := a.assigner.AssignRoles(ctx, user.ID, []roles.Role{role}); err != nil {
			return ccc.NilUUID, errors.Wrap(err, "roles.Assigner.AssignRoles()")
		}
	}

	a.audit.Record(ctx, caller.ID, audit.ActionCreateUser, map[string]any{
		"created_user_id": user.ID.String(),
		"email":           user.Email,
		"role":            role.String(),
	})

	return user.ID, nil
}

func (a *Admin) deleteUser(ctx context.Context, req *DeleteUserRequest) error {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	caller := sessioninfo.UserFromCtx(ctx)

	target, err := ccc.UUIDFromString(req.UserID)
	if err != nil {
		return httpio.NewBadRequestMessageWithError(err, "userId must be a valid UUID")
	}

	if target == caller.ID {
		return httpio.NewBadRequestMessage(MsgCannotTargetSelf)
	}

	if err := a.provider.DeleteUser(ctx, target); err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return httpio.NewBadRequestMessageWithError(err, MsgUserNotFound)
		}

		return errors.Wrap(err, "identity.Admin.DeleteUser()")
	}

	if a.roleStore != nil {
		a.dropRoles(ctx, target)
	}

	a.audit.Record(ctx, caller.ID, audit.ActionDeleteUser, map[string]any{
		"deleted_user_id": target.String(),
	})

	return nil
}

// dropRoles removes every role of a deleted account. Failures are logged.
func (a *Admin) dropRoles(ctx context.Context, userID ccc.UUID) {
	held, err := a.roleStore.UserRoles(ctx, userID)
	if err != nil {
		logger.Ctx(ctx).Errorf("roles of deleted user %s kept: %s", userID, errors.Wrap(err, "roles.Store.UserRoles()"))

		return
	}
	if len(held) == 0 {
		return
	}

	if err := a.roleStore.DeleteUserRoles(ctx, userID, held...); err != nil {
		logger.Ctx(ctx).Errorf("roles of deleted user %s kept: %s", userID, errors.Wrap(err, "roles.Store.DeleteUserRoles()"))
	}
}

// targetUserID reads userId from a raw update-email body without validating
// the rest of it. A value that is not a string is returned as its raw JSON
// text, and so is a non-empty body that is not a JSON object. Neither parses
// as the caller's id.
func targetUserID(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return string(body)
	}

	raw, ok := fields["userId"]
	if !ok {
		return ""
	}

	var id *string
	if err := json.Unmarshal(raw, &id); err != nil {
		return string(raw)
	}
	if id == nil {
		return ""
	}

	return *id
}

// emailTarget resolves the account an email change applies to. An empty
// userID targets the caller. Any other account, including one named by an
// unparsable id, requires the administrator role.
func (a *Admin) emailTarget(ctx context.Context, userID string) (ccc.UUID, error) {
	caller := sessioninfo.UserFromCtx(ctx)
	if userID == "" {
		return caller.ID, nil
	}

	id, err := ccc.UUIDFromString(userID)
	if err == nil && id == caller.ID {
		return id, nil
	}

	if err := a.guard.RequireRole(ctx, caller.ID, roles.Admin); err != nil {
		return ccc.NilUUID, err
	}

	return id, nil
}

func (a *Admin) changeEmail(ctx context.Context, target ccc.UUID, req *UpdateEmailRequest) error {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	caller := sessioninfo.UserFromCtx(ctx)

	email := strings.TrimSpace(req.NewEmail)
	if err := a.provider.UpdateUserEmail(ctx, target, email); err != nil {
		switch {
		case errors.Is(err, identity.ErrUserNotFound):
			return httpio.NewBadRequestMessageWithError(err, MsgUserNotFound)
		case errors.Is(err, identity.ErrEmailExists):
			return httpio.NewBadRequestMessageWithError(err, identity.ErrEmailExists.Error())
		}

		return errors.Wrap(err, "identity.Admin.UpdateUserEmail()")
	}

	a.audit.Record(ctx, caller.ID, audit.ActionUpdateEmail, map[string]any{
		"target_user_id": target.String(),
		"new_email":      email,
	})

	return nil
}

// newDecoder returns an httpio.Decoder that validates with the package rules.
func newDecoder[T any]() *httpio.Decoder[T] {
	decoder, err := httpio.NewDecoder[T]()
	if err != nil {
		panic(err)
	}

	return decoder.WithValidator(validation.Struct)
}

// decode runs decoder on r. Bodies that are not JSON objects matching T get
// MsgInvalidBody. Unknown fields are rejected.
func decode[T any](decoder *httpio.Decoder[T], r *http.Request) (*T, error) {
	req, err := decoder.Decode(r)
	if err != nil {
		if httpio.HasClientMessage(err) {
			return nil, err
		}

		return nil, httpio.NewBadRequestMessageWithError(err, MsgInvalidBody)
	}

	return req, nil
}

// AdminAPI provides programmatic access to Admin handler internals. The
// caller must already be authenticated. Payloads are validated before use.
type AdminAPI struct {
	admin *Admin
}

// CreateUser creates an account on behalf of caller and returns its id.
func (a *AdminAPI) CreateUser(ctx context.Context, caller ccc.UUID, req *CreateUserRequest) (ccc.UUID, error) {
	ctx = sessioninfo.NewUserCtx(ctx, &sessioninfo.UserInfo{ID: caller})
	if err := validation.Struct(req); err != nil {
		return ccc.NilUUID, err
	}

	return a.admin.createUser(ctx, req)
}

// DeleteUser deletes an account on behalf of caller.
func (a *AdminAPI) DeleteUser(ctx context.Context, caller ccc.UUID, req *DeleteUserRequest) error {
	ctx = sessioninfo.NewUserCtx(ctx, &sessioninfo.UserInfo{ID: caller})
	if err := validation.Struct(req); err != nil {
		return err
	}

	return a.admin.deleteUser(ctx, req)
}

// UpdateEmail changes an email address on behalf of caller. Targeting another
// account requires caller to hold the administrator role.
func (a *AdminAPI) UpdateEmail(ctx context.Context, caller ccc.UUID, req *UpdateEmailRequest) error {
	ctx = sessioninfo.NewUserCtx(ctx, &sessioninfo.UserInfo{ID: caller})
	target, err := a.admin.emailTarget(ctx, req.UserID)
	if err != nil {
		return err
	}

	if err := validation.Struct(req); err != nil {
		return err
	}

	return a.admin.changeEmail(ctx, target, req)
}
