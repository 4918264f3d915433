package hosted

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cccteam/ccc"
	"github.com/cccteam/eduauth/identity"
	"github.com/cccteam/eduauth/roles"
	"github.com/cccteam/logger"
	"github.com/go-playground/errors/v5"
)

const (
	tokenPath      = "/auth/v1/token"
	userPath       = "/auth/v1/user"
	logoutPath     = "/auth/v1/logout"
	adminUsersPath = "/auth/v1/admin/users"
	hasRolePath    = "/rest/v1/rpc/has_role"
	logActPath     = "/rest/v1/rpc/log_activity"
	userRolesPath  = "/rest/v1/user_roles"
)

type userResponse struct {
	ID    ccc.UUID `json:"id"`
	Email string   `json:"email"`
}

func (u *userResponse) user() *identity.User {
	return &identity.User{ID: u.ID, Email: u.Email}
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	User         userResponse `json:"user"`
}

func (t *tokenResponse) session(now time.Time) *identity.Session {
	s := &identity.Session{
		User:         t.User.user(),
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
	}

	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0)
	case t.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}

	return s
}

type roleRow struct {
	UserID ccc.UUID `json:"user_id"`
	Role   string   `json:"role"`
}

type hasRoleParams struct {
	UserID ccc.UUID `json:"_user_id"`
	Role   string   `json:"_role"`
}

type logActivityParams struct {
	UserID  ccc.UUID       `json:"_user_id"`
	Action  string         `json:"_action"`
	Details map[string]any `json:"_details"`
}

func hasRole(ctx context.Context, t *transport, client *http.Client, bearer string, userID ccc.UUID, role roles.Role) (bool, error) {
	var ok bool
	if err := t.do(ctx, client, request{
		method: http.MethodPost,
		path:   hasRolePath,
		bearer: bearer,
		body:   hasRoleParams{UserID: userID, Role: string(role)},
	}, &ok); err != nil {
		return false, errors.Wrap(err, "rpc has_role")
	}

	return ok, nil
}

func userRoles(ctx context.Context, t *transport, client *http.Client, bearer string, userID ccc.UUID) ([]roles.Role, error) {
	var rows []roleRow
	if err := t.do(ctx, client, request{
		method: http.MethodGet,
		path:   userRolesPath,
		bearer: bearer,
		query: url.Values{
			"select":  {"role"},
			"user_id": {"eq." + userID.String()},
		},
	}, &rows); err != nil {
		return nil, errors.Wrap(err, "select user_roles")
	}

	list := make([]roles.Role, 0, len(rows))
	for _, row := range rows {
		r, err := roles.Parse(row.Role)
		if err != nil {
			logger.Ctx(ctx).Errorf("ignoring role assignment for user %s: %s", userID, err)

			continue
		}
		list = append(list, r)
	}

	return list, nil
}

func roleFilter(userID ccc.UUID, rs []roles.Role) url.Values {
	return url.Values{
		"user_id": {"eq." + userID.String()},
		"role":    {"in.(" + strings.Join(roles.Names(rs), ",") + ")"},
	}
}
