package hosted

import (
	"context"
	"net/http"

	"github.com/cccteam/ccc"
	"github.com/cccteam/eduauth/identity"
	"github.com/cccteam/eduauth/roles"
	"github.com/go-playground/errors/v5"
	"golang.org/x/oauth2"
)

var (
	_ identity.Admin    = &AdminClient{}
	_ identity.Verifier = &AdminClient{}
	_ roles.Checker     = &AdminClient{}
	_ roles.Store       = &AdminClient{}
)

// AdminClient calls the hosted backend with the service-level credential.
// It must only run on trusted servers.
type AdminClient struct {
	t       *transport
	public  *http.Client
	service *http.Client
}

// NewAdminClient creates an AdminClient. Requests made on behalf of the
// service carry serviceKey as their bearer credential.
func NewAdminClient(ctx context.Context, baseURL, apiKey, serviceKey string, opts ...Option) (*AdminClient, error) {
	if serviceKey == "" {
		return nil, errors.New("service key is required")
	}

	t, err := newTransport(baseURL, apiKey)
	if err != nil {
		return nil, err
	}
	s := newSettings(opts)

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	service := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: serviceKey,
		TokenType:   "Bearer",
	}))
	service.Timeout = s.httpClient.Timeout

	return &AdminClient{
		t:       t,
		public:  s.httpClient,
		service: service,
	}, nil
}

// UserFromToken resolves an end-user access token to its user.
func (a *AdminClient) UserFromToken(ctx context.Context, token string) (*identity.User, error) {
	var u userResponse
	if err := a.t.do(ctx, a.public, request{
		method: http.MethodGet,
		path:   userPath,
		bearer: token,
	}, &u); err != nil {
		switch statusOf(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, errors.Wrap(identity.ErrInvalidToken, err.Error())
		}

		return nil, errors.Wrap(err, "get user")
	}

	if u.ID == ccc.NilUUID {
		return nil, errors.Wrap(identity.ErrInvalidToken, "token resolved to no user")
	}

	return u.user(), nil
}

type adminUserRequest struct {
	Email        string         `json:"email,omitempty"`
	Password     string         `json:"password,omitempty"`
	EmailConfirm bool           `json:"email_confirm,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// CreateUser creates a confirmed account.
func (a *AdminClient) CreateUser(ctx context.Context, user *identity.NewUser) (*identity.User, error) {
	var u userResponse
	if err := a.t.do(ctx, a.service, request{
		method: http.MethodPost,
		path:   adminUsersPath,
		body: adminUserRequest{
			Email:        user.Email,
			Password:     user.Password,
			EmailConfirm: true,
			UserMetadata: user.Metadata,
		},
	}, &u); err != nil {
		if emailExists(err) {
			return nil, errors.Wrap(identity.ErrEmailExists, err.Error())
		}

		return nil, errors.Wrap(err, "create user")
	}

	return u.user(), nil
}

// DeleteUser deletes the account id.
func (a *AdminClient) DeleteUser(ctx context.Context, id ccc.UUID) error {
	if err := a.t.do(ctx, a.service, request{
		method: http.MethodDelete,
		path:   adminUsersPath + "/" + id.String(),
	}, nil); err != nil {
		if statusOf(err) == http.StatusNotFound {
			return errors.Wrap(identity.ErrUserNotFound, err.Error())
		}

		return errors.Wrap(err, "delete user")
	}

	return nil
}

// UpdateUserEmail changes the email of account id without a confirmation round trip.
func (a *AdminClient) UpdateUserEmail(ctx context.Context, id ccc.UUID, email string) error {
	if err := a.t.do(ctx, a.service, request{
		method: http.MethodPut,
		path:   adminUsersPath + "/" + id.String(),
		body:   adminUserRequest{Email: email, EmailConfirm: true},
	}, nil); err != nil {
		switch {
		case statusOf(err) == http.StatusNotFound:
			return errors.Wrap(identity.ErrUserNotFound, err.Error())
		case emailExists(err):
			return errors.Wrap(identity.ErrEmailExists, err.Error())
		}

		return errors.Wrap(err, "update user")
	}

	return nil
}

// HasRole calls the has_role procedure with the service credential.
func (a *AdminClient) HasRole(ctx context.Context, userID ccc.UUID, role roles.Role) (bool, error) {
	return hasRole(ctx, a.t, a.service, "", userID, role)
}

// UserRoles reads the role assignments of userID.
func (a *AdminClient) UserRoles(ctx context.Context, userID ccc.UUID) ([]roles.Role, error) {
	return userRoles(ctx, a.t, a.service, "", userID)
}

// AddUserRoles assigns rs to userID. Existing assignments are kept.
func (a *AdminClient) AddUserRoles(ctx context.Context, userID ccc.UUID, rs ...roles.Role) error {
	if len(rs) == 0 {
		return nil
	}

	rows := make([]roleRow, 0, len(rs))
	for _, r := range rs {
		rows = append(rows, roleRow{UserID: userID, Role: string(r)})
	}

	if err := a.t.do(ctx, a.service, request{
		method: http.MethodPost,
		path:   userRolesPath,
		header: http.Header{"Prefer": {"resolution=ignore-duplicates,return=minimal"}},
		body:   rows,
	}, nil); err != nil {
		return errors.Wrap(err, "insert user_roles")
	}

	return nil
}

// DeleteUserRoles removes rs from userID.
func (a *AdminClient) DeleteUserRoles(ctx context.Context, userID ccc.UUID, rs ...roles.Role) error {
	if len(rs) == 0 {
		return nil
	}

	if err := a.t.do(ctx, a.service, request{
		method: http.MethodDelete,
		path:   userRolesPath,
		query:  roleFilter(userID, rs),
	}, nil); err != nil {
		return errors.Wrap(err, "delete user_roles")
	}

	return nil
}

// LogActivity calls the log_activity procedure.
func (a *AdminClient) LogActivity(ctx context.Context, actorID ccc.UUID, action string, details map[string]any) error {
	if err := a.t.do(ctx, a.service, request{
		method: http.MethodPost,
		path:   logActPath,
		body:   logActivityParams{UserID: actorID, Action: action, Details: details},
	}, nil); err != nil {
		return errors.Wrap(err, "rpc log_activity")
	}

	return nil
}

func emailExists(err error) bool {
	switch codeOf(err) {
	case "email_exists", "user_already_exists":
		return true
	}

	return false
}
