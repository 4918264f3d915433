package hosted

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cccteam/ccc"
	"github.com/cccteam/eduauth/identity"
	"github.com/cccteam/eduauth/internal/eventloop"
	"github.com/cccteam/eduauth/roles"
	"github.com/cccteam/logger"
	"github.com/go-playground/errors/v5"
)

var (
	_ identity.Client = &Client{}
	_ roles.Checker   = &Client{}
	_ roles.Lister    = &Client{}
)

// Client is the end-user side of the hosted identity provider. Change
// handlers run on the Client's own dispatch goroutine.
type Client struct {
	t     *transport
	http  *http.Client
	store TokenStore
	now   func() time.Time

	mu       sync.Mutex
	session  *identity.Session
	loaded   bool
	handlers map[int]identity.ChangeHandler
	nextID   int

	dispatch *eventloop.Loop
}

// NewClient creates a Client for the project at baseURL using its public API key.
func NewClient(baseURL, anonKey string, opts ...Option) (*Client, error) {
	t, err := newTransport(baseURL, anonKey)
	if err != nil {
		return nil, err
	}
	s := newSettings(opts)

	return &Client{
		t:        t,
		http:     s.httpClient,
		store:    s.tokenStore,
		now:      s.now,
		handlers: make(map[int]identity.ChangeHandler),
		dispatch: eventloop.New(),
	}, nil
}

// Close stops the dispatch goroutine after delivering pending events.
func (c *Client) Close() {
	c.dispatch.Close()
}

// CurrentSession returns the signed-in session, refreshing it when the access token expired.
func (c *Client) CurrentSession(ctx context.Context) (*identity.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(ctx); err != nil {
		return nil, err
	}

	if c.session == nil || !c.session.Expired(c.now()) {
		return c.session, nil
	}

	if c.session.RefreshToken == "" {
		c.clearLocked(ctx)

		return nil, nil
	}

	s, err := c.refreshLocked(ctx, c.session.RefreshToken)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// SignInWithPassword signs in with email and password.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error) {
	var tok tokenResponse
	if err := c.t.do(ctx, c.http, request{
		method: http.MethodPost,
		path:   tokenPath,
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
	}, &tok); err != nil {
		if s := statusOf(err); s == http.StatusBadRequest || s == http.StatusUnauthorized {
			return nil, errors.Wrap(identity.ErrInvalidToken, err.Error())
		}

		return nil, errors.Wrap(err, "token grant_type=password")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s := tok.session(c.now())
	if err := c.setLocked(ctx, s); err != nil {
		return nil, err
	}
	c.emitLocked(identity.EventSignedIn, s)

	return s, nil
}

// SignOut revokes the session and forgets it locally. A session persisted by
// an earlier process is revoked too.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(ctx); err != nil {
		// An unreadable session cannot be revoked, only forgotten.
		logger.Ctx(ctx).Error(err)
	}

	if c.session != nil {
		if err := c.t.do(ctx, c.http, request{
			method: http.MethodPost,
			path:   logoutPath,
			bearer: c.session.AccessToken,
		}, nil); err != nil && statusOf(err) != http.StatusUnauthorized && statusOf(err) != http.StatusNotFound {
			return errors.Wrap(err, "logout")
		}
	}

	c.clearLocked(ctx)

	return nil
}

// OnAuthStateChange registers handler. It first receives INITIAL_SESSION with
// the session known at registration time.
func (c *Client) OnAuthStateChange(handler identity.ChangeHandler) identity.Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.handlers[id] = handler

	s := c.session
	c.dispatch.Post(func() { handler(identity.EventInitialSession, s) })

	return &subscription{release: func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		delete(c.handlers, id)
	}}
}

// HasRole calls the has_role procedure with the end-user's credential.
func (c *Client) HasRole(ctx context.Context, userID ccc.UUID, role roles.Role) (bool, error) {
	return hasRole(ctx, c.t, c.http, c.bearer(), userID, role)
}

// UserRoles reads the role assignments visible to the end-user.
func (c *Client) UserRoles(ctx context.Context, userID ccc.UUID) ([]roles.Role, error) {
	return userRoles(ctx, c.t, c.http, c.bearer(), userID)
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session.AccessToken
	}

	return c.t.apiKey
}

// loadLocked reads the persisted session once per Client.
func (c *Client) loadLocked(ctx context.Context) error {
	if c.loaded {
		return nil
	}

	s, err := c.store.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "TokenStore.Load()")
	}
	c.session = s
	c.loaded = true

	return nil
}

func (c *Client) refreshLocked(ctx context.Context, refreshToken string) (*identity.Session, error) {
	var tok tokenResponse
	if err := c.t.do(ctx, c.http, request{
		method: http.MethodPost,
		path:   tokenPath,
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
	}, &tok); err != nil {
		if s := statusOf(err); s == http.StatusBadRequest || s == http.StatusUnauthorized {
			// The refresh token was revoked or already used.
			c.clearLocked(ctx)

			return nil, nil
		}

		return nil, errors.Wrap(err, "token grant_type=refresh_token")
	}

	s := tok.session(c.now())
	if err := c.setLocked(ctx, s); err != nil {
		return nil, err
	}
	c.emitLocked(identity.EventTokenRefreshed, s)

	return s, nil
}

func (c *Client) setLocked(ctx context.Context, s *identity.Session) error {
	if err := c.store.Save(ctx, s); err != nil {
		return errors.Wrap(err, "TokenStore.Save()")
	}
	c.session = s
	c.loaded = true

	return nil
}

func (c *Client) clearLocked(ctx context.Context) {
	hadSession := c.session != nil
	c.session = nil
	c.loaded = true

	if err := c.store.Delete(ctx); err != nil {
		logger.Ctx(ctx).Error(errors.Wrap(err, "TokenStore.Delete()"))
	}

	if hadSession {
		c.emitLocked(identity.EventSignedOut, nil)
	}
}

func (c *Client) emitLocked(event identity.Event, s *identity.Session) {
	for _, h := range c.handlers {
		c.dispatch.Post(func() { h(event, s) })
	}
}

type subscription struct {
	once    sync.Once
	release func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.release)
}
