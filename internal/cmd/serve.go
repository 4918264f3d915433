package cmd

import (
	"context"
	"net/http"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/cccteam/eduauth"
	"github.com/cccteam/eduauth/audit"
	"github.com/cccteam/eduauth/config"
	"github.com/cccteam/eduauth/identity"
	"github.com/cccteam/eduauth/identity/hosted"
	"github.com/cccteam/eduauth/identity/jwtverify"
	"github.com/cccteam/eduauth/identity/oidcverify"
	"github.com/cccteam/eduauth/roles"
	"github.com/cccteam/eduauth/store"
	"github.com/cccteam/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/errors/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the privileged account handlers",
	Long: `Serve the create-user, delete-user and update-email handlers.

Every request is authenticated with its bearer credential and checked for
the administrator role before the payload is validated. Roles and activity
records are kept by the store selected with ROLE_STORE.

Endpoints:
  POST /functions/v1/create-user
  POST /functions/v1/delete-user
  POST /functions/v1/update-email`,
	RunE: runServe,
}

var serveShutdownTimeout time.Duration

func init() {
	serveCmd.Flags().DurationVar(&serveShutdownTimeout, "shutdown-timeout", 30*time.Second, "Maximum time to wait for connections to drain during shutdown")

	rootCmd.AddCommand(serveCmd)
}

// backend keeps role assignments and activity records.
type backend interface {
	roles.Checker
	roles.Store
	audit.Recorder
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	provider, err := hosted.NewAdminClient(ctx, cfg.IdentityURL, cfg.IdentityAnonKey, cfg.IdentityServiceKey, hosted.WithTimeout(cfg.IdentityTimeout))
	if err != nil {
		return errors.Wrap(err, "hosted.NewAdminClient()")
	}

	verifier, err := newVerifier(cfg, provider)
	if err != nil {
		return err
	}

	b, closeBackend, err := newBackend(ctx, cfg, provider)
	if err != nil {
		return err
	}
	defer closeBackend()

	admin := eduauth.NewAdmin(verifier, b, provider,
		eduauth.WithAllowedOrigin(cfg.CORSAllowedOrigin),
		eduauth.WithRoleStore(b),
		eduauth.WithAuditRecorder(b),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(admin, logger.NewConsoleExporter()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Ctx(ctx).Infof("serving admin handlers on %s (verifier=%s, store=%s)", cfg.Addr, cfg.TokenVerifier, cfg.RoleStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return errors.Wrap(err, "http.Server.ListenAndServe()")
		}

		return nil
	case <-ctx.Done():
	}

	logger.Ctx(ctx).Infof("shutting down admin handlers")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), serveShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http.Server.Shutdown()")
	}

	return nil
}

// newRouter mounts the admin handlers behind a request logger exporting to e.
// Each route answers its CORS preflight.
func newRouter(a eduauth.AdminHandlers, e logger.Exporter) http.Handler {
	r := chi.NewRouter()
	r.Use(logger.NewRequestLogger(e))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/functions/v1", func(r chi.Router) {
		for path, h := range map[string]http.HandlerFunc{
			"/create-user":  a.CreateUser(),
			"/delete-user":  a.DeleteUser(),
			"/update-email": a.UpdateEmail(),
		} {
			r.Post(path, h)
			r.Options(path, h)
		}
	})

	return r
}

func newVerifier(cfg *config.Config, remote identity.Verifier) (identity.Verifier, error) {
	switch cfg.TokenVerifier {
	case config.VerifierJWT:
		var opts []jwtverify.Option
		if cfg.JWTIssuer != "" {
			opts = append(opts, jwtverify.WithIssuer(cfg.JWTIssuer))
		}
		v, err := jwtverify.New(cfg.JWTSecret, cfg.JWTAudience, opts...)
		if err != nil {
			return nil, errors.Wrap(err, "jwtverify.New()")
		}

		return v, nil
	case config.VerifierOIDC:
		return oidcverify.New(cfg.OIDCIssuerURL, cfg.OIDCClientID), nil
	default:
		return remote, nil
	}
}

// newBackend opens the store selected by cfg. The returned func releases it.
func newBackend(ctx context.Context, cfg *config.Config, hostedBackend *hosted.AdminClient) (backend, func(), error) {
	switch cfg.RoleStore {
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "pgxpool.New()")
		}

		return store.NewPostgres(pool), pool.Close, nil
	case config.StoreSpanner:
		client, err := spanner.NewClient(ctx, cfg.SpannerDatabase)
		if err != nil {
			return nil, nil, errors.Wrap(err, "spanner.NewClient()")
		}

		return store.NewSpanner(client), client.Close, nil
	default:
		return hostedBackend, func() {}, nil
	}
}
