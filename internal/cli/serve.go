package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/yurawu27/splittie/internal/auth"
	"github.com/yurawu27/splittie/internal/middleware"
	"github.com/yurawu27/splittie/internal/service"
	"github.com/yurawu27/splittie/internal/web"
	"github.com/yurawu27/splittie/pkg/api/apiconnect"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web and RPC server",
		Long: `Start the HTTP server. It serves the browser routes, the Connect RPC
services, /metrics and /healthz on one address, with HTTP/2 over cleartext
for Connect clients.

Example:
  splittie serve
  splittie serve --config ./splittie.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Server.ReconcileOnStart {
		if _, err := a.syncer.Reconcile(ctx, a.store); err != nil {
			// keep serving; each failed entry is already logged
			slog.Warn("Reconcile on start incomplete", "error", err)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(a.handler(), &http2.Server{}),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitFailure, "server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown failed", err)
	}
	slog.Info("Server stopped gracefully")
	return nil
}

// handler builds the full route table.
func (a *app) handler() http.Handler {
	logger := slog.Default()
	jwtManager := auth.NewJWTManager(a.cfg.Auth.JWTSecret, a.cfg.Auth.SessionTTL)
	authenticator := auth.NewPasswordAuthenticator(a.store, a.cfg.Auth.BcryptCost)
	cookies := auth.CookieConfig{
		Name:   a.cfg.Auth.CookieName,
		Secure: a.cfg.Auth.SecureCookies,
		TTL:    a.cfg.Auth.SessionTTL,
	}

	mux := http.NewServeMux()

	authPath, authHandler := apiconnect.NewAuthServiceHandler(
		service.NewAuthService(authenticator, a.store, jwtManager, cookies, logger),
		connect.WithInterceptors(
			middleware.LoggingInterceptor(a.metrics),
			middleware.OptionalAuth(jwtManager, cookies.Name),
		),
	)
	mux.Handle(authPath, authHandler)

	billPath, billHandler := apiconnect.NewBillServiceHandler(
		service.NewBillService(a.manager, a.formatter, logger),
		connect.WithInterceptors(
			middleware.LoggingInterceptor(a.metrics),
			middleware.RequireAuth(jwtManager, cookies.Name),
		),
	)
	mux.Handle(billPath, billHandler)

	mux.Handle("GET /metrics", a.metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	})

	mux.Handle("/", web.NewServer(authenticator, jwtManager, cookies, a.manager, a.formatter, logger))

	return middleware.Logging(a.metrics)(middleware.CORS(mux))
}
