// Package web serves the browser surface: form posts, redirects with flash
// messages, and JSON views of bills and balances.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yurawu27/splittie/internal/apperr"
	"github.com/yurawu27/splittie/internal/auth"
	"github.com/yurawu27/splittie/internal/billing"
	"github.com/yurawu27/splittie/internal/middleware"
	"github.com/yurawu27/splittie/internal/money"
	api "github.com/yurawu27/splittie/pkg/api"
)

// Server handles the web routes.
type Server struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	cookies       auth.CookieConfig
	manager       *billing.Manager
	formatter     *money.Formatter
	logger        *slog.Logger
	mux           *http.ServeMux
}

// NewServer creates the web server and registers its routes.
func NewServer(authenticator auth.Authenticator, jwtManager *auth.JWTManager, cookies auth.CookieConfig,
	manager *billing.Manager, formatter *money.Formatter, logger *slog.Logger) *Server {
	s := &Server{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		cookies:       cookies,
		manager:       manager,
		formatter:     formatter,
		logger:        logger,
		mux:           http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	session := middleware.LoadSession(s.jwtManager, s.cookies.Name)
	protect := middleware.RequireSession(s.jwtManager, s.cookies.Name)

	s.mux.Handle("GET /{$}", session(http.HandlerFunc(s.handleIndex)))
	s.mux.HandleFunc("GET /register", s.handleRegisterPage)
	s.mux.HandleFunc("POST /register", s.handleRegister)
	s.mux.HandleFunc("GET /login", s.handleLoginPage)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("GET /logout", s.handleLogout)

	s.mux.Handle("GET /bills", protect(http.HandlerFunc(s.handleListBills)))
	s.mux.Handle("GET /bills/{id}", protect(http.HandlerFunc(s.handleGetBill)))
	s.mux.Handle("GET /bills/create", protect(http.HandlerFunc(s.handleCreatePage)))
	s.mux.Handle("POST /bills/create", protect(http.HandlerFunc(s.handleCreateBill)))
	s.mux.Handle("GET /bills/update/{id}", protect(http.HandlerFunc(s.handleUpdatePage)))
	s.mux.Handle("POST /bills/update/{id}", protect(http.HandlerFunc(s.handleUpdateBill)))
	s.mux.Handle("POST /bills/delete/{id}", protect(http.HandlerFunc(s.handleDeleteBill)))
	s.mux.Handle("GET /balances", protect(http.HandlerFunc(s.handleBalances)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// page is the JSON document a view renders.
type page struct {
	Page     string                   `json:"page"`
	Username string                   `json:"username,omitempty"`
	Messages Flashes                  `json:"messages"`
	Bills    []*api.Bill              `json:"bills,omitempty"`
	Bill     *api.Bill                `json:"bill,omitempty"`
	Balances *api.GetBalancesResponse `json:"balances,omitempty"`
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, p page) {
	p.Username = middleware.GetUsername(r.Context())
	p.Messages = popFlashes(w, r)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p); err != nil {
		s.logger.Error("Failed to write page", "page", p.Page, "error", err)
	}
}

// redirect queues flash messages and sends the client to location.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, location string, msgs ...flash) {
	addFlash(w, r, msgs...)
	http.Redirect(w, r, location, http.StatusFound)
}

// startSession sets the session cookie for account.
func (s *Server) startSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, s.cookies.New(token))
}

// expiredSession handles a token whose account no longer exists.
func (s *Server) expiredSession(w http.ResponseWriter, r *http.Request, err error) bool {
	if !apperr.Is(err, apperr.KindUnauthenticated) {
		return false
	}
	http.SetCookie(w, s.cookies.Clear())
	http.Redirect(w, r, middleware.LoginPath, http.StatusFound)
	return true
}

// warning turns a directory sync warning from a successful write into a
// flash. It is empty when there was no warning.
func warning(err error) flash {
	if err == nil {
		return flash{}
	}
	return flash{kind: flashWarning, text: displayMessage(err, "Bill saved with warnings.")}
}

// statusFor maps an error kind to the HTTP status used when a page cannot
// render.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
