package web

import (
	"net/http"
	"strings"

	"github.com/yurawu27/splittie/internal/apperr"
	"github.com/yurawu27/splittie/internal/auth"
	"github.com/yurawu27/splittie/internal/middleware"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if middleware.GetAccountID(r.Context()) == "" {
		http.Redirect(w, r, middleware.LoginPath, http.StatusFound)
		return
	}
	http.Redirect(w, r, "/bills", http.StatusFound)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, page{Page: "register"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirect(w, r, "/register", failure("Registration error"))
		return
	}

	account, err := s.authenticator.Register(r.Context(), auth.RegisterInput{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
		Name:     strings.TrimSpace(r.PostForm.Get("name")),
		Phone:    strings.TrimSpace(r.PostForm.Get("phoneNumber")),
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			s.logger.Error("Registration failed", "error", err)
		}
		s.redirect(w, r, "/register", failure(displayMessage(err, "Registration error")))
		return
	}

	token, err := s.jwtManager.Generate(account)
	if err != nil {
		s.logger.Error("Failed to generate token", "account_id", account.ID, "error", err)
		s.redirect(w, r, middleware.LoginPath, failure("Registered, but could not log in."))
		return
	}

	s.logger.Info("Account registered", "account_id", account.ID, "username", account.Username)
	s.startSession(w, token)
	s.redirect(w, r, "/", success("Registered successfully!"))
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, page{Page: "login"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirect(w, r, middleware.LoginPath, failure("Login failed."))
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	account, err := s.authenticator.Authenticate(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			s.logger.Error("Login failed", "username", username, "error", err)
		} else {
			s.logger.Info("Login rejected", "username", username, "reason", apperr.CodeOf(err))
		}
		s.redirect(w, r, middleware.LoginPath, failure(displayMessage(err, "Login failed.")))
		return
	}

	token, err := s.jwtManager.Generate(account)
	if err != nil {
		s.logger.Error("Failed to generate token", "account_id", account.ID, "error", err)
		s.redirect(w, r, middleware.LoginPath, failure("Login failed."))
		return
	}

	s.startSession(w, token)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.cookies.Clear())
	http.Redirect(w, r, middleware.LoginPath, http.StatusFound)
}
