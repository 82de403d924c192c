package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/desertthunder/notenexus/internal/auth"
	"github.com/desertthunder/notenexus/internal/server"
	"github.com/desertthunder/notenexus/internal/shared"
)

type registerRequest struct {
	Name     string `json:"name" validate:"nonblank"`
	Email    string `json:"email" validate:"nonblank,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"nonblank"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (a *API) registerAuth(router *server.BasicRouter, limit server.Middleware) {
	router.Handle(http.MethodPost, "/api/auth/register", server.Chain(http.HandlerFunc(a.register), limit))
	router.Handle(http.MethodPost, "/api/auth/login", server.Chain(http.HandlerFunc(a.login), limit))
	router.Handle(http.MethodGet, "/api/auth/user", server.Chain(http.HandlerFunc(a.profile), server.Authenticate(a.accounts, a.logger)))
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := a.validator.decode(r, &req); err != nil {
		msg := ""
		if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
			msg = "Please enter all fields"
		}
		a.fail(w, r, err, msg)
		return
	}

	token, _, err := a.accounts.Register(req.Name, req.Email, req.Password)
	if err != nil {
		a.fail(w, r, err, "")
		return
	}
	server.WriteJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := a.validator.decode(r, &req); err != nil {
		a.fail(w, r, err, "Please enter all fields")
		return
	}

	token, err := a.accounts.Login(req.Email, req.Password)
	if err != nil {
		msg := ""
		if errors.Is(err, shared.ErrInvalidCredentials) {
			msg = "Invalid credentials"
		}
		a.fail(w, r, err, msg)
		return
	}
	server.WriteJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (a *API) profile(w http.ResponseWriter, r *http.Request) {
	user, err := a.accounts.Profile(auth.UserID(r.Context()))
	if err != nil {
		a.fail(w, r, err, "User not found")
		return
	}
	server.WriteJSON(w, http.StatusOK, user)
}
