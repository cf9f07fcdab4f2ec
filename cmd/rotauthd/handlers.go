package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/fenrirsec/rotauth"
	"github.com/fenrirsec/rotauth/metrics/export/prometheus"
	"github.com/fenrirsec/rotauth/middleware"
)

const refreshCookie = "refresh_token"

type server struct {
	engine  *rotauth.Engine
	metrics bool
}

func newServer(engine *rotauth.Engine, metrics bool) *server {
	return &server{engine: engine, metrics: metrics}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/refresh", s.handleRefresh)

	guard := middleware.RequireAccess(s.engine)
	mux.Handle("POST /auth/logout", guard(http.HandlerFunc(s.handleLogout)))
	mux.Handle("GET /auth/me", guard(http.HandlerFunc(s.handleMe)))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.metrics {
		mux.Handle("GET /metrics", prometheus.Handler(s.engine))
	}

	return mux
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type identityResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type tokenResponse struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	AccessExpiresIn  int64  `json:"accessExpiresIn"`
	RefreshExpiresIn int64  `json:"refreshExpiresIn"`
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, rotauth.CodeBadRequest, "malformed request body")
		return
	}

	ident, err := s.engine.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toIdentityResponse(ident))
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, rotauth.CodeBadRequest, "malformed request body")
		return
	}

	pair, err := s.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writePair(w, pair)
}

func (s *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token := refreshTokenFrom(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, rotauth.CodeInvalidToken, "missing refresh token")
		return
	}

	pair, err := s.engine.Refresh(r.Context(), token)
	if err != nil {
		clearRefreshCookie(w)
		s.writeEngineError(w, err)
		return
	}
	s.writePair(w, pair)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, rotauth.CodeInvalidToken, "unauthorized")
		return
	}

	// Empty token means revoke every session for the subject.
	if err := s.engine.Logout(r.Context(), claims.SubjectID, refreshTokenFrom(r)); err != nil {
		s.writeEngineError(w, err)
		return
	}
	clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, rotauth.CodeInvalidToken, "unauthorized")
		return
	}

	ident, err := s.engine.CurrentUser(r.Context(), claims.SubjectID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityResponse(ident))
}

// refreshTokenFrom prefers the cookie and falls back to the JSON body, so
// browser and API clients both work.
func refreshTokenFrom(r *http.Request) string {
	if c, err := r.Cookie(refreshCookie); err == nil && c.Value != "" {
		return c.Value
	}
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

func (s *server) writePair(w http.ResponseWriter, pair *rotauth.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    pair.RefreshToken,
		Path:     "/auth",
		MaxAge:   int(pair.RefreshExpiresIn),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresIn:  pair.AccessExpiresIn,
		RefreshExpiresIn: pair.RefreshExpiresIn,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func toIdentityResponse(ident *rotauth.Identity) identityResponse {
	return identityResponse{
		ID:        ident.SubjectID,
		Email:     ident.Email,
		Name:      ident.Name,
		CreatedAt: ident.CreatedAt,
	}
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *server) writeEngineError(w http.ResponseWriter, err error) {
	code := rotauth.CodeOf(err)
	writeError(w, statusFor(err), code, messageFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, rotauth.ErrInvalidCredentials),
		errors.Is(err, rotauth.ErrInvalidToken),
		errors.Is(err, rotauth.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, rotauth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, rotauth.ErrInvalidEmail), errors.Is(err, rotauth.ErrWeakPassword):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	if errors.Is(err, rotauth.ErrUnavailable) || errors.Is(err, rotauth.ErrEngineNotReady) {
		// Internal detail stays in the logs.
		return "internal error"
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("rotauthd: encode response: %v", err)
	}
}
