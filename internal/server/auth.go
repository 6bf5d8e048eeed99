package server

import (
	"context"
	"net/http"
	"strings"

	"rotorcharter/internal/domain"
	"rotorcharter/internal/services"
	apperrors "rotorcharter/pkg/errors"
)

// Authenticator logs operators in and resolves their bearer tokens.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

type userKey struct{}

// WithUser returns a copy of ctx carrying the authenticated operator.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom returns the authenticated operator, if any.
func UserFrom(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(*domain.User)
	return u, ok && u != nil
}

type access int

const (
	anyOperator access = iota
	staffOnly
	adminOnly
)

// guard requires a valid bearer token with the given access level.
func (s *Server) guard(level access, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token := bearerToken(r)
		if token == "" {
			s.fail(ctx, w, apperrors.New(apperrors.ErrCodeUnauthorized, "Authorization header required"))
			return
		}
		user, err := s.auth.Authenticate(ctx, token)
		if err != nil {
			s.fail(ctx, w, err)
			return
		}

		switch {
		case level == adminOnly && !user.IsAdmin:
			s.fail(ctx, w, apperrors.New(apperrors.ErrCodeForbidden, "Admin access required"))
			return
		case level == staffOnly && !user.CanTriage():
			s.fail(ctx, w, apperrors.New(apperrors.ErrCodeForbidden, "Staff access required"))
			return
		}
		h(w, r.WithContext(WithUser(ctx, user)))
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(ctx, w, err)
		return
	}
	result, err := s.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		s.fail(ctx, w, err)
		return
	}
	s.ok(ctx, w, result)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	s.ok(r.Context(), w, user)
}
