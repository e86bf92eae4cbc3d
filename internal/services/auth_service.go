package services

import (
	"errors"
	"net/http"

	"kioskpos/internal/client"
	"kioskpos/internal/domain"
	"kioskpos/internal/repos"
)

var ErrBadCreds = errors.New("invalid username or password")

// AuthBackend verifies operator credentials upstream; the kiosk never
// sees a password hash.
type AuthBackend interface {
	Login(username, password string) (string, error)
	CheckAuth(token string) (bool, error)
}

type AuthService struct {
	Backend  AuthBackend
	Sessions *repos.SessionRepo
}

func (s *AuthService) Login(sid, username, password string) (domain.AdminSession, error) {
	tok, err := s.Backend.Login(username, password)
	if client.IsStatus(err, http.StatusUnauthorized) || client.IsStatus(err, http.StatusForbidden) {
		return domain.AdminSession{}, ErrBadCreds
	}
	if err != nil {
		return domain.AdminSession{}, err
	}
	if err := s.Sessions.BindAdmin(sid, tok); err != nil {
		return domain.AdminSession{}, err
	}
	return domain.AdminSession{SessionID: sid, Token: tok, Authenticated: true}, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Sessions.UnbindAdmin(sid)
}

// Current resolves the admin session for sid. A token the backend no
// longer accepts is dropped.
func (s *AuthService) Current(sid string) (domain.AdminSession, error) {
	sess := domain.AdminSession{SessionID: sid}
	if sid == "" {
		return sess, nil
	}
	tok, err := s.Sessions.AdminToken(sid)
	if err != nil || tok == "" {
		return sess, err
	}
	ok, err := s.Backend.CheckAuth(tok)
	if err != nil {
		return sess, err
	}
	if !ok {
		return sess, s.Sessions.UnbindAdmin(sid)
	}
	sess.Token, sess.Authenticated = tok, true
	return sess, nil
}
