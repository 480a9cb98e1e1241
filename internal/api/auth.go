package api

import (
	"context"
	"errors"
	"strings"

	"github.com/mboxlabs/mailctl/internal/client"
)

var (
	ErrCredentialsRequired = errors.New("api: username and password required")
	ErrMissingToken        = errors.New("api: login response missing token")
)

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResult struct {
	Token string `json:"token"`
}

// Login authenticates and stores the returned session token. Subsequent
// calls carry it automatically.
func (s *Service) Login(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return ErrCredentialsRequired
	}
	data, err := s.client.Invoke(ctx, client.MethodCreate, "auth/login", loginPayload{
		Username: username,
		Password: password,
	})
	if err != nil {
		return err
	}
	var res loginResult
	if err := decode(data, &res); err != nil {
		return err
	}
	if strings.TrimSpace(res.Token) == "" {
		return ErrMissingToken
	}
	return s.client.Sessions().Set(res.Token)
}

// Logout ends the remote session and clears the local token. The local
// token is cleared even when the remote call fails, so a broken backend
// cannot pin a stale session.
func (s *Service) Logout(ctx context.Context) error {
	_, err := s.client.Invoke(ctx, client.MethodCreate, "auth/logout", nil)
	if cerr := s.client.Sessions().Clear(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
