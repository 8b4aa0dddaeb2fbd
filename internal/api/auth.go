package api

import (
	"context"
	"net/http"
)

// Login exchanges credentials for a bearer token. It does not require an
// existing session.
func (s AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var result AuthResponse
	err := s.do(ctx, request{
		op:     "auth.login",
		method: http.MethodPost,
		url:    s.endpoints().Login(),
		body:   req,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates an account and returns its first token.
func (s AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var result AuthResponse
	err := s.do(ctx, request{
		op:     "auth.register",
		method: http.MethodPost,
		url:    s.endpoints().Register(),
		body:   req,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Me fetches the logged-in user's profile, role and balance.
func (s AuthService) Me(ctx context.Context) (*User, error) {
	return s.fetchUser(ctx, "auth.me", s.endpoints().Profile())
}

// Balance fetches the wallet balance.
func (s AuthService) Balance(ctx context.Context) (Money, error) {
	u, err := s.fetchUser(ctx, "auth.balance", s.endpoints().Balance())
	if err != nil {
		return "", err
	}
	return u.Balance, nil
}

func (s AuthService) fetchUser(ctx context.Context, op, url string) (*User, error) {
	var result UserResponse
	err := s.do(ctx, request{op: op, method: http.MethodGet, url: url, auth: true}, &result)
	if err != nil {
		return nil, err
	}
	if result.User == nil {
		return &User{}, nil
	}
	return result.User, nil
}
