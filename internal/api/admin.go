package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Users returns one page of registered users.
func (s AdminService) Users(ctx context.Context, page int) (*Paginated[User], error) {
	var result Paginated[User]
	err := s.do(ctx, request{
		op:     "admin.users",
		method: http.MethodGet,
		url:    s.endpoints().AdminUsersPage(page),
		auth:   true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s AdminService) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	body, err := s.doRaw(ctx, request{
		op:     "admin.create_user",
		method: http.MethodPost,
		url:    s.endpoints().AdminUsers(),
		body:   req,
		auth:   true,
	})
	if err != nil {
		return nil, err
	}
	return decodeUser(body)
}

func (s AdminService) UpdateUser(ctx context.Context, id int, req UpdateUserRequest) (*User, error) {
	body, err := s.doRaw(ctx, request{
		op:     "admin.update_user",
		method: http.MethodPut,
		url:    s.endpoints().AdminUser(id),
		body:   req,
		auth:   true,
	})
	if err != nil {
		return nil, err
	}
	return decodeUser(body)
}

// ToggleRole flips a user between "user" and "admin".
func (s AdminService) ToggleRole(ctx context.Context, id int) (*ToggleRoleResponse, error) {
	var result ToggleRoleResponse
	err := s.do(ctx, request{
		op:     "admin.toggle_role",
		method: http.MethodPatch,
		url:    s.endpoints().AdminUserToggleRole(id),
		body:   struct{}{},
		auth:   true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteUser removes a user and returns the backend's confirmation message.
func (s AdminService) DeleteUser(ctx context.Context, id int) (string, error) {
	body, err := s.doRaw(ctx, request{
		op:     "admin.delete_user",
		method: http.MethodDelete,
		url:    s.endpoints().AdminUser(id),
		auth:   true,
	})
	if err != nil {
		return "", err
	}
	if len(body) == 0 {
		return "", nil
	}
	var result MessageResponse
	if err := decode(body, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

// decodeUser accepts both a bare user object and {"user": {...}}.
func decodeUser(body []byte) (*User, error) {
	var envelope struct {
		User *User `json:"user"`
	}
	if err := decode(body, &envelope); err != nil {
		return nil, err
	}
	if envelope.User != nil {
		return envelope.User, nil
	}
	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, &DecodeError{Body: truncateBody(string(body)), Err: err}
	}
	return &u, nil
}
