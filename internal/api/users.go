package api

import (
	"context"
	"net/http"
	"strings"

	"fleetconsole/internal/domain"
	"fleetconsole/internal/domain/models"
	"fleetconsole/internal/session"
)

func validateUserInput(in models.UserInput, creating bool) error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.ValidationError{Field: "name", Msg: "name is required"}
	}
	if !strings.Contains(in.Email, "@") {
		return domain.ValidationError{Field: "email", Msg: "enter a valid email"}
	}
	if _, ok := session.ParseRole(in.Role); !ok {
		return domain.ValidationError{Field: "role", Msg: "role must be admin, dispatcher, user or driver"}
	}
	if creating && len(in.Password) < 8 {
		return domain.ValidationError{Field: "password", Msg: "password must be at least 8 characters"}
	}
	return nil
}

func (c *Client) ListUsers(ctx context.Context, p domain.Pagination) (domain.Page[models.User], error) {
	var out domain.Page[models.User]
	err := c.get(ctx, "/users", pageQuery(p.Page, p.PageSize), &out)
	return out, err
}

func (c *Client) GetUser(ctx context.Context, id int64) (models.User, error) {
	var out models.User
	err := c.get(ctx, idPath("/users", id), nil, &out)
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, in models.UserInput) (models.User, error) {
	if err := validateUserInput(in, true); err != nil {
		return models.User{}, err
	}
	var out models.User
	err := c.call(ctx, http.MethodPost, "/users", nil, in, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, id int64, in models.UserInput) (models.User, error) {
	if err := validateUserInput(in, false); err != nil {
		return models.User{}, err
	}
	var out models.User
	err := c.call(ctx, http.MethodPut, idPath("/users", id), nil, in, &out)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, idPath("/users", id), nil, nil, nil)
}
