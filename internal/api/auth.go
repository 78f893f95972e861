package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"fleetconsole/internal/domain"
	"fleetconsole/internal/domain/models"
	"fleetconsole/internal/gateway"
	"fleetconsole/internal/session"
	"fleetconsole/internal/utils"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate runs the pre-flight checks shared by login and registration.
func (c Credentials) Validate() error {
	if !strings.Contains(strings.TrimSpace(c.Email), "@") {
		return domain.ValidationError{Field: "email", Msg: "enter a valid email"}
	}
	if c.Password == "" {
		return domain.ValidationError{Field: "password", Msg: "password is required"}
	}
	return nil
}

func (r Registration) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return domain.ValidationError{Field: "name", Msg: "name is required"}
	}
	if err := (Credentials{Email: r.Email, Password: r.Password}).Validate(); err != nil {
		return err
	}
	if len(r.Password) < 8 {
		return domain.ValidationError{Field: "password", Msg: "password must be at least 8 characters"}
	}
	return nil
}

func (c *Client) anonymous(ctx context.Context, path string, body, dst any) error {
	req, err := gateway.JSONRequest(http.MethodPost, path, body)
	if err != nil {
		return err
	}
	req.Anonymous = true
	return c.GW.ExecuteJSON(ctx, req, dst)
}

// Login exchanges credentials for tokens and stores the new session.
func (c *Client) Login(ctx context.Context, creds Credentials) (*session.Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	var out models.AuthResult
	if err := c.anonymous(ctx, "/auth/login", creds, &out); err != nil {
		return nil, err
	}
	return c.establish(ctx, out)
}

// Register creates an account. The backend emails a confirmation code;
// no session exists until Confirm succeeds.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	reg.Email = strings.TrimSpace(reg.Email)
	if err := reg.Validate(); err != nil {
		return err
	}
	return c.anonymous(ctx, "/auth/register", reg, nil)
}

// Confirm verifies the emailed code and signs the account in.
func (c *Client) Confirm(ctx context.Context, email, code string) (*session.Session, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.ValidationError{Field: "code", Msg: "confirmation code is required"}
	}
	var out models.AuthResult
	body := map[string]string{"email": strings.TrimSpace(email), "code": code}
	if err := c.anonymous(ctx, "/auth/confirm", body, &out); err != nil {
		return nil, err
	}
	return c.establish(ctx, out)
}

func (c *Client) establish(ctx context.Context, out models.AuthResult) (*session.Session, error) {
	role, ok := session.ParseRole(out.User.Role)
	if !ok {
		return nil, domain.AuthError{Kind: domain.AuthForbidden, Msg: "unsupported role " + out.User.Role}
	}
	sess := session.Session{
		UserID:       strconv.FormatInt(out.User.ID, 10),
		Name:         out.User.Name,
		Email:        out.User.Email,
		Role:         role,
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}
	if err := c.Sessions.SetSession(ctx, sess); err != nil {
		return nil, domain.InternalError{Msg: "cannot store session", Err: err}
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "auth", "login", "user_id="+sess.UserID+" role="+string(role))
	return c.Sessions.GetSession(), nil
}

// Logout drops the local session. The backend keeps no server-side state
// for access tokens.
func (c *Client) Logout(ctx context.Context) error {
	return c.Sessions.Clear(ctx)
}
