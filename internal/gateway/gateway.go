// Package gateway sends backend calls on behalf of the signed-in operator.
// It injects the bearer token and, on a 401, refreshes the token at most once
// per call and retries the call at most once.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"fleetconsole/internal/domain"
	"fleetconsole/internal/session"
	"fleetconsole/internal/utils"

	"golang.org/x/sync/singleflight"
)

const DefaultRefreshPath = "/auth/refresh"

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// SessionStore is the part of session.Store the gateway needs.
type SessionStore interface {
	GetSession() *session.Session
	UpdateAccessToken(ctx context.Context, refreshToken, accessToken string) error
	Clear(ctx context.Context) error
}

// Request describes one backend call. Path is joined to the base URL unless
// it is absolute. Body is kept as bytes so the call can be replayed.
type Request struct {
	Method    string
	Path      string
	Query     url.Values
	Header    http.Header
	Body      []byte
	Anonymous bool
}

// JSONRequest builds a Request with a JSON body.
func JSONRequest(method, path string, body any) (Request, error) {
	req := Request{Method: method, Path: path, Header: http.Header{}}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return Request{}, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		req.Body = raw
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) DecodeJSON(dst any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, dst); err != nil {
		return domain.InternalError{Msg: "invalid response payload", Err: err}
	}
	return nil
}

type Gateway struct {
	BaseURL     string
	Client      Doer
	Sessions    SessionStore
	RefreshPath string

	refreshes singleflight.Group
}

func New(baseURL string, client Doer, sessions SessionStore) *Gateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &Gateway{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Client:      client,
		Sessions:    sessions,
		RefreshPath: DefaultRefreshPath,
	}
}

// Execute sends req. Non-2xx responses come back as typed domain errors.
func (g *Gateway) Execute(ctx context.Context, req Request) (*Response, error) {
	token, refreshToken := "", ""
	if !req.Anonymous {
		if sess := g.Sessions.GetSession(); sess != nil {
			token, refreshToken = sess.AccessToken, sess.RefreshToken
		}
	}

	resp, err := g.send(ctx, req, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || req.Anonymous {
		return classify(req, resp)
	}

	fresh, err := g.refresh(ctx, token, refreshToken)
	if err != nil {
		return nil, err
	}

	resp, err = g.send(ctx, req, fresh)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		utils.LogEvent(utils.RequestIDFrom(ctx), "gateway", "retry", "retry still unauthorized, clearing session")
		if err := g.Sessions.Clear(ctx); err != nil {
			utils.LogEvent(utils.RequestIDFrom(ctx), "gateway", "retry", "clear session failed: "+err.Error())
		}
		return nil, domain.AuthError{Kind: domain.AuthUnauthorized, Msg: errorMessage(resp.Body)}
	}
	return classify(req, resp)
}

// ExecuteJSON sends req and decodes a successful body into dst (may be nil).
func (g *Gateway) ExecuteJSON(ctx context.Context, req Request, dst any) error {
	resp, err := g.Execute(ctx, req)
	if err != nil {
		return err
	}
	if dst == nil {
		return nil
	}
	return resp.DecodeJSON(dst)
}

func (g *Gateway) url(req Request) (string, error) {
	raw := req.Path
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = g.BaseURL + "/" + strings.TrimLeft(raw, "/")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", domain.ValidationError{Field: "path", Msg: "invalid request path", Err: err}
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (g *Gateway) send(ctx context.Context, req Request, token string) (*Response, error) {
	target, err := g.url(req)
	if err != nil {
		return nil, err
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, domain.InternalError{Msg: "cannot build request", Err: err}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Del("Authorization")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := g.Client.Do(httpReq)
	if err != nil {
		return nil, domain.NetworkError{Op: method + " " + req.Path, Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, domain.NetworkError{Op: "read " + req.Path, Err: err}
	}
	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header.Clone(), Body: raw}, nil
}

var errSessionReplaced = domain.AuthError{Kind: domain.AuthUnauthorized, Msg: "signed out during refresh"}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// refresh returns a usable access token after a 401 for staleToken, which was
// sent under refreshToken. A token is only returned while the stored session
// still carries that refresh token. Concurrent callers holding the same
// refresh token share one exchange.
func (g *Gateway) refresh(ctx context.Context, staleToken, refreshToken string) (string, error) {
	reqID := utils.RequestIDFrom(ctx)
	cur := g.Sessions.GetSession()
	if cur == nil || cur.RefreshToken == "" {
		utils.LogEvent(reqID, "gateway", "refresh", "no refresh token, logging out")
		if err := g.Sessions.Clear(ctx); err != nil {
			utils.LogEvent(reqID, "gateway", "refresh", "clear session failed: "+err.Error())
		}
		return "", domain.AuthError{Kind: domain.AuthUnauthorized, Msg: "not signed in"}
	}
	if cur.RefreshToken != refreshToken {
		utils.LogEvent(reqID, "gateway", "refresh", "session replaced since the request was sent, not retrying")
		return "", errSessionReplaced
	}
	if cur.AccessToken != "" && cur.AccessToken != staleToken {
		// another call already refreshed
		return cur.AccessToken, nil
	}

	v, err, shared := g.refreshes.Do(cur.RefreshToken, func() (any, error) {
		// a flight that finished just before this one already stored a token
		if now := g.Sessions.GetSession(); now != nil && now.RefreshToken == cur.RefreshToken && now.AccessToken != staleToken {
			return now.AccessToken, nil
		}
		return g.exchange(context.WithoutCancel(ctx), cur.RefreshToken)
	})
	if shared {
		utils.LogEvent(reqID, "gateway", "refresh", "joined in-flight refresh")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (g *Gateway) exchange(ctx context.Context, refreshToken string) (string, error) {
	reqID := utils.RequestIDFrom(ctx)
	fail := func(err error) (string, error) {
		utils.LogEvent(reqID, "gateway", "refresh", "refresh failed, logging out: "+err.Error())
		if cerr := g.Sessions.Clear(ctx); cerr != nil {
			utils.LogEvent(reqID, "gateway", "refresh", "clear session failed: "+cerr.Error())
		}
		return "", domain.AuthError{Kind: domain.AuthRefreshFailed, Msg: "token refresh failed", Err: err}
	}

	path := g.RefreshPath
	if path == "" {
		path = DefaultRefreshPath
	}
	req, err := JSONRequest(http.MethodPost, path, map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return fail(err)
	}
	resp, err := g.send(ctx, req, "")
	if err != nil {
		return fail(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(fmt.Errorf("refresh status %d: %s", resp.StatusCode, errorMessage(resp.Body)))
	}
	var out refreshResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return fail(err)
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return fail(errors.New("refresh response without accessToken"))
	}

	if err := g.Sessions.UpdateAccessToken(ctx, refreshToken, out.AccessToken); err != nil {
		if errors.Is(err, session.ErrSessionReplaced) {
			utils.LogEvent(reqID, "gateway", "refresh", "session replaced during refresh, token discarded")
			return "", errSessionReplaced
		}
		return "", domain.InternalError{Msg: "cannot store refreshed token", Err: err}
	}
	utils.LogEvent(reqID, "gateway", "refresh", "access token refreshed token="+utils.MaskToken(out.AccessToken))
	return out.AccessToken, nil
}
