// Package api is the typed client for the fleet backend. Every call goes
// through the gateway; none of these functions touch the session store's
// persistence directly.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"fleetconsole/internal/gateway"
	"fleetconsole/internal/session"
)

// Executor is the gateway surface used by the client.
type Executor interface {
	Execute(ctx context.Context, req gateway.Request) (*gateway.Response, error)
	ExecuteJSON(ctx context.Context, req gateway.Request, dst any) error
}

// Sessions is what login/logout need from the session store.
type Sessions interface {
	GetSession() *session.Session
	SetSession(ctx context.Context, s session.Session) error
	Clear(ctx context.Context) error
}

type Client struct {
	GW       Executor
	Sessions Sessions
}

func New(gw Executor, sessions Sessions) *Client {
	return &Client{GW: gw, Sessions: sessions}
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, dst any) error {
	req, err := gateway.JSONRequest(method, path, body)
	if err != nil {
		return err
	}
	req.Query = query
	return c.GW.ExecuteJSON(ctx, req, dst)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dst any) error {
	return c.call(ctx, http.MethodGet, path, query, nil, dst)
}

func pageQuery(page, pageSize int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}
	return q
}

func idPath(prefix string, id int64) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}
