package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"fleetconsole/internal/domain"
	"fleetconsole/internal/domain/models"
)

func (c *Client) ListRequests(ctx context.Context, f models.RequestFilter) (domain.Page[models.TransportRequest], error) {
	q := pageQuery(f.Page, f.PageSize)
	if f.Status != nil {
		q.Set("status", strconv.Itoa(int(*f.Status)))
	}
	if u := strings.TrimSpace(f.Username); u != "" {
		q.Set("username", u)
	}
	var out domain.Page[models.TransportRequest]
	err := c.get(ctx, "/requests", q, &out)
	return out, err
}

func (c *Client) GetRequest(ctx context.Context, id int64) (models.TransportRequest, error) {
	var out models.TransportRequest
	err := c.get(ctx, idPath("/requests", id), nil, &out)
	return out, err
}

func (c *Client) UpdateRequest(ctx context.Context, id int64, upd models.RequestUpdate) (models.TransportRequest, error) {
	var out models.TransportRequest
	err := c.call(ctx, http.MethodPatch, idPath("/requests", id), nil, upd, &out)
	return out, err
}
