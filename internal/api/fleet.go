package api

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"fleetconsole/internal/domain"
	"fleetconsole/internal/domain/models"
	"fleetconsole/internal/utils"
)

func (c *Client) ListDrivers(ctx context.Context, p domain.Pagination) (domain.Page[models.Driver], error) {
	var out domain.Page[models.Driver]
	err := c.get(ctx, "/drivers", pageQuery(p.Page, p.PageSize), &out)
	return out, err
}

// FindDriverByName resolves a display name to a driver record. The match is
// case-insensitive; more than one match is reported as a conflict.
func (c *Client) FindDriverByName(ctx context.Context, name string) (models.Driver, error) {
	name = utils.NormalizeSpace(name)
	if name == "" {
		return models.Driver{}, domain.ValidationError{Field: "driver", Msg: "driver name is required"}
	}
	var out domain.Page[models.Driver]
	if err := c.get(ctx, "/drivers", url.Values{"name": {name}}, &out); err != nil {
		return models.Driver{}, err
	}

	var matches []models.Driver
	for _, d := range out.Items {
		if utils.FoldKey(d.Name) == utils.FoldKey(name) {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return models.Driver{}, domain.NotFoundError{Resource: "driver " + name}
	case 1:
		return matches[0], nil
	default:
		return models.Driver{}, domain.ConflictError{Resource: "driver", Msg: "more than one driver named " + name}
	}
}

func (c *Client) ListCars(ctx context.Context, p domain.Pagination) (domain.Page[models.Car], error) {
	var out domain.Page[models.Car]
	err := c.get(ctx, "/cars", pageQuery(p.Page, p.PageSize), &out)
	return out, err
}

func (c *Client) ListTrips(ctx context.Context, f models.TripFilter) (domain.Page[models.Trip], error) {
	q := pageQuery(f.Page, f.PageSize)
	if f.DriverID > 0 {
		q.Set("driverId", strconv.FormatInt(f.DriverID, 10))
	}
	if f.RequesterID > 0 {
		q.Set("requesterId", strconv.FormatInt(f.RequesterID, 10))
	}
	var out domain.Page[models.Trip]
	err := c.get(ctx, "/trips", q, &out)
	return out, err
}

// RegisterDevice announces a push device token for the signed-in user.
func (c *Client) RegisterDevice(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ValidationError{Field: "token", Msg: "device token is required"}
	}
	return c.call(ctx, "POST", "/devices", nil, map[string]string{"token": token}, nil)
}
