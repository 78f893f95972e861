// Package approval drives a transportation request from created to approved
// or rejected.
package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fleetconsole/internal/domain"
	"fleetconsole/internal/domain/models"
	"fleetconsole/internal/utils"
)

// RequestCachePrefix is invalidated after every successful transition.
const RequestCachePrefix = "requests:"

const (
	MsgNoDriver       = "select a driver"
	MsgMixedDrivers   = "select the same driver for every route"
	MsgRouteUnstaffed = "select a driver for each route"
	MsgReasonRequired = "enter a reason for the rejection"
)

// ErrAlreadyApproved is informational: nothing was sent.
var ErrAlreadyApproved = errors.New("request is already approved")

type Backend interface {
	GetRequest(ctx context.Context, id int64) (models.TransportRequest, error)
	FindDriverByName(ctx context.Context, name string) (models.Driver, error)
	UpdateRequest(ctx context.Context, id int64, upd models.RequestUpdate) (models.TransportRequest, error)
}

type Invalidator interface {
	InvalidatePrefix(ctx context.Context, prefix string) error
}

type Workflow struct {
	Backend    Backend
	Cache      Invalidator
	Selections *SelectionBook
}

// ValidateSelection checks, in order: at least one pick, one distinct
// driver across all picks, and a pick on every route. Picks sharing a name
// but carrying different driver ids count as distinct drivers. It returns
// the chosen driver: the first route's pick, or the first pick with an id.
func ValidateSelection(routes []models.Route, sel Selection) (DriverOption, error) {
	var (
		chosen DriverOption
		picked int
	)
	names := map[string]struct{}{}
	ids := map[int64]struct{}{}
	for _, r := range routes {
		opt, ok := sel[r.ID]
		if !ok || utils.NormalizeSpace(opt.Name) == "" {
			continue
		}
		picked++
		names[utils.FoldKey(opt.Name)] = struct{}{}
		if opt.ID != 0 {
			ids[opt.ID] = struct{}{}
		}
		if chosen.Name == "" || (chosen.ID == 0 && opt.ID != 0) {
			chosen = opt
		}
	}
	if picked == 0 {
		return DriverOption{}, domain.ValidationError{Field: "driver", Msg: MsgNoDriver}
	}
	if len(names) > 1 || len(ids) > 1 {
		return DriverOption{}, domain.ValidationError{Field: "driver", Msg: MsgMixedDrivers}
	}
	if picked != len(routes) {
		return DriverOption{}, domain.ValidationError{Field: "driver", Msg: MsgRouteUnstaffed}
	}
	chosen.Name = utils.NormalizeSpace(chosen.Name)
	return chosen, nil
}

// Approve assigns the selected driver and moves req to approved. All local
// checks run before any backend call.
func (w *Workflow) Approve(ctx context.Context, req models.TransportRequest, sel Selection) (models.TransportRequest, error) {
	reqID := utils.RequestIDFrom(ctx)
	if req.Status == models.StatusApproved {
		utils.LogEvent(reqID, "approval", "approve", fmt.Sprintf("request_id=%d already approved, skipped", req.ID))
		return req, ErrAlreadyApproved
	}
	if len(req.Routes) == 0 {
		return req, domain.ValidationError{Field: "routes", Msg: "request has no routes"}
	}

	opt, err := ValidateSelection(req.Routes, sel)
	if err != nil {
		return req, err
	}

	driverID := opt.ID
	if driverID == 0 {
		driver, err := w.Backend.FindDriverByName(ctx, opt.Name)
		if err != nil {
			if domain.IsNotFound(err) {
				return req, domain.ValidationError{Field: "driver", Msg: "driver " + opt.Name + " was not found", Err: err}
			}
			return req, err
		}
		driverID = driver.ID
	}

	status := models.StatusApproved
	updated, err := w.Backend.UpdateRequest(ctx, req.ID, models.RequestUpdate{Status: &status, DriverID: &driverID})
	if err != nil {
		utils.LogEvent(reqID, "approval", "approve", fmt.Sprintf("request_id=%d failed: %v", req.ID, err))
		return req, err
	}
	utils.LogEvent(reqID, "approval", "approve", fmt.Sprintf("request_id=%d driver_id=%d", req.ID, driverID))

	if w.Selections != nil {
		w.Selections.Close(req.ID)
	}
	return w.settle(ctx, req.ID, updated), nil
}

// Reject moves req to rejected with a reason. The backend is called
// whenever the reason is not blank.
func (w *Workflow) Reject(ctx context.Context, req models.TransportRequest, reason string) (models.TransportRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return req, domain.ValidationError{Field: "comments", Msg: MsgReasonRequired}
	}

	status := models.StatusRejected
	updated, err := w.Backend.UpdateRequest(ctx, req.ID, models.RequestUpdate{Status: &status, Comments: &reason})
	if err != nil {
		utils.LogEvent(utils.RequestIDFrom(ctx), "approval", "reject", fmt.Sprintf("request_id=%d failed: %v", req.ID, err))
		return req, err
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "approval", "reject", fmt.Sprintf("request_id=%d", req.ID))

	if w.Selections != nil {
		w.Selections.Close(req.ID)
	}
	return w.settle(ctx, req.ID, updated), nil
}

// settle invalidates cached listings, then refetches the request so the
// caller sees the stored status and driver. The mutation already
// succeeded, so refetch failures fall back to the update response.
func (w *Workflow) settle(ctx context.Context, id int64, updated models.TransportRequest) models.TransportRequest {
	reqID := utils.RequestIDFrom(ctx)
	if w.Cache != nil {
		if err := w.Cache.InvalidatePrefix(ctx, RequestCachePrefix); err != nil {
			utils.LogEvent(reqID, "approval", "invalidate", err.Error())
		}
	}
	fresh, err := w.Backend.GetRequest(ctx, id)
	if err != nil {
		utils.LogEvent(reqID, "approval", "refetch", fmt.Sprintf("request_id=%d: %v", id, err))
		return updated
	}
	return fresh
}
