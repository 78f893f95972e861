package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fleetconsole/internal/approval"
	"fleetconsole/internal/cache"
	"fleetconsole/internal/domain"
	"fleetconsole/internal/domain/models"

	"github.com/gin-gonic/gin"
)

func (h *Console) DispatcherHome(c *gin.Context) {
	h.screen(c, "dispatcher", gin.H{"links": []string{"/dispatcher/requests", "/reports/requests"}})
}

// ListRequests serves the dispatcher's request table from the query cache.
func (h *Console) ListRequests(c *gin.Context) {
	p := pagination(c)
	f := models.RequestFilter{Username: strings.TrimSpace(c.Query("username")), Page: p.Page, PageSize: p.PageSize}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		st, ok := models.ParseRequestStatus(raw)
		if !ok {
			RespondDomainError(c, "requests", domain.ValidationError{Field: "status", Msg: "unknown status " + raw})
			return
		}
		f.Status = &st
	}

	status := "all"
	if f.Status != nil {
		status = f.Status.String()
	}
	key := fmt.Sprintf("%slist:%s:%s:%d:%d", approval.RequestCachePrefix, status, strings.ToLower(f.Username), f.Page, f.PageSize)

	ctx := c.Request.Context()
	page, err := cache.Fetch(ctx, h.Cache, key, h.cacheTTL(), func(ctx context.Context) (domain.Page[models.TransportRequest], error) {
		return h.API.ListRequests(ctx, f)
	})
	if err != nil {
		RespondDomainError(c, "requests", err)
		return
	}
	h.screen(c, "dispatcher/requests", gin.H{"requests": page, "filter": gin.H{"status": status, "username": f.Username}})
}

// request reads one request through the cache, so the dialog and its
// submit see the same snapshot. Every transition invalidates it.
func (h *Console) request(ctx context.Context, id int64) (models.TransportRequest, error) {
	key := fmt.Sprintf("%sitem:%d", approval.RequestCachePrefix, id)
	return cache.Fetch(ctx, h.Cache, key, h.cacheTTL(), func(ctx context.Context) (models.TransportRequest, error) {
		return h.API.GetRequest(ctx, id)
	})
}

// GetRequest opens the approval dialog for one request.
func (h *Console) GetRequest(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	req, err := h.request(ctx, id)
	if err != nil {
		RespondDomainError(c, "requests", err)
		return
	}
	drivers, err := h.API.ListDrivers(ctx, domain.Pagination{PageSize: 100})
	if err != nil {
		RespondDomainError(c, "requests", err)
		return
	}
	h.screen(c, "dispatcher/request", gin.H{
		"request":   req,
		"drivers":   drivers.Items,
		"selection": h.Selections.Get(id),
	})
}

type selectionInput struct {
	RouteID    string `json:"routeId"`
	DriverID   int64  `json:"driverId"`
	DriverName string `json:"driverName"`
}

// SetSelection records the driver picked for one route. A blank name clears
// the pick.
func (h *Console) SetSelection(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var in selectionInput
	if !BindJSONOrError(c, &in) {
		return
	}
	if strings.TrimSpace(in.RouteID) == "" {
		RespondDomainError(c, "approval", domain.ValidationError{Field: "routeId", Msg: "route is required"})
		return
	}
	sel := h.Selections.Set(id, in.RouteID, approval.DriverOption{ID: in.DriverID, Name: in.DriverName})
	c.JSON(http.StatusOK, gin.H{"selection": sel})
}

// ClearSelection closes the approval dialog without submitting.
func (h *Console) ClearSelection(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	h.Selections.Close(id)
	c.Status(http.StatusNoContent)
}

func (h *Console) Approve(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	req, err := h.request(ctx, id)
	if err != nil {
		RespondDomainError(c, "approval", err)
		return
	}

	updated, err := h.Workflow.Approve(ctx, req, h.Selections.Get(id))
	if errors.Is(err, approval.ErrAlreadyApproved) {
		respondNotification(c, http.StatusOK, levelInfo, "request is already approved", gin.H{"request": updated})
		return
	}
	if err != nil {
		RespondDomainError(c, "approval", err)
		return
	}
	respondNotification(c, http.StatusOK, levelSuccess, fmt.Sprintf("request #%d approved", id), gin.H{"request": updated})
}

type rejectInput struct {
	Comments string `json:"comments"`
}

func (h *Console) Reject(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var in rejectInput
	if !BindJSONOrError(c, &in) {
		return
	}
	ctx := c.Request.Context()
	// blank reasons are refused before the request is even fetched
	if strings.TrimSpace(in.Comments) == "" {
		RespondDomainError(c, "approval", domain.ValidationError{Field: "comments", Msg: approval.MsgReasonRequired})
		return
	}
	req, err := h.request(ctx, id)
	if err != nil {
		RespondDomainError(c, "approval", err)
		return
	}
	updated, err := h.Workflow.Reject(ctx, req, in.Comments)
	if err != nil {
		RespondDomainError(c, "approval", err)
		return
	}
	respondNotification(c, http.StatusOK, levelSuccess, fmt.Sprintf("request #%d rejected", id), gin.H{"request": updated})
}
