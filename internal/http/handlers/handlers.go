package handlers

import (
	"context"
	"time"

	"fleetconsole/internal/api"
	"fleetconsole/internal/approval"
	"fleetconsole/internal/cache"
	"fleetconsole/internal/history"
	"fleetconsole/internal/http/middleware"
	"fleetconsole/internal/notify"
	"fleetconsole/internal/session"
)

// SessionStore is the part of session.Store the console screens use.
type SessionStore interface {
	GetSession() *session.Session
	Clear(ctx context.Context) error
}

// Console holds the dependencies of the console screens.
type Console struct {
	API        *api.Client
	Sessions   SessionStore
	Workflow   *approval.Workflow
	Selections *approval.SelectionBook
	History    *history.Store
	Cache      cache.Cache
	CacheTTL   time.Duration
	Feed       *notify.Sink
	Devices    *notify.Registrar
	Flashes    *middleware.Flashes
}

func (h *Console) cacheTTL() time.Duration {
	if h.CacheTTL <= 0 {
		return 30 * time.Second
	}
	return h.CacheTTL
}
