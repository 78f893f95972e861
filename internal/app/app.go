// Package app assembles the console from its parts.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"fleetconsole/internal/access"
	"fleetconsole/internal/api"
	"fleetconsole/internal/approval"
	"fleetconsole/internal/cache"
	intconfig "fleetconsole/internal/config"
	"fleetconsole/internal/gateway"
	"fleetconsole/internal/history"
	router "fleetconsole/internal/http"
	"fleetconsole/internal/http/handlers"
	"fleetconsole/internal/notify"
	"fleetconsole/internal/session"
	"fleetconsole/internal/storage"

	"github.com/gin-gonic/gin"
)

const reconnectDelay = 5 * time.Second

type App struct {
	Engine   *gin.Engine
	Sessions *session.Store
	API      *api.Client
	Cache    cache.Cache
	Feed     *notify.Sink
	Devices  *notify.Registrar

	sources     []notify.Source
	unsubscribe func()
	wg          sync.WaitGroup
}

// New builds the console on top of backend. The persisted session is
// restored before any screen is served.
func New(ctx context.Context, env intconfig.Env, backend storage.Store) (*App, error) {
	sessions := session.NewStore(backend)
	if err := sessions.Load(ctx); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	gw := gateway.New(env.APIBaseURL, &http.Client{Timeout: env.HTTPTimeout}, sessions)
	client := api.New(gw, sessions)

	qc, err := cache.Open(env.CacheDriver, env.RedisAddr)
	if err != nil {
		return nil, err
	}

	selections := approval.NewSelectionBook()
	feed := notify.NewSink(50)
	devices := &notify.Registrar{API: client, Store: backend}

	console := &handlers.Console{
		API:        client,
		Sessions:   sessions,
		Workflow:   &approval.Workflow{Backend: client, Cache: qc, Selections: selections},
		Selections: selections,
		History:    history.New(backend),
		Cache:      qc,
		CacheTTL:   env.CacheTTL,
		Feed:       feed,
		Devices:    devices,
	}

	a := &App{
		Engine:   router.NewRouter(env, console, access.DefaultTable()),
		Sessions: sessions,
		API:      client,
		Cache:    qc,
		Feed:     feed,
		Devices:  devices,
	}

	a.unsubscribe = sessions.Subscribe(func(s *session.Session) {
		if s == nil {
			devices.Forget()
			// cached listings belong to the previous identity
			if err := qc.InvalidatePrefix(context.Background(), approval.RequestCachePrefix); err != nil {
				log.Printf("[APP] cache invalidate on logout: %v", err)
			}
		}
	})

	if wsURL, err := socketURL(env.APIBaseURL); err == nil {
		a.sources = append(a.sources, &notify.WebSocketSource{URL: wsURL, Sessions: sessions})
	} else {
		log.Printf("[APP] websocket notifications disabled: %v", err)
	}
	if env.AMQPURL != "" {
		a.sources = append(a.sources, &notify.AMQPSource{URL: env.AMQPURL, Queue: env.NotifyQueue})
	}
	return a, nil
}

// StartNotifications keeps every notification source connected until ctx
// ends.
func (a *App) StartNotifications(ctx context.Context) {
	for _, src := range a.sources {
		a.wg.Add(1)
		go func(src notify.Source) {
			defer a.wg.Done()
			notify.Supervise(ctx, src, a.Feed, reconnectDelay)
		}(src)
	}
}

// Close waits for notification sources (their ctx must be cancelled first)
// and releases the cache.
func (a *App) Close() {
	a.wg.Wait()
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if closer, ok := a.Cache.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}

// socketURL turns the REST base into the notification socket address.
func socketURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path += "/notifications/ws"
	return u.String(), nil
}
