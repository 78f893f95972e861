package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fleetconsole/internal/domain"
	"fleetconsole/internal/session"
	"fleetconsole/internal/storage"
)

type backend struct {
	mu          sync.Mutex
	validToken  string
	refreshOK   bool
	refreshWait time.Duration

	calls     atomic.Int32
	refreshes atomic.Int32
	lastAuth  []string
	lastQuery url.Values
	lastBody  string
	lastExtra string

	// onOrder runs inside the /orders/5 handler before it answers 401.
	onOrder func()
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.refreshes.Add(1)
		time.Sleep(b.refreshWait)
		var in struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		if !b.refreshOK || in.RefreshToken != "refresh-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"refresh token expired"}`)
			return
		}
		b.mu.Lock()
		b.validToken = "access-2"
		b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "access-2"})
	})
	mux.HandleFunc("/api/requests", func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.lastAuth = r.Header.Values("Authorization")
		b.lastQuery = r.URL.Query()
		b.lastBody = string(body)
		b.lastExtra = r.Header.Get("X-Trace")
		valid := b.validToken
		b.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer "+valid {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"token expired"}`)
			return
		}
		_, _ = io.WriteString(w, `{"items":[],"page":1,"pageSize":20,"total":0}`)
	})
	mux.HandleFunc("/api/broken", func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"boom"}`)
	})
	mux.HandleFunc("/api/requests/9", func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"field":"driverId","message":"driver already assigned to request #4"}`)
	})
	mux.HandleFunc("/api/locked", func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		b.mu.Lock()
		b.lastAuth = r.Header.Values("Authorization")
		b.mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"account locked"}`)
	})
	mux.HandleFunc("/api/orders/5", func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		b.mu.Lock()
		b.lastAuth = r.Header.Values("Authorization")
		b.mu.Unlock()
		if b.onOrder != nil {
			b.onOrder()
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"token expired"}`)
	})
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		b.mu.Lock()
		b.lastAuth = r.Header.Values("Authorization")
		b.mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"invalid credentials"}`)
	})
	return mux
}

func setup(t *testing.T, b *backend, withSession bool) (*Gateway, *session.Store) {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	store := session.NewStore(storage.NewMemoryStore())
	if withSession {
		err := store.SetSession(context.Background(), session.Session{
			UserID: "7", Name: "Dina", Email: "dina@fleet.test", Role: session.RoleDispatcher,
			AccessToken: "access-1", RefreshToken: "refresh-1",
		})
		if err != nil {
			t.Fatalf("SetSession: %v", err)
		}
	}
	return New(srv.URL+"/api", srv.Client(), store), store
}

func TestExecuteAttachesSingleBearerAndForwardsFields(t *testing.T) {
	b := &backend{validToken: "access-1"}
	gw, _ := setup(t, b, true)

	req := Request{
		Method: http.MethodPost,
		Path:   "/requests",
		Query:  url.Values{"status": {"0"}},
		Header: http.Header{"X-Trace": {"abc"}, "Authorization": {"Bearer stale"}},
		Body:   []byte(`{"k":"v"}`),
	}
	resp, err := gw.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(b.lastAuth) != 1 || b.lastAuth[0] != "Bearer access-1" {
		t.Fatalf("Authorization headers = %#v", b.lastAuth)
	}
	if b.lastExtra != "abc" || b.lastQuery.Get("status") != "0" || b.lastBody != `{"k":"v"}` {
		t.Fatalf("request fields not forwarded: extra=%q query=%v body=%q", b.lastExtra, b.lastQuery, b.lastBody)
	}
	if b.refreshes.Load() != 0 {
		t.Fatalf("no refresh expected")
	}
}

func TestExecuteRefreshesOnceAndRetriesOnce(t *testing.T) {
	b := &backend{validToken: "access-2", refreshOK: true}
	gw, store := setup(t, b, true)

	if _, err := gw.Execute(context.Background(), Request{Path: "/requests"}); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if got := b.refreshes.Load(); got != 1 {
		t.Fatalf("refresh calls = %d, want 1", got)
	}
	if got := b.calls.Load(); got != 2 {
		t.Fatalf("endpoint calls = %d, want original + one retry", got)
	}
	if b.lastAuth[0] != "Bearer access-2" {
		t.Fatalf("retry must carry new token, got %v", b.lastAuth)
	}
	sess := store.GetSession()
	if sess.AccessToken != "access-2" || sess.RefreshToken != "refresh-1" || sess.UserID != "7" {
		t.Fatalf("session after refresh = %#v", sess)
	}
}

func TestExecuteRefreshFailureClearsSessionWithoutRetry(t *testing.T) {
	b := &backend{validToken: "access-2", refreshOK: false}
	gw, store := setup(t, b, true)

	_, err := gw.Execute(context.Background(), Request{Path: "/requests"})
	if domain.AuthKindOf(err) != domain.AuthRefreshFailed {
		t.Fatalf("expected refresh_failed auth error, got %v", err)
	}
	if got := b.refreshes.Load(); got != 1 {
		t.Fatalf("refresh calls = %d, want 1", got)
	}
	if got := b.calls.Load(); got != 1 {
		t.Fatalf("original call must not be retried, calls = %d", got)
	}
	if store.GetSession() != nil {
		t.Fatalf("session should be cleared")
	}
}

func TestExecuteRetryStill401ClearsSessionWithoutSecondRefresh(t *testing.T) {
	b := &backend{validToken: "access-2", refreshOK: true}
	gw, store := setup(t, b, true)

	_, err := gw.Execute(context.Background(), Request{Method: http.MethodPatch, Path: "/locked"})
	if domain.AuthKindOf(err) != domain.AuthUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if got := b.refreshes.Load(); got != 1 {
		t.Fatalf("refresh calls = %d, want 1", got)
	}
	if got := b.calls.Load(); got != 2 {
		t.Fatalf("endpoint calls = %d, want original + one retry", got)
	}
	if len(b.lastAuth) != 1 || b.lastAuth[0] != "Bearer access-2" {
		t.Fatalf("retry must carry refreshed token, got %v", b.lastAuth)
	}
	if store.GetSession() != nil {
		t.Fatalf("session should be cleared after the retry is rejected")
	}
}

func TestExecuteDoesNotRetryUnderReplacedSession(t *testing.T) {
	b := &backend{validToken: "access-2", refreshOK: true}
	gw, store := setup(t, b, true)
	other := session.Session{
		UserID: "2", Name: "Budi", Email: "budi@fleet.test", Role: session.RoleAdmin,
		AccessToken: "B-access", RefreshToken: "B-refresh",
	}
	b.onOrder = func() {
		if err := store.SetSession(context.Background(), other); err != nil {
			t.Errorf("SetSession: %v", err)
		}
	}

	_, err := gw.Execute(context.Background(), Request{Method: http.MethodPatch, Path: "/orders/5"})
	if domain.AuthKindOf(err) != domain.AuthUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if got := b.calls.Load(); got != 1 {
		t.Fatalf("call must not be retried under another identity, calls = %d", got)
	}
	if got := b.refreshes.Load(); got != 0 {
		t.Fatalf("refresh calls = %d, want 0", got)
	}
	if len(b.lastAuth) != 1 || b.lastAuth[0] != "Bearer access-1" {
		t.Fatalf("Authorization = %v, want the original token only", b.lastAuth)
	}
	sess := store.GetSession()
	if sess == nil || sess.UserID != "2" || sess.AccessToken != "B-access" {
		t.Fatalf("replacement session must stay intact, got %#v", sess)
	}
}

func TestExchangeDiscardsTokenWhenSessionReplaced(t *testing.T) {
	b := &backend{validToken: "access-2", refreshOK: true, refreshWait: 50 * time.Millisecond}
	gw, store := setup(t, b, true)

	done := make(chan error, 1)
	go func() {
		_, err := gw.Execute(context.Background(), Request{Path: "/orders/5"})
		done <- err
	}()
	for b.refreshes.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	err := store.SetSession(context.Background(), session.Session{
		UserID: "2", Name: "Budi", Role: session.RoleAdmin,
		AccessToken: "B-access", RefreshToken: "B-refresh",
	})
	if err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	if err := <-done; domain.AuthKindOf(err) != domain.AuthUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if got := b.calls.Load(); got != 1 {
		t.Fatalf("call must not be retried, calls = %d", got)
	}
	if sess := store.GetSession(); sess == nil || sess.AccessToken != "B-access" {
		t.Fatalf("replacement session must stay intact, got %#v", sess)
	}
}

func TestExecuteWithoutSessionSurfaces401(t *testing.T) {
	b := &backend{validToken: "access-1"}
	gw, _ := setup(t, b, false)

	_, err := gw.Execute(context.Background(), Request{Path: "/requests"})
	if domain.AuthKindOf(err) != domain.AuthUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if b.refreshes.Load() != 0 {
		t.Fatalf("no refresh without refresh token")
	}
	if len(b.lastAuth) != 0 {
		t.Fatalf("no Authorization header without session, got %v", b.lastAuth)
	}
}

func TestExecuteConcurrent401sShareOneRefresh(t *testing.T) {
	b := &backend{validToken: "access-2", refreshOK: true, refreshWait: 50 * time.Millisecond}
	gw, _ := setup(t, b, true)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gw.Execute(context.Background(), Request{Path: "/requests"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Execute error: %v", err)
		}
	}
	if got := b.refreshes.Load(); got != 1 {
		t.Fatalf("refresh calls = %d, want exactly 1", got)
	}
}

func TestExecuteDoesNotRetryServerErrors(t *testing.T) {
	b := &backend{validToken: "access-1"}
	gw, _ := setup(t, b, true)

	_, err := gw.Execute(context.Background(), Request{Path: "/broken"})
	var unknown domain.UnknownError
	if !asUnknown(err, &unknown) || unknown.Status != http.StatusInternalServerError {
		t.Fatalf("expected UnknownError 500, got %v", err)
	}
	if b.calls.Load() != 1 {
		t.Fatalf("5xx must not be retried, calls = %d", b.calls.Load())
	}
}

func TestExecuteSurfacesBackendValidationVerbatim(t *testing.T) {
	b := &backend{validToken: "access-1"}
	gw, _ := setup(t, b, true)

	_, err := gw.Execute(context.Background(), Request{Method: http.MethodPatch, Path: "/requests/9"})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := domain.UserMessage(err); got != "driver already assigned to request #4" {
		t.Fatalf("UserMessage = %q", got)
	}
}

func TestAnonymousRequestSkipsTokenAndRefresh(t *testing.T) {
	b := &backend{validToken: "access-1", refreshOK: true}
	gw, store := setup(t, b, true)

	_, err := gw.Execute(context.Background(), Request{Method: http.MethodPost, Path: "/auth/login", Anonymous: true})
	if domain.AuthKindOf(err) != domain.AuthInvalidCredentials {
		t.Fatalf("expected invalid_credentials, got %v", err)
	}
	if len(b.lastAuth) != 0 || b.refreshes.Load() != 0 {
		t.Fatalf("anonymous call leaked token or refreshed: auth=%v refreshes=%d", b.lastAuth, b.refreshes.Load())
	}
	if store.GetSession() == nil {
		t.Fatalf("failed login must not clear the existing session")
	}
}

func TestExecuteNetworkError(t *testing.T) {
	store := session.NewStore(storage.NewMemoryStore())
	gw := New("http://127.0.0.1:1/api", &http.Client{Timeout: time.Second}, store)

	_, err := gw.Execute(context.Background(), Request{Path: "/requests"})
	if !domain.IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func asUnknown(err error, target *domain.UnknownError) bool {
	u, ok := err.(domain.UnknownError)
	if ok {
		*target = u
	}
	return ok
}
