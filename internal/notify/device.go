package notify

import (
	"context"
	"fmt"
	"sync"

	"fleetconsole/internal/session"
	"fleetconsole/internal/storage"
	"fleetconsole/internal/utils"

	"github.com/google/uuid"
)

const deviceTokenKey = "deviceToken"

type DeviceAPI interface {
	RegisterDevice(ctx context.Context, token string) error
}

// Registrar announces this console's device token once per signed-in
// session.
type Registrar struct {
	API   DeviceAPI
	Store storage.Store

	mu         sync.Mutex
	registered string
}

// DeviceToken returns the persisted token, creating it on first use.
func (r *Registrar) DeviceToken(ctx context.Context) (string, error) {
	tok, ok, err := r.Store.Get(ctx, deviceTokenKey)
	if err != nil {
		return "", fmt.Errorf("read device token: %w", err)
	}
	if ok && tok != "" {
		return tok, nil
	}
	tok = uuid.NewString()
	if err := r.Store.SetMany(ctx, map[string]string{deviceTokenKey: tok}); err != nil {
		return "", fmt.Errorf("store device token: %w", err)
	}
	return tok, nil
}

// EnsureRegistered registers the device unless it already was for this
// session. Sessions are told apart by their refresh token.
func (r *Registrar) EnsureRegistered(ctx context.Context, sess *session.Session) error {
	if !sess.IsAuthenticated() {
		return ErrNotSignedIn
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.registered == sess.RefreshToken {
		return nil
	}
	tok, err := r.DeviceToken(ctx)
	if err != nil {
		return err
	}
	if err := r.API.RegisterDevice(ctx, tok); err != nil {
		return err
	}
	r.registered = sess.RefreshToken
	utils.LogEvent(utils.RequestIDFrom(ctx), "notify", "register_device", "user_id="+sess.UserID)
	return nil
}

// Forget drops the registration marker, e.g. on logout.
func (r *Registrar) Forget() {
	r.mu.Lock()
	r.registered = ""
	r.mu.Unlock()
}
