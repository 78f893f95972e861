package access

import (
	"testing"

	"fleetconsole/internal/session"
)

func signedIn(role session.Role) *session.Session {
	return &session.Session{
		UserID: "1", Name: "N", Email: "n@fleet.test", Role: role,
		AccessToken: "a", RefreshToken: "r",
	}
}

func TestAuthorizeDriverOnAdminScreenIsForbidden(t *testing.T) {
	if got := Authorize(signedIn(session.RoleDriver), session.RoleAdmin); got != RedirectForbidden {
		t.Fatalf("Authorize = %s, want redirect_forbidden", got)
	}
}

func TestAuthorizeUnauthenticatedAlwaysLogin(t *testing.T) {
	incomplete := signedIn(session.RoleAdmin)
	incomplete.RefreshToken = ""

	for _, s := range []*session.Session{nil, {}, incomplete} {
		if got := Authorize(s); got != RedirectLogin {
			t.Fatalf("Authorize(%#v) = %s, want redirect_login", s, got)
		}
		if got := Authorize(s, session.RoleAdmin); got != RedirectLogin {
			t.Fatalf("Authorize(%#v, admin) = %s, want redirect_login", s, got)
		}
	}
}

func TestAuthorizeNormalizesRoleCase(t *testing.T) {
	s := signedIn("Dispatcher")
	if got := Authorize(s, "DISPATCHER"); got != Allow {
		t.Fatalf("Authorize = %s, want allow", got)
	}
}

func TestAuthorizeNoRequiredRoles(t *testing.T) {
	if got := Authorize(signedIn(session.RoleUser)); got != Allow {
		t.Fatalf("Authorize = %s, want allow", got)
	}
}

func TestLanding(t *testing.T) {
	cases := map[session.Role]string{
		session.RoleAdmin:      "/admin",
		session.RoleDispatcher: "/dispatcher",
		session.RoleUser:       "/user",
		session.RoleDriver:     "/driver",
	}
	for role, want := range cases {
		got, ok := Landing(signedIn(role))
		if !ok || got != want {
			t.Fatalf("Landing(%s) = %q %v, want %q", role, got, ok, want)
		}
	}
	if got, ok := Landing(signedIn("owner")); ok || got != LoginPath {
		t.Fatalf("unknown role should land on login, got %q %v", got, ok)
	}
	if got, ok := Landing(nil); ok || got != LoginPath {
		t.Fatalf("no session should land on login, got %q %v", got, ok)
	}
}

func TestTableResolve(t *testing.T) {
	table := DefaultTable()
	dispatcher := signedIn(session.RoleDispatcher)

	if got := table.Resolve("/dispatcher", dispatcher); got != Allow {
		t.Fatalf("/dispatcher = %s", got)
	}
	if got := table.Resolve("/dispatcher/requests/4", dispatcher); got != Allow {
		t.Fatalf("/dispatcher/requests/4 = %s", got)
	}
	if got := table.Resolve("/admin", dispatcher); got != RedirectForbidden {
		t.Fatalf("/admin = %s", got)
	}
	if got := table.Resolve("/administrator", dispatcher); got != Allow {
		t.Fatalf("prefix match must respect path segments, got %s", got)
	}
	if got := table.Resolve("/reports/trips", dispatcher); got != Allow {
		t.Fatalf("/reports/trips = %s", got)
	}
	if got := table.Resolve("/notifications", nil); got != RedirectLogin {
		t.Fatalf("/notifications without session = %s", got)
	}
	if got := table.Resolve("/login", nil); got != Allow {
		t.Fatalf("/login is public, got %s", got)
	}
}
