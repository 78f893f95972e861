// Package access decides whether the current identity may open a screen.
package access

import (
	"sort"
	"strings"

	"fleetconsole/internal/session"
)

type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectForbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectForbidden:
		return "redirect_forbidden"
	}
	return "unknown"
}

const (
	LoginPath     = "/login"
	ForbiddenPath = "/forbidden"
)

// Authorize applies, in order: no complete session → RedirectLogin;
// required roles given and role not among them → RedirectForbidden;
// otherwise Allow.
func Authorize(s *session.Session, required ...session.Role) Decision {
	if !s.IsAuthenticated() {
		return RedirectLogin
	}
	if len(required) == 0 {
		return Allow
	}
	role, _ := session.ParseRole(string(s.Role))
	for _, r := range required {
		if want, _ := session.ParseRole(string(r)); want == role {
			return Allow
		}
	}
	return RedirectForbidden
}

var landing = map[session.Role]string{
	session.RoleAdmin:      "/admin",
	session.RoleDispatcher: "/dispatcher",
	session.RoleUser:       "/user",
	session.RoleDriver:     "/driver",
}

// Landing returns the default screen for the session's role. ok is false
// when the visit has to go to the login screen instead.
func Landing(s *session.Session) (path string, ok bool) {
	if !s.IsAuthenticated() {
		return LoginPath, false
	}
	role, known := session.ParseRole(string(s.Role))
	if !known {
		return LoginPath, false
	}
	return landing[role], true
}

// Table maps screen path prefixes to the roles allowed on them. An empty
// role list means any signed-in identity.
type Table struct {
	prefixes []string
	roles    map[string][]session.Role
}

func NewTable() *Table {
	return &Table{roles: map[string][]session.Role{}}
}

func (t *Table) Register(prefix string, roles ...session.Role) *Table {
	prefix = "/" + strings.Trim(prefix, "/")
	if _, exists := t.roles[prefix]; !exists {
		t.prefixes = append(t.prefixes, prefix)
		sort.Slice(t.prefixes, func(i, j int) bool { return len(t.prefixes[i]) > len(t.prefixes[j]) })
	}
	t.roles[prefix] = roles
	return t
}

// Lookup returns the roles of the longest registered prefix of path.
func (t *Table) Lookup(path string) (roles []session.Role, protected bool) {
	for _, p := range t.prefixes {
		if path == p || p == "/" || strings.HasPrefix(path, p+"/") {
			return t.roles[p], true
		}
	}
	return nil, false
}

// Resolve authorizes a navigation to path. Unregistered paths are public.
func (t *Table) Resolve(path string, s *session.Session) Decision {
	roles, protected := t.Lookup(path)
	if !protected {
		return Allow
	}
	return Authorize(s, roles...)
}

// DefaultTable is the console's screen map.
func DefaultTable() *Table {
	return NewTable().
		Register("/admin", session.RoleAdmin).
		Register("/dispatcher", session.RoleDispatcher).
		Register("/user", session.RoleUser).
		Register("/driver", session.RoleDriver).
		Register("/reports", session.RoleAdmin, session.RoleDispatcher).
		Register("/addresses", session.RoleAdmin, session.RoleDispatcher, session.RoleUser).
		Register("/notifications").
		Register("/me")
}
