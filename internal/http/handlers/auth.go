package handlers

import (
	"net/http"

	"fleetconsole/internal/access"
	"fleetconsole/internal/api"
	"fleetconsole/internal/http/middleware"
	"fleetconsole/internal/session"
	"fleetconsole/internal/utils"

	"github.com/gin-gonic/gin"
)

func (h *Console) LoginView(c *gin.Context) {
	if path, ok := access.Landing(h.Sessions.GetSession()); ok {
		c.Redirect(http.StatusFound, path)
		return
	}
	h.screen(c, "login", nil)
}

// Login signs the operator in and answers with the role's landing screen.
func (h *Console) Login(c *gin.Context) {
	var creds api.Credentials
	if !BindJSONOrError(c, &creds) {
		return
	}
	sess, err := h.API.Login(c.Request.Context(), creds)
	if err != nil {
		RespondDomainError(c, "auth", err)
		return
	}
	h.signedIn(c, sess, "welcome back, "+sess.Name)
}

func (h *Console) RegisterView(c *gin.Context) {
	h.screen(c, "register", nil)
}

// Register starts a sign-up. The backend mails a confirmation code.
func (h *Console) Register(c *gin.Context) {
	var reg api.Registration
	if !BindJSONOrError(c, &reg) {
		return
	}
	if err := h.API.Register(c.Request.Context(), reg); err != nil {
		RespondDomainError(c, "auth", err)
		return
	}
	respondNotification(c, http.StatusAccepted, levelInfo, "check your email for the confirmation code",
		gin.H{"next": "/confirm", "email": utils.TrimOrEmpty(reg.Email)})
}

func (h *Console) ConfirmView(c *gin.Context) {
	h.screen(c, "confirm", gin.H{"email": c.Query("email")})
}

type confirmInput struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *Console) Confirm(c *gin.Context) {
	var in confirmInput
	if !BindJSONOrError(c, &in) {
		return
	}
	sess, err := h.API.Confirm(c.Request.Context(), in.Email, in.Code)
	if err != nil {
		RespondDomainError(c, "auth", err)
		return
	}
	h.signedIn(c, sess, "account confirmed")
}

func (h *Console) signedIn(c *gin.Context, sess *session.Session, message string) {
	if h.Devices != nil {
		if err := h.Devices.EnsureRegistered(c.Request.Context(), sess); err != nil {
			utils.LogEvent(middleware.GetRequestID(c), "notify", "register_device", err.Error())
		}
	}
	home, ok := access.Landing(sess)
	if !ok {
		home = access.LoginPath
	}
	respondNotification(c, http.StatusOK, levelSuccess, message, gin.H{
		"redirect": home,
		"user":     gin.H{"id": sess.UserID, "name": sess.Name, "email": sess.Email, "role": sess.Role},
	})
}

// Logout clears the local session and returns to the login screen.
func (h *Console) Logout(c *gin.Context) {
	if err := h.API.Logout(c.Request.Context()); err != nil {
		RespondDomainError(c, "auth", err)
		return
	}
	if h.Flashes != nil {
		h.Flashes.Add(c, levelInfo, "you have been logged out")
	}
	c.Redirect(http.StatusFound, access.LoginPath)
}
