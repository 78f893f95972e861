package handlers

import (
	"net/http"

	"fleetconsole/internal/access"
	"fleetconsole/internal/domain"
	"fleetconsole/internal/http/middleware"
	"fleetconsole/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	levelInfo    = "info"
	levelSuccess = "success"
	levelWarning = "warning"
	levelError   = "error"
)

// Notification is the toast the console shows for an outcome.
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func respondNotification(c *gin.Context, status int, level, message string, extra gin.H) {
	payload := gin.H{
		"notification": Notification{Level: level, Message: message},
		"request_id":   middleware.GetRequestID(c),
	}
	for k, v := range extra {
		payload[k] = v
	}
	c.JSON(status, payload)
}

// RespondDomainError maps domain errors to a notification response.
// Validation and conflict messages from the backend are shown verbatim.
func RespondDomainError(c *gin.Context, module string, err error) {
	msg := domain.UserMessage(err)
	utils.LogEvent(middleware.GetRequestID(c), module, "error", err.Error())

	switch {
	case domain.IsValidation(err):
		respondNotification(c, http.StatusBadRequest, levelWarning, msg, nil)
	case domain.IsConflict(err):
		respondNotification(c, http.StatusConflict, levelWarning, msg, nil)
	case domain.IsNotFound(err):
		respondNotification(c, http.StatusNotFound, levelWarning, msg, nil)
	case domain.IsAuth(err):
		switch domain.AuthKindOf(err) {
		case domain.AuthForbidden:
			respondNotification(c, http.StatusForbidden, levelError, msg, nil)
		case domain.AuthInvalidCredentials:
			respondNotification(c, http.StatusUnauthorized, levelError, msg, nil)
		default:
			// the gateway already cleared the session
			respondNotification(c, http.StatusUnauthorized, levelError, msg, gin.H{"redirect": access.LoginPath})
		}
	case domain.IsNetwork(err):
		respondNotification(c, http.StatusBadGateway, levelError, msg, nil)
	case domain.IsInternal(err):
		respondNotification(c, http.StatusInternalServerError, levelError, msg, nil)
	default:
		respondNotification(c, http.StatusBadGateway, levelError, msg, nil)
	}
}
