package handlers

import (
	"net/http"

	"fleetconsole/internal/domain/models"

	"github.com/gin-gonic/gin"
)

func (h *Console) AdminHome(c *gin.Context) {
	h.screen(c, "admin", gin.H{"links": []string{"/admin/users", "/admin/drivers", "/admin/cars", "/reports/requests"}})
}

func (h *Console) ListUsers(c *gin.Context) {
	page, err := h.API.ListUsers(c.Request.Context(), pagination(c))
	if err != nil {
		RespondDomainError(c, "users", err)
		return
	}
	h.screen(c, "admin/users", gin.H{"users": page})
}

func (h *Console) GetUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	u, err := h.API.GetUser(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, "users", err)
		return
	}
	h.screen(c, "admin/user", gin.H{"user_record": u})
}

func (h *Console) CreateUser(c *gin.Context) {
	var in models.UserInput
	if !BindJSONOrError(c, &in) {
		return
	}
	u, err := h.API.CreateUser(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, "users", err)
		return
	}
	respondNotification(c, http.StatusCreated, levelSuccess, "user "+u.Name+" created", gin.H{"user_record": u})
}

func (h *Console) UpdateUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var in models.UserInput
	if !BindJSONOrError(c, &in) {
		return
	}
	u, err := h.API.UpdateUser(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, "users", err)
		return
	}
	respondNotification(c, http.StatusOK, levelSuccess, "user "+u.Name+" updated", gin.H{"user_record": u})
}

func (h *Console) DeleteUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.API.DeleteUser(c.Request.Context(), id); err != nil {
		RespondDomainError(c, "users", err)
		return
	}
	respondNotification(c, http.StatusOK, levelSuccess, "user deleted", nil)
}
