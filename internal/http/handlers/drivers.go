package handlers

import (
	"github.com/gin-gonic/gin"
)

func (h *Console) ListDrivers(c *gin.Context) {
	page, err := h.API.ListDrivers(c.Request.Context(), pagination(c))
	if err != nil {
		RespondDomainError(c, "drivers", err)
		return
	}
	h.screen(c, "admin/drivers", gin.H{"drivers": page})
}

func (h *Console) ListCars(c *gin.Context) {
	page, err := h.API.ListCars(c.Request.Context(), pagination(c))
	if err != nil {
		RespondDomainError(c, "cars", err)
		return
	}
	h.screen(c, "admin/cars", gin.H{"cars": page})
}
