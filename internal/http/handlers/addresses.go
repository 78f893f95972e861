package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Console) ListAddresses(c *gin.Context) {
	entries, err := h.History.List(c.Request.Context(), c.Param("field"))
	if err != nil {
		RespondDomainError(c, "history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"field": c.Param("field"), "entries": entries})
}

type addressInput struct {
	Value string `json:"value"`
}

// SaveAddress records a submitted address so it is offered first next time.
func (h *Console) SaveAddress(c *gin.Context) {
	var in addressInput
	if !BindJSONOrError(c, &in) {
		return
	}
	entries, err := h.History.Save(c.Request.Context(), c.Param("field"), in.Value)
	if err != nil {
		RespondDomainError(c, "history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"field": c.Param("field"), "entries": entries})
}

func (h *Console) ClearAddresses(c *gin.Context) {
	if err := h.History.Clear(c.Request.Context(), c.Param("field")); err != nil {
		RespondDomainError(c, "history", err)
		return
	}
	c.Status(http.StatusNoContent)
}
