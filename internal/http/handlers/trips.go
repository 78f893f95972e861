package handlers

import (
	"strconv"

	"fleetconsole/internal/domain/models"
	"fleetconsole/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Console) UserHome(c *gin.Context) {
	h.screen(c, "user", gin.H{"links": []string{"/user/trips", "/addresses/departure", "/addresses/destination"}})
}

func (h *Console) DriverHome(c *gin.Context) {
	h.screen(c, "driver", gin.H{"links": []string{"/driver/trips"}})
}

// UserTrips lists the signed-in requester's trip history.
func (h *Console) UserTrips(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	uid, _ := strconv.ParseInt(sess.UserID, 10, 64)
	p := pagination(c)
	page, err := h.API.ListTrips(c.Request.Context(), models.TripFilter{RequesterID: uid, Page: p.Page, PageSize: p.PageSize})
	if err != nil {
		RespondDomainError(c, "trips", err)
		return
	}
	h.screen(c, "user/trips", gin.H{"trips": page})
}

// DriverTrips lists the runs of the driver record matching the signed-in
// account's name.
func (h *Console) DriverTrips(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	driver, err := h.API.FindDriverByName(c.Request.Context(), sess.Name)
	if err != nil {
		RespondDomainError(c, "trips", err)
		return
	}
	p := pagination(c)
	page, err := h.API.ListTrips(c.Request.Context(), models.TripFilter{DriverID: driver.ID, Page: p.Page, PageSize: p.PageSize})
	if err != nil {
		RespondDomainError(c, "trips", err)
		return
	}
	h.screen(c, "driver/trips", gin.H{"driver": driver, "trips": page})
}
