package models

import "strings"

// RequestStatus is the lifecycle state of a transportation request.
type RequestStatus int

const (
	StatusCreated  RequestStatus = 0
	StatusApproved RequestStatus = 1
	StatusRejected RequestStatus = 2
)

func (s RequestStatus) Valid() bool {
	return s >= StatusCreated && s <= StatusRejected
}

func (s RequestStatus) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ParseRequestStatus accepts the numeric code or the name.
func ParseRequestStatus(raw string) (RequestStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "0", "created":
		return StatusCreated, true
	case "1", "approved":
		return StatusApproved, true
	case "2", "rejected":
		return StatusRejected, true
	}
	return 0, false
}

// TransportRequest is a requester's trip order with one or more routes.
type TransportRequest struct {
	ID               int64         `json:"id"`
	Date             string        `json:"date"`
	RequesterID      int64         `json:"requesterId"`
	RequesterName    string        `json:"requesterName,omitempty"`
	Status           RequestStatus `json:"status"`
	StatusText       string        `json:"statusText"`
	Comments         string        `json:"comments"`
	Routes           []Route       `json:"routes"`
	AssignedDriverID int64         `json:"assignedDriverId,omitempty"`
}

// Route is one leg of a request. DriverName is the backend's free-text label.
type Route struct {
	ID          string `json:"id"`
	Goal        string `json:"goal"`
	Departure   string `json:"departure"`
	Destination string `json:"destination"`
	Time        string `json:"time"`
	UsageCount  int    `json:"usageCount"`
	DriverName  string `json:"driverName,omitempty"`
}

// RequestUpdate is the PATCH body for a request. Nil fields are left untouched.
type RequestUpdate struct {
	Status   *RequestStatus `json:"status,omitempty"`
	Comments *string        `json:"comments,omitempty"`
	DriverID *int64         `json:"driverId,omitempty"`
}

// RequestFilter narrows the request listing.
type RequestFilter struct {
	Status   *RequestStatus
	Username string
	Page     int
	PageSize int
}
