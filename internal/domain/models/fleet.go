package models

type Driver struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	CarID int64  `json:"carId,omitempty"`
}

type Car struct {
	ID    int64  `json:"id"`
	Plate string `json:"plate"`
	Model string `json:"model"`
	Seats int    `json:"seats"`
}

// Trip is a completed route run, used for trip history screens.
type Trip struct {
	ID          int64   `json:"id"`
	RequestID   int64   `json:"requestId"`
	DriverID    int64   `json:"driverId"`
	RequesterID int64   `json:"requesterId"`
	Date        string  `json:"date"`
	Departure   string  `json:"departure"`
	Destination string  `json:"destination"`
	DistanceKm  float64 `json:"distanceKm"`
}

type TripFilter struct {
	DriverID    int64
	RequesterID int64
	Page        int
	PageSize    int
}
