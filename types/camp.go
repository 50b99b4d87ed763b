package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOccupancyOutOfRange = errors.New("occupancy out of range")
	ErrInvalidCamp         = errors.New("invalid camp")
)

// FacilityOptions are the facilities staff can tick when registering a camp.
var FacilityOptions = []string{
	"Medical Clinic",
	"Food Distribution",
	"Water Supply",
	"Sanitation",
	"Shelter",
	"Security",
	"Communication Center",
	"Children's Area",
	"Education Center",
	"Registration Office",
}

// ValidateOccupancy enforces 0 <= value <= capacity at the edit boundary.
func ValidateOccupancy(value, capacity int) error {
	if value < 0 || value > capacity {
		return fmt.Errorf("%w: must be between 0 and %d", ErrOccupancyOutOfRange, capacity)
	}
	return nil
}

// NewCamp is the admin form for registering a camp. Latitude and Longitude are
// pointers so that a missing coordinate can be told apart from zero.
type NewCamp struct {
	Name          string   `json:"name"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Address       string   `json:"address"`
	Capacity      int      `json:"capacity"`
	Facilities    []string `json:"facilities"`
	ContactPerson string   `json:"contact_person"`
	ContactPhone  string   `json:"contact_phone"`
	Description   string   `json:"description"`
}

// HasCoordinates reports whether both coordinates were supplied.
func (n NewCamp) HasCoordinates() bool {
	return n.Latitude != nil && n.Longitude != nil
}

// Validate checks the form once coordinates are known.
func (n NewCamp) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: camp name is required", ErrInvalidCamp)
	}
	if !n.HasCoordinates() {
		return fmt.Errorf("%w: latitude and longitude are required", ErrInvalidCamp)
	}
	lat, lng := *n.Latitude, *n.Longitude
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: invalid coordinates", ErrInvalidCamp)
	}
	if n.Capacity <= 0 {
		return fmt.Errorf("%w: valid capacity is required", ErrInvalidCamp)
	}
	return nil
}
