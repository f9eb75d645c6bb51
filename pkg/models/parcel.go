package models

import (
	"strings"

	"github.com/google/uuid"
)

// Parcel is a named plot of land that owns sensors
type Parcel struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Location string    `json:"location"`
}

// ParcelInput is the writable part of a parcel
type ParcelInput struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Validate checks required parcel fields
func (p *ParcelInput) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Location = strings.TrimSpace(p.Location)

	verr := NewValidationError()
	if p.Name == "" {
		verr.Add("name", "Name and Location are required.")
	}
	if p.Location == "" {
		verr.Add("location", "Name and Location are required.")
	}
	return verr.OrNil()
}

// ParcelOverview is a parcel with its sensors as shown on the dashboard
type ParcelOverview struct {
	Parcel
	Sensors []SensorOverview `json:"sensors"`
}
