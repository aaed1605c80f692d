package models

import "fmt"

// Race represents a single championship round
type Race struct {
	RaceID    int    `json:"race_id" validate:"required,gt=0"`
	Year      int    `json:"year" validate:"required,gt=1949"`
	Round     int    `json:"round" validate:"required,gt=0"`
	CircuitID int    `json:"circuit_id"`
	Name      string `json:"name" validate:"required"`
}

// Driver represents a driver dimension row
type Driver struct {
	DriverID int    `json:"driver_id" validate:"required,gt=0"`
	Forename string `json:"forename"`
	Surname  string `json:"surname"`
}

// FullName returns the display name used by every aggregate.
// Identically named drivers are not disambiguated.
func (d *Driver) FullName() string {
	return fmt.Sprintf("%s %s", d.Forename, d.Surname)
}

// Constructor represents a team dimension row
type Constructor struct {
	ConstructorID int    `json:"constructor_id" validate:"required,gt=0"`
	Name          string `json:"name" validate:"required"`
}
