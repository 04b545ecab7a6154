package model

import "time"

// Shop is a physical or virtual partner location.
type Shop struct {
	ID           int          `json:"id" db:"id"`
	Name         string       `json:"name" db:"name"`
	Address      string       `json:"address,omitempty" db:"address"`
	Phone        string       `json:"phone,omitempty" db:"phone"`
	Email        string       `json:"email,omitempty" db:"email"`
	Website      string       `json:"website,omitempty" db:"website"`
	Description  string       `json:"description,omitempty" db:"description"`
	OpeningHours string       `json:"opening_hours,omitempty" db:"opening_hours"`
	Coordinates  *Coordinates `json:"coordinates,omitempty" db:"-"`
	IsActive     bool         `json:"is_active" db:"is_active"`
	PartnerID    int          `json:"partner_id" db:"partner_id"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
