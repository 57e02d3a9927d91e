package services

import (
	"errors"

	"utok/internal/geo"
)

type Geocoder interface {
	Reverse(lat, lon float64) (geo.Address, error)
}

type LocationService struct {
	Geo Geocoder
}

func NewLocationService(g Geocoder) *LocationService { return &LocationService{Geo: g} }

type LocationInput struct {
	Granted bool     `json:"granted"`
	Lat     *float64 `json:"latitude"`
	Lon     *float64 `json:"longitude"`
}

type Location struct {
	Address geo.Address `json:"address"`
	Text    string      `json:"location"`
}

// Resolve turns the device position into the checkout location line. A
// denied permission is not fatal: the customer types the location instead.
func (s *LocationService) Resolve(in LocationInput) (Location, error) {
	if !in.Granted {
		return Location{}, ErrLocationDenied
	}
	if in.Lat == nil || in.Lon == nil {
		return Location{}, invalid("location", "Failed to get location. Please try again.")
	}
	lat, lon := *in.Lat, *in.Lon
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Location{}, invalid("location", "Failed to get location. Please try again.")
	}
	addr, err := s.Geo.Reverse(lat, lon)
	if errors.Is(err, geo.ErrNoAddress) {
		return Location{}, ErrNotFound
	}
	if err != nil {
		return Location{}, remote("geo.reverse", err)
	}
	return Location{Address: addr, Text: addr.String()}, nil
}
