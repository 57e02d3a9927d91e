// Package geo turns device coordinates into a readable address using a
// Nominatim-compatible reverse geocoding endpoint.
package geo

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

var ErrNoAddress = errors.New("geo: no address for coordinates")

type Address struct {
	Name     string `json:"name"`
	District string `json:"district"`
	City     string `json:"city"`
	Country  string `json:"country"`
}

// String joins the non-empty parts as "name, district, city, country".
func (a Address) String() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Name, a.District, a.City, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type Client struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), UserAgent: userAgent, Timeout: timeout}
}

type nominatimReply struct {
	Name    string `json:"name"`
	Error   string `json:"error"`
	Address struct {
		Amenity      string `json:"amenity"`
		Road         string `json:"road"`
		Suburb       string `json:"suburb"`
		CityDistrict string `json:"city_district"`
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Country      string `json:"country"`
	} `json:"address"`
}

func (c *Client) Reverse(lat, lon float64) (Address, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	a := fiber.Get(c.BaseURL + "/reverse?" + q.Encode())
	if c.UserAgent != "" {
		a.UserAgent(c.UserAgent)
	}
	if c.Timeout > 0 {
		a.Timeout(c.Timeout)
	}
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	var reply nominatimReply
	code, _, errs := a.Struct(&reply)
	if len(errs) > 0 {
		return Address{}, fmt.Errorf("geo: reverse: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return Address{}, fmt.Errorf("geo: reverse: status %d", code)
	}
	if reply.Error != "" {
		return Address{}, ErrNoAddress
	}

	ad := reply.Address
	out := Address{
		Name:     firstNonEmpty(reply.Name, ad.Amenity, ad.Road),
		District: firstNonEmpty(ad.Suburb, ad.CityDistrict),
		City:     firstNonEmpty(ad.City, ad.Town, ad.Village),
		Country:  ad.Country,
	}
	if out.String() == "" {
		return Address{}, ErrNoAddress
	}
	return out, nil
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
