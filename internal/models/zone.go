package models

import "time"

// DeliveryZone groups cities and an explicit neighborhood list under one fee and delivery estimate.
// A city may belong to several zones; only the (city, neighborhood) pair identifies a zone.
type DeliveryZone struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Cities           []string       `json:"cities"`
	Neighborhoods    []Neighborhood `json:"neighborhoods"`
	DeliveryFee      int64          `json:"deliveryFee"`
	EstimatedMinutes int            `json:"estimatedMinutes"`
	Available        bool           `json:"available"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// Neighborhood is the finest deliverable address unit, scoped to one city within one zone.
type Neighborhood struct {
	Name      string `json:"name"`
	City      string `json:"city"`
	Available bool   `json:"available"`
}

// HasCity reports whether the zone lists the city.
func (z DeliveryZone) HasCity(city string) bool {
	for _, c := range z.Cities {
		if c == city {
			return true
		}
	}
	return false
}

// Serves reports whether the zone delivers to the exact (city, neighborhood) pair.
// The zone itself and the neighborhood entry must both be available.
func (z DeliveryZone) Serves(city, neighborhood string) bool {
	if !z.Available || !z.HasCity(city) {
		return false
	}
	for _, n := range z.Neighborhoods {
		if n.City == city && n.Name == neighborhood && n.Available {
			return true
		}
	}
	return false
}

// FeeQuote is the resolved delivery price for an address.
type FeeQuote struct {
	Fee              int64  `json:"fee"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
	ZoneID           string `json:"zoneId"`
	ZoneName         string `json:"zoneName"`
}
