package dto

import "encoding/json"

// FlightSearchRequest wraps the flight search query parameters.
type FlightSearchRequest struct {
	FlightData json.RawMessage `json:"flightData"`
}

// PlacesSearchRequest wraps the place autocomplete query parameters.
type PlacesSearchRequest struct {
	PlacesData json.RawMessage `json:"placesData"`
}

// ExistsResponse answers an account existence lookup.
type ExistsResponse struct {
	Identifier string `json:"identifier"`
	Exists     bool   `json:"exists"`
}
