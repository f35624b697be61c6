package model

import "encoding/json"

// Match is one fixture as pushed on the live scores channel.
// Score is passed through from the provider untouched ({"home":1,"away":0}).
type Match struct {
	Time      string          `json:"time"`
	HomeTeam  string          `json:"homeTeam"`
	AwayTeam  string          `json:"awayTeam"`
	Score     json.RawMessage `json:"score"`
	HomeCrest string          `json:"homeCrest"`
	AwayCrest string          `json:"awayCrest"`
}

// Turf is a nearby venue returned by the places search.
type Turf struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	MapsURI string  `json:"mapsUri"`
}
