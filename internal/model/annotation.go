package model

import "time"

// Point is a coordinate on the pitch canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Line is a drawn segment, e.g. a pass or a shot.
type Line struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Drawing is a pitch diagram. Every submission is a new record.
type Drawing struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Image     string    `json:"image"`
	Passes    []Line    `json:"passes"`
	Shots     []Line    `json:"shots"`
	CreatedAt time.Time `json:"created_at"`
}

// ShotView is the /shots projection of a drawing.
type ShotView struct {
	ID        string    `json:"id"`
	Shots     []Line    `json:"shots"`
	CreatedAt time.Time `json:"created_at"`
}

// Injury is a logged injury. Spots are stored in their own collection and
// joined back in on reads.
type Injury struct {
	ID         string       `json:"id"`
	Email      string       `json:"email"`
	InjuryType string       `json:"injury_type"`
	Duration   int          `json:"duration"` // days
	CreatedAt  time.Time    `json:"created_at"`
	Spots      []InjurySpot `json:"spots"`
}

// InjurySpot marks where on the body an injury is. InjuryID is a reference,
// not an embedding.
type InjurySpot struct {
	ID       string  `json:"id"`
	InjuryID string  `json:"injury_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}
