package model

import "time"

// Entry is one player's performance record for a calendar day.
//
// DayStart is midnight of the day the entry was last written. Together with
// Email it is unique, which is what makes "one entry per owner per day" hold.
type Entry struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Position  string    `json:"position"`
	Goals     int       `json:"goals"`
	Assists   int       `json:"assists"`
	CreatedAt time.Time `json:"created_at"`
	DayStart  time.Time `json:"-"`
}

// LeaderboardRow is a single ranked entry.
type LeaderboardRow struct {
	Entry
	Name         string `json:"name"`
	GoalsAssists int    `json:"goals_assists"`
}

// Series is one player's stats laid out for charting, oldest first.
type Series struct {
	Name    string      `json:"name"`
	Dates   []time.Time `json:"dates"`
	Goals   []int       `json:"goals"`
	Assists []int       `json:"assists"`
}

// Visualization is what the comparison engine returns.
//
// Target is the requested player's series. User is the requester's own series
// and is only set when a comparison was asked for. NoRecords marks the
// self-view case where fewer than two points exist, which is different from
// an empty series.
type Visualization struct {
	Target    *Series `json:"friend,omitempty"`
	User      *Series `json:"user,omitempty"`
	NoRecords bool    `json:"-"`
}

// LatestEntry is the community-feed view of an entry. It deliberately carries
// the owner's display name and no email.
type LatestEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Position  string    `json:"position"`
	Goals     int       `json:"goals"`
	Assists   int       `json:"assists"`
	CreatedAt time.Time `json:"created_at"`
}
