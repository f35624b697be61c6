// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces ownership and friendship rules
//	Repository (Data layer)  → reads/writes the store
//
// Every service receives the caller's identity (the email resolved by the
// bearer-token middleware) as an explicit argument and scopes all reads and
// writes to it. Nothing here knows about HTTP, SQL or websockets.
//
// DEPENDENCY INJECTION:
// Services take repository interfaces, not *sqlite.DB. Tests pass in-memory
// fakes (see fakes_test.go); main.go passes the sqlite stores.
package service

import (
	"time"

	"github.com/sakif/turflog/internal/apperror"
	"github.com/sakif/turflog/internal/repository"
)

// DateLayout is the format of start_date / end_date query values.
const DateLayout = "2006-01-02"

// midnight returns the start of t's calendar day in t's location.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// parseDateRange turns the optional start/end dates into a half-open window.
//
// The end date is inclusive by calendar day, so the window is
// [start 00:00, end+1 00:00). Both dates must be given together, and both
// empty means no filter.
func parseDateRange(start, end string, loc *time.Location) (repository.TimeRange, error) {
	if start == "" && end == "" {
		return repository.TimeRange{}, nil
	}
	if start == "" {
		return repository.TimeRange{}, apperror.InvalidArgument("start_date", start, "start_date is required when end_date is given")
	}
	if end == "" {
		return repository.TimeRange{}, apperror.InvalidArgument("end_date", end, "end_date is required when start_date is given")
	}

	from, err := time.ParseInLocation(DateLayout, start, loc)
	if err != nil {
		return repository.TimeRange{}, apperror.InvalidArgument("start_date", start, "start_date must be YYYY-MM-DD")
	}
	to, err := time.ParseInLocation(DateLayout, end, loc)
	if err != nil {
		return repository.TimeRange{}, apperror.InvalidArgument("end_date", end, "end_date must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return repository.TimeRange{}, apperror.InvalidArgument("end_date", end, "end_date must not be before start_date")
	}

	return repository.TimeRange{From: from, To: to.AddDate(0, 0, 1)}, nil
}
