package domain

import "math"

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	// MaxPageNumber keeps Offset within an int32 OFFSET for any limit.
	MaxPageNumber    = math.MaxInt32 / MaxPageLimit
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 50
)

// Page is a 1-based pagination request.
type Page struct {
	Number int
	Limit  int
}

// Normalize clamps the page to sane defaults.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// Pages is ceil(total / limit).
func (p Page) Pages(total int) int {
	if p.Limit <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}
