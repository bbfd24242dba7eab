// Package leads handles intake and status tracking of customer service requests.
package leads

import "time"

type Status string

const (
	StatusNew       Status = "NEW"
	StatusContacted Status = "CONTACTED"
	StatusQuoting   Status = "QUOTING"
	StatusQuoted    Status = "QUOTED"
	StatusConverted Status = "CONVERTED"
)

var statusRank = map[Status]int{
	StatusNew:       0,
	StatusContacted: 1,
	StatusQuoting:   2,
	StatusQuoted:    3,
	StatusConverted: 4,
}

// Valid reports whether s is a known lead status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvance reports whether moving from -> to goes forward. Leads never move back.
func CanAdvance(from, to Status) bool {
	f, okFrom := statusRank[from]
	t, okTo := statusRank[to]
	return okFrom && okTo && t > f
}

// Before returns every status strictly earlier than s.
func Before(s Status) []Status {
	rank, ok := statusRank[s]
	if !ok {
		return nil
	}
	out := make([]Status, 0, rank)
	for status, r := range statusRank {
		if r < rank {
			out = append(out, status)
		}
	}
	return out
}

type Lead struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	RegionID     int64     `json:"region_id"`
	ServiceSlug  string    `json:"service"`
	CustomerName string    `json:"customer_name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email,omitempty"`
	Address      string    `json:"address"`
	Sector       string    `json:"sector,omitempty"`
	Description  string    `json:"description"`
	Urgent       bool      `json:"urgent"`
	Source       string    `json:"source"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
