package warranty

import "time"

// Vigency tells whether the order is still within its warranty window. It
// is derived on read and never changes the case status.
type Vigency struct {
	Vigent        bool      `json:"vigent"`
	DaysRemaining int       `json:"days_remaining"`
	CompletedAt   time.Time `json:"completed_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// ComputeVigency applies a warranty of days starting at completedAt.
func ComputeVigency(completedAt time.Time, days int, now time.Time) Vigency {
	expires := completedAt.AddDate(0, 0, days)
	v := Vigency{
		Vigent:      now.Before(expires),
		CompletedAt: completedAt,
		ExpiresAt:   expires,
	}
	if v.Vigent {
		elapsed := int(now.Sub(completedAt).Hours() / 24)
		if elapsed < 0 {
			elapsed = 0
		}
		v.DaysRemaining = days - elapsed
	}
	return v
}
