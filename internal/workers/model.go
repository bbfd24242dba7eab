// Package workers manages the technicians assigned to orders.
package workers

import "time"

// Worker is a technician who executes orders and receives payouts.
type Worker struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Specialty string    `json:"specialty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateWorkerRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	Phone     string `json:"phone" validate:"required,max=32"`
	Specialty string `json:"specialty" validate:"max=120"`
}

// UpdateWorkerRequest changes the fields that are set.
type UpdateWorkerRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=120"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	Specialty *string `json:"specialty" validate:"omitempty,max=120"`
	Active    *bool   `json:"active"`
}
