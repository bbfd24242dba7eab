// Package messages writes customer WhatsApp messages for lifecycle events
// using a text-generation service.
package messages

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/notify"
)

type Message struct {
	ID          int64       `json:"id"`
	Kind        notify.Kind `json:"kind"`
	Entity      string      `json:"entity"`
	EntityID    int64       `json:"entity_id"`
	Phone       string      `json:"phone"`
	Body        string      `json:"body"`
	WhatsAppURL string      `json:"whatsapp_url"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Facts is what a prompt may mention about the entity.
type Facts struct {
	Code         string
	CustomerName string
	Phone        string
	Service      string
	Total        decimal.Decimal
	Advance      decimal.Decimal
	Balance      decimal.Decimal
	Currency     string
	ExpiresAt    *time.Time
	OrderCode    string
}

type GenerateRequest struct {
	Kind     notify.Kind `json:"kind" validate:"required,oneof=quote_sent advance_paid order_closed warranty_filed"`
	Entity   string      `json:"entity" validate:"required,oneof=quote order warranty"`
	EntityID int64       `json:"entity_id" validate:"required,gt=0"`
}
