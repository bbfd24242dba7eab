package warranty

import "github.com/nippon-flex/servicios-rapidos-ec/internal/shared"

type FileWarrantyRequest struct {
	OrderID        int64    `json:"order_id" validate:"required,gt=0"`
	CustomerReport string   `json:"customer_report" validate:"required,max=2000"`
	Photos         []string `json:"photos" validate:"max=10,dive,url"`
}

// PublicFileRequest lets a customer file using the order code printed on the receipt.
type PublicFileRequest struct {
	OrderCode      string   `json:"order_code" validate:"required,max=32"`
	CustomerReport string   `json:"customer_report" validate:"required,max=2000"`
	Photos         []string `json:"photos" validate:"max=10,dive,url"`
}

type CoverageRequest struct {
	Covered *bool  `json:"covered" validate:"required"`
	Reason  string `json:"reason" validate:"max=1000"`
}

type RepairRequest struct {
	Note string `json:"note" validate:"max=1000"`
}

type ResolveRequest struct {
	Resolution string `json:"resolution" validate:"required,max=2000"`
}

type FileWarrantyResponse struct {
	ID       int64           `json:"id"`
	Code     string          `json:"code"`
	Status   Status          `json:"status"`
	Warnings shared.Warnings `json:"warnings,omitempty"`
}
