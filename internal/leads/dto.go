package leads

type CreateLeadRequest struct {
	CustomerName string `json:"customer_name" validate:"required,max=120"`
	Phone        string `json:"phone" validate:"required,max=32"`
	Email        string `json:"email" validate:"omitempty,email,max=160"`
	Service      string `json:"service" validate:"required,max=64"`
	Address      string `json:"address" validate:"max=255"`
	Sector       string `json:"sector" validate:"max=120"`
	Description  string `json:"description" validate:"required,max=2000"`
	Urgent       bool   `json:"urgent"`
	Source       string `json:"source" validate:"omitempty,oneof=web whatsapp phone referral walkin"`
}

type CreateLeadResponse struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Status Status `json:"status"`
}

type ListLeadsRequest struct {
	RegionID int64
	Status   *Status
	Page     int
	PerPage  int
}
