package request

type TreasuryRequest struct {
	Account string `json:"account" validate:"required"`
	Token   string `json:"token" validate:"required"`
	Amount  string `json:"amount" validate:"required,numeric"`
}
