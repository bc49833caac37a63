package request

// Amounts are decimal strings in token units, e.g. "1.5".
type CreateOrderRequest struct {
	TokenToSell  string `json:"token_to_sell" validate:"required,max=16"`
	TokenToBuy   string `json:"token_to_buy" validate:"required,max=16,nefield=TokenToSell"`
	AmountToSell string `json:"amount_to_sell" validate:"required,numeric"`
	AmountToBuy  string `json:"amount_to_buy" validate:"required,numeric"`
}
