package response

import "time"

type OrderResponse struct {
	ID           string    `json:"id"`
	Maker        string    `json:"maker"`
	TokenToSell  string    `json:"token_to_sell"`
	TokenToBuy   string    `json:"token_to_buy"`
	AmountToSell string    `json:"amount_to_sell"`
	AmountToBuy  string    `json:"amount_to_buy"`
	Status       string    `json:"status"`
	EscrowID     string    `json:"escrow_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type OrderListResponse struct {
	Orders     []OrderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}
