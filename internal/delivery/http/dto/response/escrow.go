package response

import "time"

type EscrowResponse struct {
	ID           string     `json:"id"`
	OrderID      string     `json:"order_id"`
	Maker        string     `json:"maker"`
	Taker        string     `json:"taker"`
	TokenToSell  string     `json:"token_to_sell"`
	TokenToBuy   string     `json:"token_to_buy"`
	AmountToSell string     `json:"amount_to_sell"`
	AmountToBuy  string     `json:"amount_to_buy"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type EscrowListResponse struct {
	Escrows    []EscrowResponse `json:"escrows"`
	NextCursor string           `json:"next_cursor,omitempty"`
}
