package notifier

import "time"

type CallbackPayload struct {
	EventID      string    `json:"event_id"`
	EscrowID     string    `json:"escrow_id"`
	OrderID      string    `json:"order_id"`
	Status       string    `json:"status"`
	Maker        string    `json:"maker"`
	Taker        string    `json:"taker"`
	TokenToSell  string    `json:"token_to_sell"`
	TokenToBuy   string    `json:"token_to_buy"`
	AmountToSell int64     `json:"amount_to_sell"`
	AmountToBuy  int64     `json:"amount_to_buy"`
	OccurredAt   time.Time `json:"occurred_at"`
}
