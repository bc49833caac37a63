package response

// ErrorResponse may carry the entity in the state the failed call left it in.
type ErrorResponse struct {
	Error  string          `json:"error"`
	Reason string          `json:"reason"`
	Order  *OrderResponse  `json:"order,omitempty"`
	Escrow *EscrowResponse `json:"escrow,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
