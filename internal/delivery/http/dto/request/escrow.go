package request

// FundingRequest carries the value attached to lock or complete. An empty
// AttachedValue pulls the required amount from the caller's available balance.
type FundingRequest struct {
	AttachedValue string `json:"attached_value,omitempty" validate:"omitempty,numeric"`
}
