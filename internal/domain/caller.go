package domain

import "fmt"

type Role string

const (
	RoleUser             Role = "user"
	RoleDisputeAuthority Role = "dispute_authority"
	// RoleTreasury operates the funding rails (deposits and withdrawals).
	RoleTreasury Role = "treasury"
)

type Capability string

const (
	CapTrade          Capability = "trade"
	CapRefund         Capability = "refund"
	CapListAllEscrows Capability = "list_all_escrows"
	CapFundAccounts   Capability = "fund_accounts"
)

var roleCapabilities = map[Role][]Capability{
	RoleUser:             {CapTrade},
	RoleDisputeAuthority: {CapRefund, CapListAllEscrows},
	RoleTreasury:         {CapFundAccounts, CapListAllEscrows},
}

// ParseRole accepts only the closed set of roles.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleCapabilities[r]; !ok {
		return "", invalidInput("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Can(c Capability) bool {
	for _, have := range roleCapabilities[r] {
		if have == c {
			return true
		}
	}
	return false
}

// Caller is the authenticated identity behind every state-changing call.
type Caller struct {
	ID   string
	Role Role
}

func (c Caller) Can(cap Capability) bool {
	return c.ID != "" && c.Role.Can(cap)
}

func (c Caller) Require(cap Capability) error {
	if !c.Can(cap) {
		return &AuthError{Caller: c, Action: string(cap)}
	}
	return nil
}

type AuthError struct {
	Caller   Caller
	Action   string
	Resource string
}

func (e *AuthError) Error() string {
	msg := fmt.Sprintf("unauthorized: %s %q may not %s", e.Caller.Role, e.Caller.ID, e.Action)
	if e.Resource != "" {
		msg += " " + e.Resource
	}
	return msg
}

func (e *AuthError) Unwrap() error { return ErrUnauthorized }
