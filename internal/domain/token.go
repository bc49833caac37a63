package domain

// TokenRegistry answers which tokens the service can settle.
type TokenRegistry interface {
	Known(symbol string) bool
	// Native reports whether value for the token can be attached to a call.
	Native(symbol string) bool
}

// Funding describes how a caller brings the funds a transition needs.
// A zero Attached pulls from the caller's available balance.
type Funding struct {
	Attached int64
}

func (f Funding) Validate(token string, required int64, tokens TokenRegistry) error {
	switch {
	case f.Attached == 0:
		return nil
	case f.Attached < 0:
		return invalidInput("attached value must not be negative")
	case f.Attached != required:
		return invalidInput("attached value %d does not match required %d %s", f.Attached, required, token)
	case tokens == nil || !tokens.Native(token):
		return invalidInput("value cannot be attached for non-native token %s", token)
	}
	return nil
}
