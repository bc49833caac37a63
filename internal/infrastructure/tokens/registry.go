// Package tokens knows the settleable tokens and converts between decimal amounts
// in token units and integer minor units.
package tokens

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// maxDecimals keeps one whole token well inside int64 minor units.
const maxDecimals = 12

// Token is one settleable asset. Decimals is the ledger precision: one token is
// 10^Decimals minor units. The zero address marks the chain's native coin.
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals int32
}

func (t Token) Native() bool {
	return t.Address == (common.Address{})
}

// Spec is the configuration form of a token.
type Spec struct {
	Symbol   string
	Address  string
	Decimals int32
}

// DefaultSpecs is the token list of the test network deployment. Ledger precision
// for 18-decimal assets is capped at nine places (gwei).
var DefaultSpecs = []Spec{
	{Symbol: "ETH", Address: "0x0000000000000000000000000000000000000000", Decimals: 9},
	{Symbol: "TUSDT", Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6},
	{Symbol: "TLINK", Address: "0x514910771AF9Ca656af840dff83E8264EcF986CA", Decimals: 9},
	{Symbol: "TUNI", Address: "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984", Decimals: 9},
	{Symbol: "TWETH", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 9},
}

type Registry struct {
	bySymbol  map[string]Token
	byAddress map[common.Address]string
}

var _ domain.TokenRegistry = (*Registry)(nil)

func NewRegistry(specs []Spec) (*Registry, error) {
	r := &Registry{
		bySymbol:  make(map[string]Token, len(specs)),
		byAddress: make(map[common.Address]string, len(specs)),
	}
	for _, s := range specs {
		symbol := domain.NormalizeToken(s.Symbol)
		if symbol == "" {
			return nil, fmt.Errorf("token with address %q has no symbol", s.Address)
		}
		if !common.IsHexAddress(s.Address) {
			return nil, fmt.Errorf("token %s: invalid address %q", symbol, s.Address)
		}
		if s.Decimals < 0 || s.Decimals > maxDecimals {
			return nil, fmt.Errorf("token %s: decimals must be within 0..%d, got %d", symbol, maxDecimals, s.Decimals)
		}
		addr := common.HexToAddress(s.Address)
		if _, dup := r.bySymbol[symbol]; dup {
			return nil, fmt.Errorf("token %s listed twice", symbol)
		}
		if other, dup := r.byAddress[addr]; dup {
			return nil, fmt.Errorf("tokens %s and %s share address %s", other, symbol, addr.Hex())
		}
		r.bySymbol[symbol] = Token{Symbol: symbol, Address: addr, Decimals: s.Decimals}
		r.byAddress[addr] = symbol
	}
	return r, nil
}

// Default returns the registry built from DefaultSpecs.
func Default() *Registry {
	r, err := NewRegistry(DefaultSpecs)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Known(symbol string) bool {
	_, ok := r.bySymbol[domain.NormalizeToken(symbol)]
	return ok
}

func (r *Registry) Native(symbol string) bool {
	t, ok := r.bySymbol[domain.NormalizeToken(symbol)]
	return ok && t.Native()
}

func (r *Registry) Lookup(symbol string) (Token, bool) {
	t, ok := r.bySymbol[domain.NormalizeToken(symbol)]
	return t, ok
}

// Resolve accepts either a symbol or a hex token address.
func (r *Registry) Resolve(ref string) (Token, error) {
	if common.IsHexAddress(ref) {
		if symbol, ok := r.byAddress[common.HexToAddress(ref)]; ok {
			return r.bySymbol[symbol], nil
		}
		return Token{}, fmt.Errorf("%w: unknown token address %s", domain.ErrInvalidInput, ref)
	}
	if t, ok := r.Lookup(ref); ok {
		return t, nil
	}
	return Token{}, fmt.Errorf("%w: unknown token %q", domain.ErrInvalidInput, ref)
}

func (r *Registry) List() []Token {
	out := make([]Token, 0, len(r.bySymbol))
	for _, t := range r.bySymbol {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b Token) int { return strings.Compare(a.Symbol, b.Symbol) })
	return out
}

// ParseAmount converts a positive decimal string in token units to minor units.
// Amounts finer than the token's precision are rejected, never rounded.
func (r *Registry) ParseAmount(symbol, amount string) (int64, error) {
	t, ok := r.Lookup(symbol)
	if !ok {
		return 0, fmt.Errorf("%w: unknown token %q", domain.ErrInvalidInput, symbol)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q is not a decimal", domain.ErrInvalidInput, amount)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: amount %q must be positive", domain.ErrInvalidInput, amount)
	}
	minor := d.Shift(t.Decimals)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%w: amount %q has more than %d decimals for %s", domain.ErrInvalidInput, amount, t.Decimals, t.Symbol)
	}
	if minor.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, fmt.Errorf("%w: amount %q is too large", domain.ErrInvalidInput, amount)
	}
	return minor.IntPart(), nil
}

// FormatAmount renders minor units as a decimal string in token units.
func (r *Registry) FormatAmount(symbol string, minor int64) string {
	t, ok := r.Lookup(symbol)
	if !ok {
		return decimal.NewFromInt(minor).String()
	}
	return decimal.New(minor, -t.Decimals).String()
}
