package mappers

import (
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"google.golang.org/protobuf/types/known/structpb"
)

// AmountFormatter renders minor units in token units.
type AmountFormatter interface {
	FormatAmount(symbol string, minor int64) string
}

func ToOrderStruct(o *domain.Order, f AmountFormatter) (*structpb.Struct, error) {
	return structpb.NewStruct(OrderFields(o, f))
}

func OrderFields(o *domain.Order, f AmountFormatter) map[string]any {
	return map[string]any{
		"id":             o.ID,
		"maker":          o.Maker,
		"token_to_sell":  o.TokenToSell,
		"token_to_buy":   o.TokenToBuy,
		"amount_to_sell": f.FormatAmount(o.TokenToSell, o.AmountToSell),
		"amount_to_buy":  f.FormatAmount(o.TokenToBuy, o.AmountToBuy),
		"status":         string(o.Status),
		"escrow_id":      o.EscrowID,
		"created_at":     o.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":     o.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func ToEscrowStruct(e *domain.Escrow, f AmountFormatter) (*structpb.Struct, error) {
	return structpb.NewStruct(EscrowFields(e, f))
}

func EscrowFields(e *domain.Escrow, f AmountFormatter) map[string]any {
	fields := map[string]any{
		"id":             e.ID,
		"order_id":       e.OrderID,
		"maker":          e.Maker,
		"taker":          e.Taker,
		"token_to_sell":  e.TokenToSell,
		"token_to_buy":   e.TokenToBuy,
		"amount_to_sell": f.FormatAmount(e.TokenToSell, e.AmountToSell),
		"amount_to_buy":  f.FormatAmount(e.TokenToBuy, e.AmountToBuy),
		"status":         string(e.Status),
		"created_at":     e.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":     e.UpdatedAt.Format(time.RFC3339Nano),
	}
	if e.CompletedAt != nil {
		fields["completed_at"] = e.CompletedAt.Format(time.RFC3339Nano)
	}
	return fields
}

func ToBalanceStruct(b domain.Balance, f AmountFormatter) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"account":   b.Account,
		"token":     b.Token,
		"available": f.FormatAmount(b.Token, b.Available),
		"frozen":    f.FormatAmount(b.Token, b.Frozen),
	})
}
