package grpcapi

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-escrow-service/internal/delivery/grpcapi/mappers"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/tokens"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/escrow"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/ledger"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/order"
	"google.golang.org/protobuf/types/known/structpb"
)

type EscrowHandler struct {
	orderUsecase  order.OrderUsecase
	escrowUsecase escrow.EscrowUsecase
	ledgerUsecase ledger.LedgerUsecase
	tokens        *tokens.Registry
}

var _ EscrowServiceServer = (*EscrowHandler)(nil)

func NewEscrowHandler(orderUC order.OrderUsecase, escrowUC escrow.EscrowUsecase, ledgerUC ledger.LedgerUsecase, registry *tokens.Registry) *EscrowHandler {
	return &EscrowHandler{
		orderUsecase:  orderUC,
		escrowUsecase: escrowUC,
		ledgerUsecase: ledgerUC,
		tokens:        registry,
	}
}

func str(r *structpb.Struct, field string) string {
	return r.GetFields()[field].GetStringValue()
}

func required(r *structpb.Struct, field string) (string, error) {
	v := str(r, field)
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, field)
	}
	return v, nil
}

func (h *EscrowHandler) CreateOrder(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	tokenToSell, tokenToBuy := str(r, "token_to_sell"), str(r, "token_to_buy")
	amountToSell, err := h.tokens.ParseAmount(tokenToSell, str(r, "amount_to_sell"))
	if err != nil {
		return nil, toStatus("CreateOrder", err)
	}
	amountToBuy, err := h.tokens.ParseAmount(tokenToBuy, str(r, "amount_to_buy"))
	if err != nil {
		return nil, toStatus("CreateOrder", err)
	}

	created, err := h.orderUsecase.CreateOrder(ctx, callerFromContext(ctx), domain.OrderTerms{
		TokenToSell:  tokenToSell,
		TokenToBuy:   tokenToBuy,
		AmountToSell: amountToSell,
		AmountToBuy:  amountToBuy,
	})
	if err != nil {
		return nil, toStatus("CreateOrder", err)
	}
	return mappers.ToOrderStruct(created, h.tokens)
}

func (h *EscrowHandler) CancelOrder(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	orderID, err := required(r, "order_id")
	if err != nil {
		return nil, toStatus("CancelOrder", err)
	}
	cancelled, err := h.orderUsecase.CancelOrder(ctx, callerFromContext(ctx), orderID)
	if err != nil {
		return nil, toStatus("CancelOrder", err)
	}
	return mappers.ToOrderStruct(cancelled, h.tokens)
}

func (h *EscrowHandler) OpenEscrow(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	orderID, err := required(r, "order_id")
	if err != nil {
		return nil, toStatus("OpenEscrow", err)
	}
	opened, err := h.escrowUsecase.OpenEscrow(ctx, callerFromContext(ctx), orderID)
	if err != nil {
		return nil, toStatus("OpenEscrow", err)
	}
	return mappers.ToEscrowStruct(opened, h.tokens)
}

func (h *EscrowHandler) LockEscrow(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	return h.funded(ctx, "LockEscrow", r, func(e *domain.Escrow) string { return e.TokenToSell }, h.escrowUsecase.LockEscrow)
}

func (h *EscrowHandler) CompleteEscrow(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	return h.funded(ctx, "CompleteEscrow", r, func(e *domain.Escrow) string { return e.TokenToBuy }, h.escrowUsecase.CompleteEscrow)
}

func (h *EscrowHandler) DisputeEscrow(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	return h.plain(ctx, "DisputeEscrow", r, h.escrowUsecase.DisputeEscrow)
}

func (h *EscrowHandler) RefundEscrow(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	return h.plain(ctx, "RefundEscrow", r, h.escrowUsecase.RefundEscrow)
}

func (h *EscrowHandler) GetEscrow(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	return h.plain(ctx, "GetEscrow", r, h.escrowUsecase.GetEscrow)
}

func (h *EscrowHandler) GetBalance(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	token, err := required(r, "token")
	if err != nil {
		return nil, toStatus("GetBalance", err)
	}
	b, err := h.ledgerUsecase.GetBalance(ctx, callerFromContext(ctx).ID, domain.NormalizeToken(token))
	if err != nil {
		return nil, toStatus("GetBalance", err)
	}
	return mappers.ToBalanceStruct(b, h.tokens)
}

func (h *EscrowHandler) plain(
	ctx context.Context,
	method string,
	r *structpb.Struct,
	fn func(context.Context, domain.Caller, string) (*domain.Escrow, error),
) (*structpb.Struct, error) {
	escrowID, err := required(r, "escrow_id")
	if err != nil {
		return nil, toStatus(method, err)
	}
	e, err := fn(ctx, callerFromContext(ctx), escrowID)
	if err != nil {
		return nil, toEscrowStatus(method, err, e, h.tokens)
	}
	return mappers.ToEscrowStruct(e, h.tokens)
}

// funded parses attached_value in units of the token the transition pulls in.
func (h *EscrowHandler) funded(
	ctx context.Context,
	method string,
	r *structpb.Struct,
	tokenOf func(*domain.Escrow) string,
	fn func(context.Context, domain.Caller, string, domain.Funding) (*domain.Escrow, error),
) (*structpb.Struct, error) {
	escrowID, err := required(r, "escrow_id")
	if err != nil {
		return nil, toStatus(method, err)
	}
	caller := callerFromContext(ctx)

	var funding domain.Funding
	if attached := str(r, "attached_value"); attached != "" {
		current, err := h.escrowUsecase.GetEscrow(ctx, caller, escrowID)
		if err != nil {
			return nil, toStatus(method, err)
		}
		if funding.Attached, err = h.tokens.ParseAmount(tokenOf(current), attached); err != nil {
			return nil, toStatus(method, err)
		}
	}

	e, err := fn(ctx, caller, escrowID, funding)
	if err != nil {
		return nil, toEscrowStatus(method, err, e, h.tokens)
	}
	return mappers.ToEscrowStruct(e, h.tokens)
}
