package grpcapi

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/auth"
	"github.com/LavaJover/shvark-escrow-service/internal/clock"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/events"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/tokens"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/escrow"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/ledger"
	"github.com/LavaJover/shvark-escrow-service/internal/usecase/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type rpcFixture struct {
	t        *testing.T
	client   *EscrowServiceClient
	ledger   *ledger.DefaultLedgerUsecase
	verifier *auth.Verifier
}

func newRPCFixture(t *testing.T) *rpcFixture {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewStepping(time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC), time.Second)
	registry := tokens.Default()

	ledgerUC := ledger.NewDefaultLedgerUsecase(store, store, clk, nil)
	orderUC := order.NewDefaultOrderUsecase(store, store, store, registry, clk, nil)
	escrowUC, err := escrow.NewDefaultEscrowUsecase(store, store, store, ledgerUC, orderUC, registry,
		events.NewDispatcher(0, nil, &events.Recorder{}), clk, nil)
	require.NoError(t, err)

	verifier := auth.NewVerifier("grpc-test-secret")
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(AuthUnaryInterceptor(verifier)))
	RegisterEscrowServiceServer(srv, NewEscrowHandler(orderUC, escrowUC, ledgerUC, registry))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &rpcFixture{t: t, client: NewEscrowServiceClient(conn), ledger: ledgerUC, verifier: verifier}
}

func (f *rpcFixture) call(who string, role domain.Role, method string, fields map[string]any) (*structpb.Struct, error) {
	f.t.Helper()
	in, err := structpb.NewStruct(fields)
	require.NoError(f.t, err)
	ctx := context.Background()
	if who != "" {
		token, err := f.verifier.Issue(domain.Caller{ID: who, Role: role}, time.Hour)
		require.NoError(f.t, err)
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}
	return f.client.Call(ctx, method, in)
}

func field(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func TestRPCSettlementFlow(t *testing.T) {
	f := newRPCFixture(t)
	require.NoError(t, f.ledger.Deposit(context.Background(), "maker", "TUSDT", 100_000_000))

	o, err := f.call("maker", domain.RoleUser, "CreateOrder", map[string]any{
		"token_to_sell": "TUSDT", "token_to_buy": "ETH", "amount_to_sell": "100", "amount_to_buy": "0.03",
	})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", field(o, "status"))

	e, err := f.call("taker", domain.RoleUser, "OpenEscrow", map[string]any{"order_id": field(o, "id")})
	require.NoError(t, err)
	escrowID := field(e, "id")

	e, err = f.call("maker", domain.RoleUser, "LockEscrow", map[string]any{"escrow_id": escrowID})
	require.NoError(t, err)
	assert.Equal(t, "LOCKED", field(e, "status"))

	// ETH is native: the taker pays by attaching the value.
	e, err = f.call("taker", domain.RoleUser, "CompleteEscrow", map[string]any{"escrow_id": escrowID, "attached_value": "0.03"})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", field(e, "status"))

	b, err := f.call("maker", domain.RoleUser, "GetBalance", map[string]any{"token": "eth"})
	require.NoError(t, err)
	assert.Equal(t, "0.03", field(b, "available"))
}

func TestRPCStatusCodes(t *testing.T) {
	f := newRPCFixture(t)

	_, err := f.call("", "", "GetBalance", map[string]any{"token": "ETH"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = f.call("taker", domain.RoleUser, "GetEscrow", map[string]any{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = f.call("taker", domain.RoleUser, "GetEscrow", map[string]any{"escrow_id": "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	o, err := f.call("maker", domain.RoleUser, "CreateOrder", map[string]any{
		"token_to_sell": "TUSDT", "token_to_buy": "ETH", "amount_to_sell": "100", "amount_to_buy": "0.03",
	})
	require.NoError(t, err)
	e, err := f.call("taker", domain.RoleUser, "OpenEscrow", map[string]any{"order_id": field(o, "id")})
	require.NoError(t, err)
	escrowID := field(e, "id")

	_, err = f.call("maker", domain.RoleUser, "LockEscrow", map[string]any{"escrow_id": escrowID})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = f.call("taker", domain.RoleUser, "RefundEscrow", map[string]any{"escrow_id": escrowID})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = f.call("arbiter", domain.RoleDisputeAuthority, "RefundEscrow", map[string]any{"escrow_id": escrowID})
	assert.Equal(t, codes.Aborted, status.Code(err))
}

func TestRPCErrorCarriesEscrowState(t *testing.T) {
	f := newRPCFixture(t)
	o, err := f.call("maker", domain.RoleUser, "CreateOrder", map[string]any{
		"token_to_sell": "TUSDT", "token_to_buy": "ETH", "amount_to_sell": "100", "amount_to_buy": "0.03",
	})
	require.NoError(t, err)
	e, err := f.call("taker", domain.RoleUser, "OpenEscrow", map[string]any{"order_id": field(o, "id")})
	require.NoError(t, err)
	escrowID := field(e, "id")

	// The maker has no TUSDT, so the lock fails and the escrow stays Created.
	_, err = f.call("maker", domain.RoleUser, "LockEscrow", map[string]any{"escrow_id": escrowID})
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.FailedPrecondition, st.Code())
	require.Len(t, st.Details(), 1)
	detail, ok := st.Details()[0].(*structpb.Struct)
	require.True(t, ok, "detail is %T", st.Details()[0])
	assert.Equal(t, escrowID, field(detail, "id"))
	assert.Equal(t, "CREATED", field(detail, "status"))

	_, err = f.call("taker", domain.RoleUser, "DisputeEscrow", map[string]any{"escrow_id": escrowID})
	st, _ = status.FromError(err)
	assert.Equal(t, codes.Aborted, st.Code())
	require.Len(t, st.Details(), 1)
	assert.Equal(t, "CREATED", field(st.Details()[0].(*structpb.Struct), "status"))

	// Nothing to report when the escrow does not exist.
	_, err = f.call("taker", domain.RoleUser, "DisputeEscrow", map[string]any{"escrow_id": "missing"})
	st, _ = status.FromError(err)
	assert.Equal(t, codes.NotFound, st.Code())
	assert.Empty(t, st.Details())
}

func TestCodeFor(t *testing.T) {
	assert.Equal(t, codes.Internal, codeFor(assert.AnError))
	assert.Equal(t, codes.Aborted, codeFor(&domain.TransitionError{Entity: "escrow", ID: "e", From: "LOCKED", Action: "lock"}))

	st, _ := status.FromError(toStatus("Test", assert.AnError))
	assert.Equal(t, "internal error", st.Message())
}
