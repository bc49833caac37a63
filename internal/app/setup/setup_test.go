package setup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/LavaJover/shvark-escrow-service/internal/config"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStackWiresSinks(t *testing.T) {
	var callbacks atomic.Int32
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		callbacks.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer hook.Close()

	cfg := &config.EscrowConfig{}
	cfg.Storage.Driver = "memory"
	cfg.Mirror.Path = t.TempDir()
	cfg.Callback.URL = hook.URL

	deps, err := InitializeDependencies(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, deps.Close()) }()
	require.NotNil(t, deps.Mirror)
	assert.Nil(t, deps.DB)
	assert.True(t, deps.Tokens.Known("TUSDT"))

	uc, err := InitializeUseCases(deps)
	require.NoError(t, err)

	ctx := context.Background()
	maker := domain.Caller{ID: "maker", Role: domain.RoleUser}
	taker := domain.Caller{ID: "taker", Role: domain.RoleUser}
	o, err := uc.OrderUsecase.CreateOrder(ctx, maker, domain.OrderTerms{
		TokenToSell: "TUSDT", TokenToBuy: "ETH", AmountToSell: 1, AmountToBuy: 1,
	})
	require.NoError(t, err)
	e, err := uc.EscrowUsecase.OpenEscrow(ctx, taker, o.ID)
	require.NoError(t, err)

	// The dispatcher is not started, so delivery already happened inline.
	rec, err := deps.Mirror.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EscrowCreated, rec.Status)
	assert.Equal(t, int32(1), callbacks.Load())

	families, err := deps.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestConfiguredTokenList(t *testing.T) {
	cfg := &config.EscrowConfig{Tokens: []config.Token{
		{Symbol: "ETH", Address: "0x0000000000000000000000000000000000000000", Decimals: 9},
	}}
	cfg.Storage.Driver = "memory"

	deps, err := InitializeDependencies(cfg)
	require.NoError(t, err)
	defer deps.Close()
	assert.True(t, deps.Tokens.Known("ETH"))
	assert.False(t, deps.Tokens.Known("TUSDT"))

	cfg.Tokens = append(cfg.Tokens, config.Token{Symbol: "ETH", Address: "0x514910771AF9Ca656af840dff83E8264EcF986CA"})
	_, err = InitializeDependencies(cfg)
	assert.Error(t, err)
}
