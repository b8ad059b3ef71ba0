package keeper

import (
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/stakevault/x/access/types"
)

var (
	first    = sdk.AccAddress([]byte("first_admin_________")).String()
	second   = sdk.AccAddress([]byte("second_admin________")).String()
	outsider = sdk.AccAddress([]byte("outsider____________")).String()
)

func setupKeeper(t *testing.T) (*Keeper, sdk.Context) {
	t.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	require.NoError(t, stateStore.LoadLatestVersion())

	ctx := sdk.NewContext(stateStore, cmtproto.Header{Time: time.Unix(1700000000, 0), Height: 1}, false, log.NewNopLogger())
	return NewKeeper(storeKey, log.NewNopLogger()), ctx
}

func TestInitialize(t *testing.T) {
	k, ctx := setupKeeper(t)

	require.ErrorIs(t, k.RestrictedFunction(ctx, first), types.ErrNotInitialized)

	config, err := k.Initialize(ctx, first)
	require.NoError(t, err)
	require.Equal(t, first, config.Admin)

	_, err = k.Initialize(ctx, second)
	require.ErrorIs(t, err, types.ErrAlreadyInitialized)
	require.Equal(t, first, k.GetConfig(ctx).Admin)
}

func TestRestrictedFunction(t *testing.T) {
	k, ctx := setupKeeper(t)
	_, err := k.Initialize(ctx, first)
	require.NoError(t, err)

	require.NoError(t, k.RestrictedFunction(ctx, first))
	require.ErrorIs(t, k.RestrictedFunction(ctx, outsider), types.ErrUnauthorized)
	require.Equal(t, first, k.GetConfig(ctx).Admin)
}

func TestTransferOwnership(t *testing.T) {
	k, ctx := setupKeeper(t)
	msgs := NewMsgServerImpl(k)
	_, err := msgs.Initialize(ctx, &types.MsgInitialize{Signer: first})
	require.NoError(t, err)

	_, err = msgs.TransferOwnership(ctx, &types.MsgTransferOwnership{Signer: outsider, NewAdmin: outsider})
	require.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = msgs.TransferOwnership(ctx, &types.MsgTransferOwnership{Signer: first, NewAdmin: "garbage"})
	require.ErrorIs(t, err, types.ErrInvalidAddress)

	resp, err := msgs.TransferOwnership(ctx, &types.MsgTransferOwnership{Signer: first, NewAdmin: second})
	require.NoError(t, err)
	require.Equal(t, first, resp.OldAdmin)
	require.Equal(t, second, k.GetConfig(ctx).Admin)

	// the previous admin loses the role
	_, err = msgs.RestrictedFunction(ctx, &types.MsgRestrictedFunction{Signer: first})
	require.ErrorIs(t, err, types.ErrUnauthorized)
	_, err = msgs.RestrictedFunction(ctx, &types.MsgRestrictedFunction{Signer: second})
	require.NoError(t, err)

	// genesis carries the rotated admin
	exported := k.ExportGenesis(ctx)
	require.NoError(t, exported.Validate())
	require.Equal(t, second, exported.Config.Admin)
}
