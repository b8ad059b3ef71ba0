package keeper

import (
	"context"
	"errors"
	"math"
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

	"github.com/openalpha/stakevault/x/stakevault/types"
	tokenskeeper "github.com/openalpha/stakevault/x/tokens/keeper"
	tokenstypes "github.com/openalpha/stakevault/x/tokens/types"
)

const testDenom = "ustake"

var (
	adminAddr  = sdk.AccAddress([]byte("admin_______________")).String()
	stakerAddr = sdk.AccAddress([]byte("staker______________")).String()
	otherAddr  = sdk.AccAddress([]byte("other_______________")).String()
	mintAddr   = sdk.AccAddress([]byte("mint_authority______")).String()

	errInjected = errors.New("injected transfer failure")
)

// countingTokens wraps the custody keeper, counts transfers and can fail
// the n-th one.
type countingTokens struct {
	types.TokenKeeper
	transfers []tokenstypes.TransferRequest
	failAt    int
}

func (c *countingTokens) Transfer(ctx context.Context, req tokenstypes.TransferRequest) error {
	c.transfers = append(c.transfers, req)
	if c.failAt != 0 && len(c.transfers) == c.failAt {
		return errInjected
	}
	return c.TokenKeeper.Transfer(ctx, req)
}

func (c *countingTokens) reset(failAt int) {
	c.transfers = nil
	c.failAt = failAt
}

type fixture struct {
	ctx    sdk.Context
	keeper *Keeper
	tokens *tokenskeeper.Keeper
	spy    *countingTokens
	msgs   types.MsgServer
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	tokensKey := storetypes.NewKVStoreKey(tokenstypes.StoreKey)
	vaultKey := storetypes.NewKVStoreKey(types.StoreKey)
	auditKey := storetypes.NewKVStoreKey(types.AuditStoreKey)

	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(tokensKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(vaultKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(auditKey, storetypes.StoreTypeIAVL, db)
	require.NoError(t, stateStore.LoadLatestVersion())

	ctx := sdk.NewContext(stateStore, cmtproto.Header{Time: time.Unix(1700000000, 0), Height: 1}, false, log.NewNopLogger())

	tokens := tokenskeeper.NewKeeper(nil, tokensKey, mintAddr, []string{types.ModuleName}, log.NewNopLogger())
	spy := &countingTokens{TokenKeeper: tokens}
	k := NewKeeper(nil, vaultKey, auditKey, spy, adminAddr, log.NewNopLogger())

	return &fixture{
		ctx:    ctx,
		keeper: k,
		tokens: tokens,
		spy:    spy,
		msgs:   NewMsgServerImpl(k),
	}
}

func (f *fixture) initialize(t *testing.T, feeBps uint64) *types.Vault {
	t.Helper()
	_, vault, err := f.keeper.Initialize(f.ctx, adminAddr, testDenom, feeBps)
	require.NoError(t, err)
	return vault
}

// fund opens owner's associated account and mints amount into it
func (f *fixture) fund(t *testing.T, owner string, amount uint64) string {
	t.Helper()
	acc, err := f.tokens.CreateAssociatedAccount(f.ctx, owner, testDenom)
	require.NoError(t, err)
	if amount > 0 {
		_, err = f.tokens.Mint(f.ctx, mintAddr, acc.Address, amount)
		require.NoError(t, err)
	}
	return acc.Address
}

func (f *fixture) balance(t *testing.T, address string) uint64 {
	t.Helper()
	acc := f.tokens.GetAccount(f.ctx, address)
	require.NotNil(t, acc, "token account %s", address)
	return acc.Amount
}

func TestInitialize(t *testing.T) {
	f := setupFixture(t)

	_, _, err := f.keeper.Initialize(f.ctx, otherAddr, testDenom, 100)
	require.ErrorIs(t, err, types.ErrUnauthorized)
	require.Nil(t, f.keeper.GetConfig(f.ctx))

	_, _, err = f.keeper.Initialize(f.ctx, adminAddr, testDenom, types.MaxFeeBps+1)
	require.ErrorIs(t, err, types.ErrInvalidFee)

	config, vault, err := f.keeper.Initialize(f.ctx, adminAddr, testDenom, 100)
	require.NoError(t, err)
	require.Equal(t, adminAddr, config.Admin)
	require.Equal(t, uint64(100), config.WithdrawFeeBps)
	require.Equal(t, testDenom, config.Denom)

	expected, bump, err := VaultAddress(testDenom)
	require.NoError(t, err)
	require.Equal(t, expected.String(), vault.Address)
	require.Equal(t, bump, vault.Bump)

	vaultAccount := f.tokens.GetAccount(f.ctx, vault.Address)
	require.NotNil(t, vaultAccount)
	require.Equal(t, vault.Address, vaultAccount.Owner)

	_, _, err = f.keeper.Initialize(f.ctx, adminAddr, testDenom, 200)
	require.ErrorIs(t, err, types.ErrAlreadyInitialized)
	require.Equal(t, uint64(100), f.keeper.GetConfig(f.ctx).WithdrawFeeBps)
}

func TestInitializeWithoutBootstrapAdmin(t *testing.T) {
	f := setupFixture(t)
	f.keeper.bootstrapAdmin = ""

	_, _, err := f.keeper.Initialize(f.ctx, "", testDenom, 100)
	require.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestUpdateFee(t *testing.T) {
	f := setupFixture(t)

	_, err := f.keeper.UpdateFee(f.ctx, adminAddr, 50)
	require.ErrorIs(t, err, types.ErrNotInitialized)

	f.initialize(t, 100)

	tests := []struct {
		name    string
		caller  string
		fee     uint64
		wantErr error
		wantFee uint64
	}{
		{"non-admin rejected", otherAddr, 1, types.ErrUnauthorized, 100},
		{"above bound rejected", adminAddr, 10001, types.ErrInvalidFee, 100},
		{"admin lowers fee", adminAddr, 25, nil, 25},
		{"admin sets zero", adminAddr, 0, nil, 0},
		{"admin sets max", adminAddr, 10000, nil, 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.keeper.GetConfig(f.ctx).WithdrawFeeBps
			old, err := f.keeper.UpdateFee(f.ctx, tt.caller, tt.fee)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.Equal(t, before, old)
			}
			require.Equal(t, tt.wantFee, f.keeper.GetConfig(f.ctx).WithdrawFeeBps)
			require.Equal(t, adminAddr, f.keeper.GetConfig(f.ctx).Admin)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	f := setupFixture(t)

	_, err := f.keeper.RequireAdmin(f.ctx, adminAddr)
	require.ErrorIs(t, err, types.ErrNotInitialized)

	f.initialize(t, 100)
	config, err := f.keeper.RequireAdmin(f.ctx, adminAddr)
	require.NoError(t, err)
	require.Equal(t, adminAddr, config.Admin)

	_, err = f.keeper.RequireAdmin(f.ctx, otherAddr)
	require.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestDeposit(t *testing.T) {
	f := setupFixture(t)

	stakerAccount := f.fund(t, stakerAddr, 5000)
	_, err := f.keeper.Deposit(f.ctx, stakerAddr, stakerAccount, 100)
	require.ErrorIs(t, err, types.ErrNotInitialized)

	vault := f.initialize(t, 100)

	_, err = f.keeper.Deposit(f.ctx, stakerAddr, stakerAccount, 0)
	require.ErrorIs(t, err, types.ErrInvalidAmount)
	require.Nil(t, f.keeper.GetStakeRecord(f.ctx, stakerAddr))

	record, err := f.keeper.Deposit(f.ctx, stakerAddr, stakerAccount, 300)
	require.NoError(t, err)
	require.Equal(t, uint64(300), record.Amount)
	require.Equal(t, int64(1700000000), record.DepositTs)

	later := f.ctx.WithBlockTime(time.Unix(1700000600, 0))
	_, err = f.keeper.Deposit(later, stakerAddr, stakerAccount, 200)
	require.NoError(t, err)
	record, err = f.keeper.Deposit(later, stakerAddr, stakerAccount, 500)
	require.NoError(t, err)

	require.Equal(t, uint64(1000), record.Amount)
	require.Equal(t, int64(1700000600), record.DepositTs)
	require.Equal(t, uint64(1000), f.balance(t, vault.Address))
	require.Equal(t, uint64(4000), f.balance(t, stakerAccount))
	require.Equal(t, *record, *f.keeper.GetStakeRecord(f.ctx, stakerAddr))
}

func TestDepositRequiresOwnerSignature(t *testing.T) {
	f := setupFixture(t)
	f.initialize(t, 100)
	otherAccount := f.fund(t, otherAddr, 500)

	_, err := f.keeper.Deposit(f.ctx, stakerAddr, otherAccount, 100)
	require.ErrorIs(t, err, tokenstypes.ErrUnauthorized)
	require.Nil(t, f.keeper.GetStakeRecord(f.ctx, stakerAddr))
	require.Equal(t, uint64(500), f.balance(t, otherAccount))
}

func TestDepositInsufficientFundsViaMsgServer(t *testing.T) {
	f := setupFixture(t)
	f.initialize(t, 100)
	stakerAccount := f.fund(t, stakerAddr, 50)

	_, err := f.msgs.Deposit(f.ctx, &types.MsgDeposit{Staker: stakerAddr, TokenAccount: stakerAccount, Amount: 51})
	require.ErrorIs(t, err, tokenstypes.ErrInsufficientFunds)
	require.Nil(t, f.keeper.GetStakeRecord(f.ctx, stakerAddr))
	require.Equal(t, uint64(50), f.balance(t, stakerAccount))
}

func TestDepositOverflowFailsLoudly(t *testing.T) {
	f := setupFixture(t)
	vault := f.initialize(t, 100)
	stakerAccount := f.fund(t, stakerAddr, 100)

	gs := f.keeper.ExportGenesis(f.ctx)
	gs.Stakes = append(gs.Stakes, types.StakeRecord{Staker: stakerAddr, Amount: math.MaxUint64 - 10})
	require.NoError(t, f.keeper.InitGenesis(f.ctx, *gs))
	seqBefore := f.keeper.LatestAuditSequence(f.ctx)

	_, err := f.keeper.Deposit(f.ctx, stakerAddr, stakerAccount, 11)
	require.ErrorIs(t, err, types.ErrArithmeticOverflow)

	_, err = f.msgs.Deposit(f.ctx, &types.MsgDeposit{Staker: stakerAddr, TokenAccount: stakerAccount, Amount: 50})
	require.ErrorIs(t, err, types.ErrArithmeticOverflow)

	require.Equal(t, uint64(math.MaxUint64-10), f.keeper.GetStakeRecord(f.ctx, stakerAddr).Amount)
	require.Equal(t, uint64(100), f.balance(t, stakerAccount))
	require.Equal(t, uint64(0), f.balance(t, vault.Address))
	require.Equal(t, seqBefore, f.keeper.LatestAuditSequence(f.ctx))

	// the largest deposit that still fits goes through
	record, err := f.keeper.Deposit(f.ctx, stakerAddr, stakerAccount, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), record.Amount)

	total, ok := f.keeper.TotalStaked(f.ctx)
	require.True(t, ok)
	require.Equal(t, uint64(math.MaxUint64), total)

	gs = f.keeper.ExportGenesis(f.ctx)
	gs.Stakes = append(gs.Stakes, types.StakeRecord{Staker: otherAddr, Amount: 1})
	require.NoError(t, f.keeper.InitGenesis(f.ctx, *gs))
	_, ok = f.keeper.TotalStaked(f.ctx)
	require.False(t, ok)
}

func TestWithdrawSplitsFee(t *testing.T) {
	f := setupFixture(t)
	vault := f.initialize(t, 100)
	stakerAccount := f.fund(t, stakerAddr, 1000)
	feeVault := f.fund(t, adminAddr, 0)

	_, err := f.keeper.Deposit(f.ctx, stakerAddr, stakerAccount, 1000)
	require.NoError(t, err)

	f.spy.reset(0)
	ctx := f.ctx.WithEventManager(sdk.NewEventManager())
	result, err := f.keeper.Withdraw(ctx, stakerAddr, stakerAccount, feeVault)
	require.NoError(t, err)

	require.Equal(t, uint64(1000), result.Total)
	require.Equal(t, uint64(10), result.Fee)
	require.Equal(t, uint64(990), result.UserAmount)
	require.Len(t, f.spy.transfers, 2)
	require.Equal(t, feeVault, f.spy.transfers[0].To)
	require.Equal(t, stakerAccount, f.spy.transfers[1].To)

	require.Equal(t, uint64(10), f.balance(t, feeVault))
	require.Equal(t, uint64(990), f.balance(t, stakerAccount))
	require.Equal(t, uint64(0), f.balance(t, vault.Address))
	require.Equal(t, uint64(0), f.keeper.GetStakeRecord(f.ctx, stakerAddr).Amount)

	var found bool
	for _, ev := range ctx.EventManager().Events() {
		if ev.Type != types.EventTypeTokensWithdrawn {
			continue
		}
		found = true
		attrs := map[string]string{}
		for _, a := range ev.Attributes {
			attrs[a.Key] = a.Value
		}
		require.Equal(t, "990", attrs[types.AttributeKeyAmount])
		require.Equal(t, "10", attrs[types.AttributeKeyFee])
		require.Equal(t, "0", attrs[types.AttributeKeyTotalStaked])
	}
	require.True(t, found, "tokens_withdrawn event not emitted")

	_, err = f.keeper.Withdraw(f.ctx, stakerAddr, stakerAccount, feeVault)
	require.ErrorIs(t, err, types.ErrInvalidWithdraw)
}

func TestWithdrawZeroFeeSkipsFeeTransfer(t *testing.T) {
	f := setupFixture(t)
	f.initialize(t, 0)
	stakerAccount := f.fund(t, stakerAddr, 1000)
	feeVault := f.fund(t, adminAddr, 0)

	_, err := f.keeper.Deposit(f.ctx, stakerAddr, stakerAccount, 1000)
	require.NoError(t, err)

	f.spy.reset(0)
	result, err := f.keeper.Withdraw(f.ctx, stakerAddr, stakerAccount, feeVault)
	require.NoError(t, err)
	require.Equal(t, uint64(0), result.Fee)
	require.Equal(t, uint64(1000), result.UserAmount)
	require.Len(t, f.spy.transfers, 1)
	require.Equal(t, uint64(0), f.balance(t, feeVault))
	require.Equal(t, uint64(1000), f.balance(t, stakerAccount))
}

func TestWithdrawUsesFeeAtWithdrawTime(t *testing.T) {
	f := setupFixture(t)
	f.initialize(t, 100)
	stakerAccount := f.fund(t, stakerAddr, 1000)
	feeVault := f.fund(t, adminAddr, 0)

	_, err := f.keeper.Deposit(f.ctx, stakerAddr, stakerAccount, 1000)
	require.NoError(t, err)
	_, err = f.keeper.UpdateFee(f.ctx, adminAddr, 500)
	require.NoError(t, err)

	result, err := f.keeper.Withdraw(f.ctx, stakerAddr, stakerAccount, feeVault)
	require.NoError(t, err)
	require.Equal(t, uint64(50), result.Fee)
	require.Equal(t, uint64(950), result.UserAmount)
}

func TestWithdrawRejections(t *testing.T) {
	f := setupFixture(t)
	f.initialize(t, 100)
	stakerAccount := f.fund(t, stakerAddr, 1000)
	adminFeeVault := f.fund(t, adminAddr, 0)
	otherFeeVault := f.fund(t, otherAddr, 0)

	// a foreign fee vault is rejected even when there is nothing to withdraw
	_, err := f.keeper.Withdraw(f.ctx, stakerAddr, stakerAccount, otherFeeVault)
	require.ErrorIs(t, err, types.ErrInvalidFeeVault)

	_, err = f.keeper.Withdraw(f.ctx, stakerAddr, stakerAccount, adminFeeVault)
	require.ErrorIs(t, err, types.ErrInvalidWithdraw)

	_, err = f.keeper.Deposit(f.ctx, stakerAddr, stakerAccount, 1000)
	require.NoError(t, err)

	_, err = f.keeper.Withdraw(f.ctx, stakerAddr, stakerAccount, otherFeeVault)
	require.ErrorIs(t, err, types.ErrInvalidFeeVault)

	_, err = f.keeper.Withdraw(f.ctx, stakerAddr, stakerAccount, otherAddr)
	require.ErrorIs(t, err, types.ErrInvalidFeeVault)

	require.Equal(t, uint64(1000), f.keeper.GetStakeRecord(f.ctx, stakerAddr).Amount)
	require.Equal(t, uint64(0), f.balance(t, otherFeeVault))
}

func TestWithdrawRollsBackWhenPayoutFails(t *testing.T) {
	f := setupFixture(t)
	vault := f.initialize(t, 100)
	stakerAccount := f.fund(t, stakerAddr, 1000)
	feeVault := f.fund(t, adminAddr, 0)

	_, err := f.msgs.Deposit(f.ctx, &types.MsgDeposit{Staker: stakerAddr, TokenAccount: stakerAccount, Amount: 1000})
	require.NoError(t, err)
	seqBefore := f.keeper.LatestAuditSequence(f.ctx)

	f.spy.reset(2)
	_, err = f.msgs.Withdraw(f.ctx, &types.MsgWithdraw{Staker: stakerAddr, TokenAccount: stakerAccount, FeeVault: feeVault})
	require.ErrorIs(t, err, errInjected)
	require.Len(t, f.spy.transfers, 2)

	require.Equal(t, uint64(0), f.balance(t, feeVault), "fee transfer must be rolled back")
	require.Equal(t, uint64(1000), f.balance(t, vault.Address))
	require.Equal(t, uint64(1000), f.keeper.GetStakeRecord(f.ctx, stakerAddr).Amount)
	require.Equal(t, seqBefore, f.keeper.LatestAuditSequence(f.ctx))

	f.spy.reset(0)
	resp, err := f.msgs.Withdraw(f.ctx, &types.MsgWithdraw{Staker: stakerAddr, TokenAccount: stakerAccount, FeeVault: feeVault})
	require.NoError(t, err)
	require.Equal(t, uint64(990), resp.Amount)
	require.Equal(t, uint64(10), resp.Fee)
}

func TestRecordReusedAfterWithdraw(t *testing.T) {
	f := setupFixture(t)
	f.initialize(t, 100)
	stakerAccount := f.fund(t, stakerAddr, 2000)
	feeVault := f.fund(t, adminAddr, 0)

	_, err := f.keeper.Deposit(f.ctx, stakerAddr, stakerAccount, 1000)
	require.NoError(t, err)
	_, err = f.keeper.Withdraw(f.ctx, stakerAddr, stakerAccount, feeVault)
	require.NoError(t, err)

	record, err := f.keeper.Deposit(f.ctx, stakerAddr, stakerAccount, 400)
	require.NoError(t, err)
	require.Equal(t, uint64(400), record.Amount)
	require.Len(t, f.keeper.GetAllStakeRecords(f.ctx), 1)
}

func TestAuditLog(t *testing.T) {
	f := setupFixture(t)
	f.initialize(t, 100)
	stakerAccount := f.fund(t, stakerAddr, 1000)
	feeVault := f.fund(t, adminAddr, 0)

	_, err := f.keeper.Deposit(f.ctx, stakerAddr, stakerAccount, 1000)
	require.NoError(t, err)
	_, err = f.keeper.UpdateFee(f.ctx, adminAddr, 200)
	require.NoError(t, err)
	_, err = f.keeper.Withdraw(f.ctx, stakerAddr, stakerAccount, feeVault)
	require.NoError(t, err)

	entries := f.keeper.GetAuditEntries(f.ctx, 0, 0)
	require.Len(t, entries, 4)
	kinds := make([]string, 0, len(entries))
	for i, e := range entries {
		require.Equal(t, uint64(i+1), e.Sequence)
		require.Equal(t, types.AuditVersion, e.Version)
		kinds = append(kinds, e.Kind)
	}
	require.Equal(t, []string{
		types.EventTypeStakingInitialized,
		types.EventTypeTokensStaked,
		types.EventTypeFeeUpdated,
		types.EventTypeTokensWithdrawn,
	}, kinds)

	var withdrawn types.TokensWithdrawn
	require.NoError(t, entries[3].Decode(&withdrawn))
	require.Equal(t, types.TokensWithdrawn{Staker: stakerAddr, Amount: 980, Fee: 20, TotalStaked: 0}, withdrawn)

	var fee types.FeeUpdated
	require.NoError(t, entries[2].Decode(&fee))
	require.Equal(t, types.FeeUpdated{OldFee: 100, NewFee: 200}, fee)

	tail := f.keeper.GetAuditEntries(f.ctx, 3, 10)
	require.Len(t, tail, 2)
	require.Equal(t, uint64(3), tail[0].Sequence)
	require.Equal(t, uint64(4), f.keeper.LatestAuditSequence(f.ctx))
}

func TestInvariants(t *testing.T) {
	f := setupFixture(t)
	f.initialize(t, 100)
	stakerAccount := f.fund(t, stakerAddr, 1000)

	_, err := f.keeper.Deposit(f.ctx, stakerAddr, stakerAccount, 700)
	require.NoError(t, err)

	msg, broken := VaultSolvencyInvariant(f.keeper)(f.ctx)
	require.False(t, broken, msg)
	_, broken = FeeBoundInvariant(f.keeper)(f.ctx)
	require.False(t, broken)

	require.NoError(t, f.keeper.SetStakeRecord(f.ctx, &types.StakeRecord{Staker: otherAddr, Amount: 1}))
	msg, broken = VaultSolvencyInvariant(f.keeper)(f.ctx)
	require.True(t, broken, msg)
}

func TestQueryServer(t *testing.T) {
	f := setupFixture(t)
	q := NewQueryServer(f.keeper)

	_, err := q.Config(f.ctx)
	require.ErrorIs(t, err, types.ErrNotInitialized)

	vault := f.initialize(t, 100)
	stakerAccount := f.fund(t, stakerAddr, 1000)
	_, err = f.keeper.Deposit(f.ctx, stakerAddr, stakerAccount, 600)
	require.NoError(t, err)

	info, err := q.Vault(f.ctx)
	require.NoError(t, err)
	require.Equal(t, vault.Address, info.Address)
	require.Equal(t, uint64(600), info.Balance)
	require.Equal(t, uint64(600), info.TotalStaked)

	record, err := q.StakeRecord(f.ctx, otherAddr)
	require.NoError(t, err)
	require.Equal(t, uint64(0), record.Amount)

	_, err = q.StakeRecord(f.ctx, "bogus")
	require.ErrorIs(t, err, types.ErrInvalidAddress)
}

func TestGenesisExportImport(t *testing.T) {
	f := setupFixture(t)
	f.initialize(t, 150)
	stakerAccount := f.fund(t, stakerAddr, 1000)
	_, err := f.keeper.Deposit(f.ctx, stakerAddr, stakerAccount, 800)
	require.NoError(t, err)

	exported := f.keeper.ExportGenesis(f.ctx)
	require.NoError(t, exported.Validate())

	g := setupFixture(t)
	require.NoError(t, g.keeper.InitGenesis(g.ctx, *exported))
	require.Equal(t, *f.keeper.GetConfig(f.ctx), *g.keeper.GetConfig(g.ctx))
	require.Equal(t, uint64(800), g.keeper.GetStakeRecord(g.ctx, stakerAddr).Amount)
	require.Len(t, g.keeper.GetAllVaults(g.ctx), 1)
}
