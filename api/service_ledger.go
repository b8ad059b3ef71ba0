package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/store"
	storemetrics "cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/api/types"
	accesskeeper "github.com/openalpha/stakevault/x/access/keeper"
	accesstypes "github.com/openalpha/stakevault/x/access/types"
	svkeeper "github.com/openalpha/stakevault/x/stakevault/keeper"
	svtypes "github.com/openalpha/stakevault/x/stakevault/types"
	tokenskeeper "github.com/openalpha/stakevault/x/tokens/keeper"
	tokenstypes "github.com/openalpha/stakevault/x/tokens/types"
)

// AuditPublisher receives audit entries after the state that produced them
// is committed
type AuditPublisher interface {
	PublishAudit(entry svtypes.AuditEntry)
}

// LedgerMetrics is the part of the metrics collector the ledger reports to
type LedgerMetrics interface {
	svtypes.MetricsRecorder
	RecordAuditSequence(seq uint64)
}

// LedgerConfig configures a LedgerService
type LedgerConfig struct {
	// BootstrapAdmin is the only address allowed to initialize staking
	BootstrapAdmin string
	// MintAuthority may mint into any token account
	MintAuthority string

	Metrics LedgerMetrics
	Logger  log.Logger

	// Now is the block time source. Defaults to time.Now.
	Now func() time.Time
}

// LedgerService runs the tokens, stakevault and access keepers over an
// in-memory multistore. Every call is serialized and executes as its own
// block: the header advances, the message server runs against a cache of
// the store, and the store is committed on success.
type LedgerService struct {
	mu     sync.Mutex
	store  storetypes.CommitMultiStore
	header cmtproto.Header
	now    func() time.Time

	tokens *tokenskeeper.Keeper
	stake  *svkeeper.Keeper
	access *accesskeeper.Keeper

	tokenMsgs  tokenstypes.MsgServer
	stakeMsgs  svtypes.MsgServer
	accessMsgs accesstypes.MsgServer
	queries    *svkeeper.QueryServer

	publisher AuditPublisher
	metrics   LedgerMetrics
	logger    log.Logger
}

var (
	_ types.StakeService  = (*LedgerService)(nil)
	_ types.TokenService  = (*LedgerService)(nil)
	_ types.AccessService = (*LedgerService)(nil)
)

// NewLedgerService creates a LedgerService with empty state
func NewLedgerService(cfg LedgerConfig) (*LedgerService, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.NewNopLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	tokensKey := storetypes.NewKVStoreKey(tokenstypes.StoreKey)
	stakeKey := storetypes.NewKVStoreKey(svtypes.StoreKey)
	auditKey := storetypes.NewKVStoreKey(svtypes.AuditStoreKey)
	accessKey := storetypes.NewKVStoreKey(accesstypes.StoreKey)

	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, cfg.Logger, storemetrics.NewNoOpMetrics())
	for _, key := range []*storetypes.KVStoreKey{tokensKey, stakeKey, auditKey, accessKey} {
		stateStore.MountStoreWithDB(key, storetypes.StoreTypeIAVL, db)
	}
	if err := stateStore.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	tokens := tokenskeeper.NewKeeper(cdc, tokensKey, cfg.MintAuthority, []string{svtypes.ModuleName}, cfg.Logger)
	stake := svkeeper.NewKeeper(cdc, stakeKey, auditKey, tokens, cfg.BootstrapAdmin, cfg.Logger)
	if cfg.Metrics != nil {
		stake.SetMetrics(cfg.Metrics)
	}
	access := accesskeeper.NewKeeper(accessKey, cfg.Logger)

	return &LedgerService{
		store:      stateStore,
		header:     cmtproto.Header{ChainID: "stakevault-api", Height: 0},
		now:        cfg.Now,
		tokens:     tokens,
		stake:      stake,
		access:     access,
		tokenMsgs:  tokenskeeper.NewMsgServerImpl(tokens),
		stakeMsgs:  svkeeper.NewMsgServerImpl(stake),
		accessMsgs: accesskeeper.NewMsgServerImpl(access),
		queries:    svkeeper.NewQueryServer(stake),
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.With("module", "api/ledger"),
	}, nil
}

// SetPublisher attaches the audit feed
func (s *LedgerService) SetPublisher(p AuditPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = p
}

// Height returns the height of the last committed block
func (s *LedgerService) Height() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.header.Height
}

// execute runs fn as the next block. Nothing is committed when fn fails.
func (s *LedgerService) execute(parent context.Context, fn func(ctx sdk.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	header := s.header
	header.Height++
	header.Time = s.now().UTC()

	cms := s.store.CacheMultiStore()
	ctx := sdk.NewContext(cms, header, false, s.logger).WithContext(parent)

	sdkCtx := sdk.NewContext(s.store, header, false, s.logger)
	before := s.stake.LatestAuditSequence(sdkCtx)

	if err := fn(ctx); err != nil {
		return err
	}
	cms.Write()
	s.store.Commit()
	s.header = header

	latest := s.stake.LatestAuditSequence(sdkCtx)
	if latest == before {
		return nil
	}
	if s.metrics != nil {
		s.metrics.RecordAuditSequence(latest)
	}
	if s.publisher != nil {
		for _, entry := range s.stake.GetAuditEntries(sdkCtx, before+1, int(latest-before)) {
			s.publisher.PublishAudit(entry)
		}
	}
	return nil
}

// query runs fn against the committed state
func (s *LedgerService) query(parent context.Context, fn func(ctx sdk.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := sdk.NewContext(s.store.CacheMultiStore(), s.header, false, s.logger).WithContext(parent)
	return fn(ctx)
}

// ============================================================================
// StakeService Implementation
// ============================================================================

func (s *LedgerService) Initialize(ctx context.Context, signer string, req *types.InitializeRequest) (*types.InitializeResponse, error) {
	var resp *types.InitializeResponse
	err := s.execute(ctx, func(sdkCtx sdk.Context) error {
		res, err := s.stakeMsgs.Initialize(sdkCtx, &svtypes.MsgInitialize{
			Payer:          signer,
			Denom:          req.Denom,
			WithdrawFeeBps: req.WithdrawFeeBps,
		})
		if err != nil {
			return err
		}
		resp = &types.InitializeResponse{
			Config: s.stake.GetConfig(sdkCtx),
			Vault:  res.Vault,
			Bump:   res.Bump,
		}
		return nil
	})
	return resp, err
}

func (s *LedgerService) UpdateFee(ctx context.Context, signer string, req *types.UpdateFeeRequest) (*types.UpdateFeeResponse, error) {
	var resp *types.UpdateFeeResponse
	err := s.execute(ctx, func(sdkCtx sdk.Context) error {
		res, err := s.stakeMsgs.UpdateFee(sdkCtx, &svtypes.MsgUpdateFee{Admin: signer, NewFeeBps: req.NewFeeBps})
		if err != nil {
			return err
		}
		resp = &types.UpdateFeeResponse{OldFeeBps: res.OldFeeBps, NewFeeBps: res.NewFeeBps}
		return nil
	})
	return resp, err
}

func (s *LedgerService) Deposit(ctx context.Context, signer string, req *types.DepositRequest) (*types.DepositResponse, error) {
	amount, err := types.ParseAmount(req.Amount)
	if err != nil {
		return nil, errorsmod.Wrapf(svtypes.ErrInvalidAmount, "amount %q: %s", req.Amount, err)
	}

	var resp *types.DepositResponse
	err = s.execute(ctx, func(sdkCtx sdk.Context) error {
		res, err := s.stakeMsgs.Deposit(sdkCtx, &svtypes.MsgDeposit{
			Staker:       signer,
			TokenAccount: req.TokenAccount,
			Amount:       amount,
		})
		if err != nil {
			return err
		}
		resp = &types.DepositResponse{
			Staker:      signer,
			TotalStaked: types.FormatAmount(res.TotalStaked),
			DepositTs:   res.DepositTs,
		}
		return nil
	})
	return resp, err
}

func (s *LedgerService) Withdraw(ctx context.Context, signer string, req *types.WithdrawRequest) (*types.WithdrawResponse, error) {
	var resp *types.WithdrawResponse
	err := s.execute(ctx, func(sdkCtx sdk.Context) error {
		res, err := s.stakeMsgs.Withdraw(sdkCtx, &svtypes.MsgWithdraw{
			Staker:       signer,
			TokenAccount: req.TokenAccount,
			FeeVault:     req.FeeVault,
		})
		if err != nil {
			return err
		}
		resp = &types.WithdrawResponse{
			Staker:     signer,
			Total:      types.FormatAmount(res.Amount + res.Fee),
			Fee:        types.FormatAmount(res.Fee),
			UserAmount: types.FormatAmount(res.Amount),
		}
		return nil
	})
	return resp, err
}

func (s *LedgerService) GetConfig(ctx context.Context) (*svtypes.GlobalConfig, error) {
	var config *svtypes.GlobalConfig
	err := s.query(ctx, func(sdkCtx sdk.Context) (err error) {
		config, err = s.queries.Config(sdkCtx)
		return err
	})
	return config, err
}

// GetVault returns the vault for denom
func (s *LedgerService) GetVault(ctx context.Context, denom string) (*svkeeper.VaultInfo, error) {
	var info *svkeeper.VaultInfo
	err := s.query(ctx, func(sdkCtx sdk.Context) error {
		vault := s.stake.GetVault(sdkCtx, denom)
		if vault == nil {
			return errorsmod.Wrapf(svtypes.ErrVaultNotFound, "denom %s", denom)
		}
		balance, err := s.stake.VaultBalance(sdkCtx, denom)
		if err != nil {
			return err
		}
		staked, _ := s.stake.TotalStaked(sdkCtx)
		info = &svkeeper.VaultInfo{Vault: *vault, Balance: balance, TotalStaked: staked}
		return nil
	})
	return info, err
}

func (s *LedgerService) GetStake(ctx context.Context, staker string) (*types.StakeResponse, error) {
	var resp *types.StakeResponse
	err := s.query(ctx, func(sdkCtx sdk.Context) error {
		record, err := s.queries.StakeRecord(sdkCtx, staker)
		if err != nil {
			return err
		}
		resp = &types.StakeResponse{
			Staker:    record.Staker,
			Amount:    types.FormatAmount(record.Amount),
			DepositTs: record.DepositTs,
		}
		return nil
	})
	return resp, err
}

func (s *LedgerService) GetAudit(ctx context.Context, from uint64, limit int) (*types.AuditResponse, error) {
	var resp *types.AuditResponse
	err := s.query(ctx, func(sdkCtx sdk.Context) error {
		entries, err := s.queries.AuditLog(sdkCtx, from, limit)
		if err != nil {
			return err
		}
		if entries == nil {
			entries = []svtypes.AuditEntry{}
		}
		resp = &types.AuditResponse{Entries: entries, Latest: s.stake.LatestAuditSequence(sdkCtx)}
		return nil
	})
	return resp, err
}

// ============================================================================
// TokenService Implementation
// ============================================================================

func (s *LedgerService) CreateAccount(ctx context.Context, signer string, req *types.CreateAccountRequest) (*types.TokenAccountResponse, error) {
	owner := req.Owner
	if owner == "" {
		owner = signer
	}

	var resp *types.TokenAccountResponse
	err := s.execute(ctx, func(sdkCtx sdk.Context) error {
		res, err := s.tokenMsgs.CreateAccount(sdkCtx, &tokenstypes.MsgCreateAccount{Owner: owner, Denom: req.Denom})
		if err != nil {
			return err
		}
		resp = types.NewTokenAccountResponse(s.tokens.GetAccount(sdkCtx, res.Address))
		return nil
	})
	return resp, err
}

func (s *LedgerService) Mint(ctx context.Context, signer string, req *types.MintRequest) (*types.TokenAccountResponse, error) {
	amount, err := types.ParseAmount(req.Amount)
	if err != nil {
		return nil, errorsmod.Wrapf(tokenstypes.ErrInvalidAmount, "amount %q: %s", req.Amount, err)
	}

	var resp *types.TokenAccountResponse
	err = s.execute(ctx, func(sdkCtx sdk.Context) error {
		if _, err := s.tokenMsgs.Mint(sdkCtx, &tokenstypes.MsgMint{
			Authority: signer,
			Recipient: req.Recipient,
			Amount:    amount,
		}); err != nil {
			return err
		}
		resp = types.NewTokenAccountResponse(s.tokens.GetAccount(sdkCtx, req.Recipient))
		return nil
	})
	return resp, err
}

func (s *LedgerService) Transfer(ctx context.Context, signer string, req *types.TransferRequest) error {
	amount, err := types.ParseAmount(req.Amount)
	if err != nil {
		return errorsmod.Wrapf(tokenstypes.ErrInvalidAmount, "amount %q: %s", req.Amount, err)
	}

	return s.execute(ctx, func(sdkCtx sdk.Context) error {
		_, err := s.tokenMsgs.Transfer(sdkCtx, &tokenstypes.MsgTransfer{
			Sender: signer,
			From:   req.From,
			To:     req.To,
			Amount: amount,
		})
		return err
	})
}

func (s *LedgerService) GetAccount(ctx context.Context, address string) (*types.TokenAccountResponse, error) {
	var resp *types.TokenAccountResponse
	err := s.query(ctx, func(sdkCtx sdk.Context) error {
		acc := s.tokens.GetAccount(sdkCtx, address)
		if acc == nil {
			return errorsmod.Wrapf(tokenstypes.ErrAccountNotFound, "account %s", address)
		}
		resp = types.NewTokenAccountResponse(acc)
		return nil
	})
	return resp, err
}

// ============================================================================
// AccessService Implementation
// ============================================================================

func (s *LedgerService) InitializeAccess(ctx context.Context, signer string) (*accesstypes.AccessConfig, error) {
	var config *accesstypes.AccessConfig
	err := s.execute(ctx, func(sdkCtx sdk.Context) error {
		if _, err := s.accessMsgs.Initialize(sdkCtx, &accesstypes.MsgInitialize{Signer: signer}); err != nil {
			return err
		}
		config = s.access.GetConfig(sdkCtx)
		return nil
	})
	return config, err
}

func (s *LedgerService) RestrictedFunction(ctx context.Context, signer string) error {
	return s.execute(ctx, func(sdkCtx sdk.Context) error {
		_, err := s.accessMsgs.RestrictedFunction(sdkCtx, &accesstypes.MsgRestrictedFunction{Signer: signer})
		return err
	})
}

func (s *LedgerService) TransferOwnership(ctx context.Context, signer string, req *types.TransferOwnershipRequest) (*types.TransferOwnershipResponse, error) {
	var resp *types.TransferOwnershipResponse
	err := s.execute(ctx, func(sdkCtx sdk.Context) error {
		res, err := s.accessMsgs.TransferOwnership(sdkCtx, &accesstypes.MsgTransferOwnership{
			Signer:   signer,
			NewAdmin: req.NewAdmin,
		})
		if err != nil {
			return err
		}
		resp = &types.TransferOwnershipResponse{OldAdmin: res.OldAdmin, NewAdmin: res.NewAdmin}
		return nil
	})
	return resp, err
}

func (s *LedgerService) GetAccess(ctx context.Context) (*accesstypes.AccessConfig, error) {
	var config *accesstypes.AccessConfig
	err := s.query(ctx, func(sdkCtx sdk.Context) error {
		config = s.access.GetConfig(sdkCtx)
		if config == nil {
			return accesstypes.ErrNotInitialized
		}
		return nil
	})
	return config, err
}
