package keeper

import (
	"encoding/json"
	"math/bits"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/x/stakevault/types"
)

// Keeper manages the staking vault module state
type Keeper struct {
	cdc           codec.BinaryCodec
	storeKey      storetypes.StoreKey
	auditStoreKey storetypes.StoreKey
	tokenKeeper   types.TokenKeeper
	logger        log.Logger

	// only this address may initialize the config
	bootstrapAdmin string

	metrics types.MetricsRecorder
}

// NewKeeper creates a new stakevault keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	auditStoreKey storetypes.StoreKey,
	tokenKeeper types.TokenKeeper,
	bootstrapAdmin string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:            cdc,
		storeKey:       storeKey,
		auditStoreKey:  auditStoreKey,
		tokenKeeper:    tokenKeeper,
		bootstrapAdmin: bootstrapAdmin,
		logger:         logger.With("module", "x/stakevault"),
	}
}

// SetMetrics attaches a recorder that observes committed operations
func (k *Keeper) SetMetrics(m types.MetricsRecorder) {
	k.metrics = m
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// BootstrapAdmin returns the address allowed to initialize the config
func (k *Keeper) BootstrapAdmin() string {
	return k.bootstrapAdmin
}

// GetStore returns the primary KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// GetAuditStore returns the audit log KVStore
func (k *Keeper) GetAuditStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.auditStoreKey)
}

// ============ Config ============

// SetConfig saves the global config
func (k *Keeper) SetConfig(ctx sdk.Context, config *types.GlobalConfig) {
	bz, _ := json.Marshal(config)
	k.GetStore(ctx).Set(types.ConfigKey, bz)
}

// GetConfig retrieves the global config, or nil before initialization
func (k *Keeper) GetConfig(ctx sdk.Context) *types.GlobalConfig {
	bz := k.GetStore(ctx).Get(types.ConfigKey)
	if bz == nil {
		return nil
	}
	var config types.GlobalConfig
	if err := json.Unmarshal(bz, &config); err != nil {
		return nil
	}
	return &config
}

// ============ Vaults ============

// SetVault saves a vault
func (k *Keeper) SetVault(ctx sdk.Context, vault *types.Vault) {
	bz, _ := json.Marshal(vault)
	k.GetStore(ctx).Set(types.VaultKey(vault.Denom), bz)
}

// GetVault retrieves the vault for denom
func (k *Keeper) GetVault(ctx sdk.Context, denom string) *types.Vault {
	bz := k.GetStore(ctx).Get(types.VaultKey(denom))
	if bz == nil {
		return nil
	}
	var vault types.Vault
	if err := json.Unmarshal(bz, &vault); err != nil {
		return nil
	}
	return &vault
}

// GetAllVaults returns all vaults
func (k *Keeper) GetAllVaults(ctx sdk.Context) []*types.Vault {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, types.VaultKeyPrefix)
	defer iterator.Close()

	var vaults []*types.Vault
	for ; iterator.Valid(); iterator.Next() {
		var vault types.Vault
		if err := json.Unmarshal(iterator.Value(), &vault); err != nil {
			continue
		}
		vaults = append(vaults, &vault)
	}
	return vaults
}

// ============ Stake records ============

// SetStakeRecord saves a stake record under the staker's derived key
func (k *Keeper) SetStakeRecord(ctx sdk.Context, record *types.StakeRecord) error {
	key, err := StakeRecordKey(record.Staker)
	if err != nil {
		return err
	}
	bz, _ := json.Marshal(record)
	k.GetStore(ctx).Set(key, bz)
	return nil
}

// GetStakeRecord retrieves the stake record of staker, or nil if none exists
func (k *Keeper) GetStakeRecord(ctx sdk.Context, staker string) *types.StakeRecord {
	key, err := StakeRecordKey(staker)
	if err != nil {
		return nil
	}
	bz := k.GetStore(ctx).Get(key)
	if bz == nil {
		return nil
	}
	var record types.StakeRecord
	if err := json.Unmarshal(bz, &record); err != nil {
		return nil
	}
	return &record
}

// GetAllStakeRecords returns every stake record
func (k *Keeper) GetAllStakeRecords(ctx sdk.Context) []*types.StakeRecord {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, types.StakeKeyPrefix)
	defer iterator.Close()

	var records []*types.StakeRecord
	for ; iterator.Valid(); iterator.Next() {
		var record types.StakeRecord
		if err := json.Unmarshal(iterator.Value(), &record); err != nil {
			continue
		}
		records = append(records, &record)
	}
	return records
}

// TotalStaked sums the recorded balance of every staker
func (k *Keeper) TotalStaked(ctx sdk.Context) (uint64, bool) {
	var total uint64
	for _, r := range k.GetAllStakeRecords(ctx) {
		var carry uint64
		total, carry = bits.Add64(total, r.Amount, 0)
		if carry != 0 {
			return 0, false
		}
	}
	return total, true
}
