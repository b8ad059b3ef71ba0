package keeper

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/pkg/derive"
	"github.com/openalpha/stakevault/x/tokens/types"
)

// Keeper manages token accounts and balances
type Keeper struct {
	cdc       codec.BinaryCodec
	storeKey  storetypes.StoreKey
	logger    log.Logger
	authority string

	// modules allowed to spend from accounts they own through derived addresses
	derivers map[string]bool
}

// NewKeeper creates a new tokens keeper. authority is the mint authority;
// derivers lists the modules whose capabilities are honored by Transfer.
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	authority string,
	derivers []string,
	logger log.Logger,
) *Keeper {
	allowed := make(map[string]bool, len(derivers))
	for _, m := range derivers {
		allowed[m] = true
	}
	return &Keeper{
		cdc:       cdc,
		storeKey:  storeKey,
		authority: authority,
		derivers:  allowed,
		logger:    logger.With("module", "x/tokens"),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the mint authority address
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// SetAccount saves a token account
func (k *Keeper) SetAccount(ctx sdk.Context, acc *types.TokenAccount) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(acc)
	store.Set(types.AccountKey(acc.Address), bz)
	store.Set(types.OwnerIndexKey(acc.Owner, acc.Address), []byte{0x01})
}

// GetAccount retrieves a token account, or nil when it does not exist
func (k *Keeper) GetAccount(ctx sdk.Context, address string) *types.TokenAccount {
	bz := k.GetStore(ctx).Get(types.AccountKey(address))
	if bz == nil {
		return nil
	}
	var acc types.TokenAccount
	if err := json.Unmarshal(bz, &acc); err != nil {
		return nil
	}
	return &acc
}

// GetAccountsByOwner returns every account owned by owner
func (k *Keeper) GetAccountsByOwner(ctx sdk.Context, owner string) []*types.TokenAccount {
	store := k.GetStore(ctx)
	prefix := types.OwnerIndexPrefix(owner)
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	var accounts []*types.TokenAccount
	for ; iterator.Valid(); iterator.Next() {
		address := string(iterator.Key()[len(prefix):])
		if acc := k.GetAccount(ctx, address); acc != nil {
			accounts = append(accounts, acc)
		}
	}
	return accounts
}

// GetAllAccounts returns every token account
func (k *Keeper) GetAllAccounts(ctx sdk.Context) []*types.TokenAccount {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, types.AccountKeyPrefix)
	defer iterator.Close()

	var accounts []*types.TokenAccount
	for ; iterator.Valid(); iterator.Next() {
		var acc types.TokenAccount
		if err := json.Unmarshal(iterator.Value(), &acc); err != nil {
			continue
		}
		accounts = append(accounts, &acc)
	}
	return accounts
}

// GetSupply returns the minted supply of denom
func (k *Keeper) GetSupply(ctx sdk.Context, denom string) uint64 {
	bz := k.GetStore(ctx).Get(types.SupplyKey(denom))
	if bz == nil {
		return 0
	}
	return sdk.BigEndianToUint64(bz)
}

func (k *Keeper) setSupply(ctx sdk.Context, denom string, supply uint64) {
	k.GetStore(ctx).Set(types.SupplyKey(denom), sdk.Uint64ToBigEndian(supply))
}

// CreateAccount opens an empty account at address held by owner
func (k *Keeper) CreateAccount(ctx sdk.Context, address, owner, denom string) (*types.TokenAccount, error) {
	if _, err := sdk.AccAddressFromBech32(address); err != nil {
		return nil, errorsmod.Wrapf(types.ErrInvalidAddress, "account %q: %s", address, err)
	}
	if _, err := sdk.AccAddressFromBech32(owner); err != nil {
		return nil, errorsmod.Wrapf(types.ErrInvalidAddress, "owner %q: %s", owner, err)
	}
	if err := sdk.ValidateDenom(denom); err != nil {
		return nil, errorsmod.Wrap(types.ErrInvalidDenom, err.Error())
	}
	if k.GetAccount(ctx, address) != nil {
		return nil, errorsmod.Wrapf(types.ErrAccountExists, "address %s", address)
	}

	acc := &types.TokenAccount{
		Address: address,
		Owner:   owner,
		Denom:   denom,
	}
	k.SetAccount(ctx, acc)

	k.logger.Info("Token account created",
		"address", address,
		"owner", owner,
		"denom", denom,
	)
	return acc, nil
}

// AssociatedAddress returns the address of owner's associated account for denom
func AssociatedAddress(owner, denom string) (sdk.AccAddress, error) {
	ownerAddr, err := sdk.AccAddressFromBech32(owner)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrInvalidAddress, "owner %q: %s", owner, err)
	}
	addr, _, err := derive.FindAddress(types.ModuleName, ownerAddr, types.AssociatedSeed, []byte(denom))
	if err != nil {
		return nil, err
	}
	return addr, nil
}

// CreateAssociatedAccount opens owner's associated account for denom
func (k *Keeper) CreateAssociatedAccount(ctx sdk.Context, owner, denom string) (*types.TokenAccount, error) {
	addr, err := AssociatedAddress(owner, denom)
	if err != nil {
		return nil, err
	}
	return k.CreateAccount(ctx, addr.String(), owner, denom)
}
