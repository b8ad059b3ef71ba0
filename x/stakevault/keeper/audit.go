package keeper

import (
	"encoding/json"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/x/stakevault/types"
)

// maxAuditPage bounds a single GetAuditEntries read
const maxAuditPage = 500

// LatestAuditSequence returns the sequence of the last appended entry, 0 if none
func (k *Keeper) LatestAuditSequence(ctx sdk.Context) uint64 {
	bz := k.GetAuditStore(ctx).Get(types.AuditSequenceKey)
	if bz == nil {
		return 0
	}
	return sdk.BigEndianToUint64(bz)
}

// appendAudit writes the next audit entry. Entries are never rewritten.
func (k *Keeper) appendAudit(ctx sdk.Context, kind string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	store := k.GetAuditStore(ctx)
	seq := k.LatestAuditSequence(ctx) + 1
	entry := types.AuditEntry{
		Sequence: seq,
		Version:  types.AuditVersion,
		Kind:     kind,
		Height:   ctx.BlockHeight(),
		Time:     ctx.BlockTime().Unix(),
		Payload:  raw,
	}
	bz, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	store.Set(types.AuditEntryKey(seq), bz)
	store.Set(types.AuditSequenceKey, sdk.Uint64ToBigEndian(seq))
	return nil
}

// GetAuditEntries returns up to limit entries with a sequence of at least from
func (k *Keeper) GetAuditEntries(ctx sdk.Context, from uint64, limit int) []types.AuditEntry {
	if limit <= 0 || limit > maxAuditPage {
		limit = maxAuditPage
	}
	if from == 0 {
		from = 1
	}

	store := k.GetAuditStore(ctx)
	iterator := store.Iterator(types.AuditEntryKey(from), storetypes.PrefixEndBytes(types.AuditEntryKeyPrefix))
	defer iterator.Close()

	entries := make([]types.AuditEntry, 0)
	for ; iterator.Valid() && len(entries) < limit; iterator.Next() {
		var entry types.AuditEntry
		if err := json.Unmarshal(iterator.Value(), &entry); err != nil {
			k.logger.Error("Corrupt audit entry", "key", iterator.Key(), "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
