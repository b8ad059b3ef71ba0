package app

import (
	"testing"

	"github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	accesstypes "github.com/openalpha/stakevault/x/access/types"
	stakevaulttypes "github.com/openalpha/stakevault/x/stakevault/types"
	tokenstypes "github.com/openalpha/stakevault/x/tokens/types"
)

func TestEncodingResolvesLedgerMsgs(t *testing.T) {
	cfg := MakeEncodingConfig()

	impls := cfg.InterfaceRegistry.ListImplementations(sdk.MsgInterfaceProtoName)
	for _, msg := range LedgerMsgs() {
		typeURL := sdk.MsgTypeURL(msg)
		require.Contains(t, impls, typeURL)

		resolved, err := cfg.InterfaceRegistry.Resolve(typeURL)
		require.NoError(t, err, typeURL)
		require.IsType(t, msg, resolved)
	}

	// the two MsgInitialize types live under distinct package names
	require.Equal(t, "/stakevault.stakevault.v1.MsgInitialize", sdk.MsgTypeURL(&stakevaulttypes.MsgInitialize{}))
	require.NotEqual(t, sdk.MsgTypeURL(&stakevaulttypes.MsgInitialize{}), sdk.MsgTypeURL(&accesstypes.MsgInitialize{}))
}

func TestCheckLedgerMsgsReportsMissingModule(t *testing.T) {
	registry := types.NewInterfaceRegistry()
	tokenstypes.RegisterInterfaces(registry)

	err := checkLedgerMsgs(registry)
	require.Error(t, err)
	require.Contains(t, err.Error(), "stakevault.stakevault.v1.MsgInitialize")
}
