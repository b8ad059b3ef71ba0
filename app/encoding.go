package app

import (
	"fmt"

	"cosmossdk.io/core/address"
	"cosmossdk.io/x/tx/signing"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/codec"
	addresscodec "github.com/cosmos/cosmos-sdk/codec/address"
	"github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/std"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/x/auth/tx"
	"github.com/cosmos/gogoproto/proto"

	accesstypes "github.com/openalpha/stakevault/x/access/types"
	stakevaulttypes "github.com/openalpha/stakevault/x/stakevault/types"
	tokenstypes "github.com/openalpha/stakevault/x/tokens/types"
)

// EncodingConfig holds the codecs shared by the app and the stakevaultd CLI
type EncodingConfig struct {
	InterfaceRegistry types.InterfaceRegistry
	Codec             codec.Codec
	TxConfig          client.TxConfig
	Amino             *codec.LegacyAmino
}

// LedgerMsgs lists one instance of every ledger message. Their type URLs
// must resolve in the app's interface registry so that signed txs and
// exported genesis files containing them decode.
func LedgerMsgs() []sdk.Msg {
	return []sdk.Msg{
		&tokenstypes.MsgCreateAccount{},
		&tokenstypes.MsgMint{},
		&tokenstypes.MsgTransfer{},
		&stakevaulttypes.MsgInitialize{},
		&stakevaulttypes.MsgUpdateFee{},
		&stakevaulttypes.MsgDeposit{},
		&stakevaulttypes.MsgWithdraw{},
		&accesstypes.MsgInitialize{},
		&accesstypes.MsgRestrictedFunction{},
		&accesstypes.MsgTransferOwnership{},
	}
}

// accountCodec returns the bech32 codec for the configured account prefix
func accountCodec() address.Codec {
	return addresscodec.NewBech32Codec(sdk.GetConfig().GetBech32AccountAddrPrefix())
}

// MakeEncodingConfig builds the codecs and panics when a ledger message is
// missing from the registry
func MakeEncodingConfig() EncodingConfig {
	amino := codec.NewLegacyAmino()

	signingOptions := signing.Options{
		AddressCodec:          accountCodec(),
		ValidatorAddressCodec: addresscodec.NewBech32Codec(sdk.GetConfig().GetBech32ValidatorAddrPrefix()),
	}

	interfaceRegistry, err := types.NewInterfaceRegistryWithOptions(types.InterfaceRegistryOptions{
		ProtoFiles:     proto.HybridResolver,
		SigningOptions: signingOptions,
	})
	if err != nil {
		panic(err)
	}

	cdc := codec.NewProtoCodec(interfaceRegistry)

	txCfg, err := tx.NewTxConfigWithOptions(cdc, tx.ConfigOptions{
		EnabledSignModes: tx.DefaultSignModes,
		SigningOptions:   &signingOptions,
	})
	if err != nil {
		panic(err)
	}

	std.RegisterLegacyAminoCodec(amino)
	std.RegisterInterfaces(interfaceRegistry)
	ModuleBasics.RegisterLegacyAminoCodec(amino)
	ModuleBasics.RegisterInterfaces(interfaceRegistry)

	if err := checkLedgerMsgs(interfaceRegistry); err != nil {
		panic(err)
	}

	return EncodingConfig{
		InterfaceRegistry: interfaceRegistry,
		Codec:             cdc,
		TxConfig:          txCfg,
		Amino:             amino,
	}
}

// checkLedgerMsgs fails on the first ledger message whose type URL does not
// resolve. A module missing from ModuleBasics would otherwise go unnoticed
// until a tx carrying its msgs fails to decode.
func checkLedgerMsgs(registry types.InterfaceRegistry) error {
	for _, msg := range LedgerMsgs() {
		typeURL := sdk.MsgTypeURL(msg)
		if _, err := registry.Resolve(typeURL); err != nil {
			return fmt.Errorf("ledger msg %s is not registered: %w", typeURL, err)
		}
	}
	return nil
}
