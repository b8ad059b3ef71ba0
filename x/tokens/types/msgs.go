package types

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// RegisterInterfaces registers the module's interface types
func RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	registry.RegisterImplementations((*sdk.Msg)(nil),
		&MsgCreateAccount{},
		&MsgMint{},
		&MsgTransfer{},
	)
}

// Message types for the tokens module
const (
	TypeMsgCreateAccount = "create_account"
	TypeMsgMint          = "mint"
	TypeMsgTransfer      = "transfer"
)

// MsgServer defines the tokens module's message service
type MsgServer interface {
	CreateAccount(context.Context, *MsgCreateAccount) (*MsgCreateAccountResponse, error)
	Mint(context.Context, *MsgMint) (*MsgMintResponse, error)
	Transfer(context.Context, *MsgTransfer) (*MsgTransferResponse, error)
}

// MsgCreateAccount opens the owner's associated account for a denom
type MsgCreateAccount struct {
	Owner string `json:"owner"`
	Denom string `json:"denom"`
}

// MsgMint credits newly issued tokens to a token account
type MsgMint struct {
	Authority string `json:"authority"`
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

// MsgTransfer moves tokens between two accounts of the same denom
type MsgTransfer struct {
	Sender string `json:"sender"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

func (msg *MsgCreateAccount) Reset()         { *msg = MsgCreateAccount{} }
func (msg *MsgCreateAccount) String() string { return msg.Owner + "/" + msg.Denom }
func (msg *MsgCreateAccount) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgCreateAccount
func (msg *MsgCreateAccount) XXX_MessageName() string {
	return "stakevault.tokens.v1.MsgCreateAccount"
}

func (msg *MsgMint) Reset()         { *msg = MsgMint{} }
func (msg *MsgMint) String() string { return msg.Recipient }
func (msg *MsgMint) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgMint
func (msg *MsgMint) XXX_MessageName() string {
	return "stakevault.tokens.v1.MsgMint"
}

func (msg *MsgTransfer) Reset()         { *msg = MsgTransfer{} }
func (msg *MsgTransfer) String() string { return msg.From + "->" + msg.To }
func (msg *MsgTransfer) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgTransfer
func (msg *MsgTransfer) XXX_MessageName() string {
	return "stakevault.tokens.v1.MsgTransfer"
}

// ValidateBasic for MsgCreateAccount
func (msg *MsgCreateAccount) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Owner); err != nil {
		return errorsmod.Wrapf(ErrInvalidAddress, "owner: %s", err)
	}
	if err := sdk.ValidateDenom(msg.Denom); err != nil {
		return errorsmod.Wrap(ErrInvalidDenom, err.Error())
	}
	return nil
}

// GetSigners returns the signer addresses for MsgCreateAccount
func (msg *MsgCreateAccount) GetSigners() []sdk.AccAddress {
	owner, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{owner}
}

// ValidateBasic for MsgMint
func (msg *MsgMint) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return errorsmod.Wrapf(ErrInvalidAddress, "authority: %s", err)
	}
	if _, err := sdk.AccAddressFromBech32(msg.Recipient); err != nil {
		return errorsmod.Wrapf(ErrInvalidAddress, "recipient: %s", err)
	}
	if msg.Amount == 0 {
		return errorsmod.Wrap(ErrInvalidAmount, "mint amount must be positive")
	}
	return nil
}

// GetSigners returns the signer addresses for MsgMint
func (msg *MsgMint) GetSigners() []sdk.AccAddress {
	authority, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{authority}
}

// ValidateBasic for MsgTransfer
func (msg *MsgTransfer) ValidateBasic() error {
	for field, addr := range map[string]string{"sender": msg.Sender, "from": msg.From, "to": msg.To} {
		if _, err := sdk.AccAddressFromBech32(addr); err != nil {
			return errorsmod.Wrapf(ErrInvalidAddress, "%s: %s", field, err)
		}
	}
	return nil
}

// GetSigners returns the signer addresses for MsgTransfer
func (msg *MsgTransfer) GetSigners() []sdk.AccAddress {
	sender, _ := sdk.AccAddressFromBech32(msg.Sender)
	return []sdk.AccAddress{sender}
}

// MsgCreateAccountResponse is the response for MsgCreateAccount
type MsgCreateAccountResponse struct {
	Address string `json:"address"`
}

func (msg *MsgCreateAccountResponse) Reset()         { *msg = MsgCreateAccountResponse{} }
func (msg *MsgCreateAccountResponse) String() string { return msg.Address }
func (msg *MsgCreateAccountResponse) ProtoMessage()  {}

// MsgMintResponse is the response for MsgMint
type MsgMintResponse struct {
	NewBalance uint64 `json:"new_balance"`
}

func (msg *MsgMintResponse) Reset()         { *msg = MsgMintResponse{} }
func (msg *MsgMintResponse) String() string { return "mint" }
func (msg *MsgMintResponse) ProtoMessage()  {}

// MsgTransferResponse is the response for MsgTransfer
type MsgTransferResponse struct{}

func (msg *MsgTransferResponse) Reset()         { *msg = MsgTransferResponse{} }
func (msg *MsgTransferResponse) String() string { return "transfer" }
func (msg *MsgTransferResponse) ProtoMessage()  {}
