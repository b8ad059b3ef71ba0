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
		&MsgInitialize{},
		&MsgRestrictedFunction{},
		&MsgTransferOwnership{},
	)
}

// MsgServer defines the access module's message service
type MsgServer interface {
	Initialize(context.Context, *MsgInitialize) (*MsgInitializeResponse, error)
	RestrictedFunction(context.Context, *MsgRestrictedFunction) (*MsgRestrictedFunctionResponse, error)
	TransferOwnership(context.Context, *MsgTransferOwnership) (*MsgTransferOwnershipResponse, error)
}

// MsgInitialize makes the signer the admin
type MsgInitialize struct {
	Signer string `json:"signer"`
}

// MsgRestrictedFunction invokes the admin-only action
type MsgRestrictedFunction struct {
	Signer string `json:"signer"`
}

// MsgTransferOwnership hands the admin role to NewAdmin
type MsgTransferOwnership struct {
	Signer   string `json:"signer"`
	NewAdmin string `json:"new_admin"`
}

func (msg *MsgInitialize) Reset()         { *msg = MsgInitialize{} }
func (msg *MsgInitialize) String() string { return msg.Signer }
func (msg *MsgInitialize) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgInitialize
func (msg *MsgInitialize) XXX_MessageName() string {
	return "stakevault.access.v1.MsgInitialize"
}

func (msg *MsgRestrictedFunction) Reset()         { *msg = MsgRestrictedFunction{} }
func (msg *MsgRestrictedFunction) String() string { return msg.Signer }
func (msg *MsgRestrictedFunction) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgRestrictedFunction
func (msg *MsgRestrictedFunction) XXX_MessageName() string {
	return "stakevault.access.v1.MsgRestrictedFunction"
}

func (msg *MsgTransferOwnership) Reset()         { *msg = MsgTransferOwnership{} }
func (msg *MsgTransferOwnership) String() string { return msg.Signer + "->" + msg.NewAdmin }
func (msg *MsgTransferOwnership) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgTransferOwnership
func (msg *MsgTransferOwnership) XXX_MessageName() string {
	return "stakevault.access.v1.MsgTransferOwnership"
}

func signerOnly(signer string) error {
	if _, err := sdk.AccAddressFromBech32(signer); err != nil {
		return errorsmod.Wrapf(ErrInvalidAddress, "signer: %s", err)
	}
	return nil
}

func signers(signer string) []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(signer)
	return []sdk.AccAddress{addr}
}

// ValidateBasic for MsgInitialize
func (msg *MsgInitialize) ValidateBasic() error { return signerOnly(msg.Signer) }

// GetSigners returns the signer addresses for MsgInitialize
func (msg *MsgInitialize) GetSigners() []sdk.AccAddress { return signers(msg.Signer) }

// ValidateBasic for MsgRestrictedFunction
func (msg *MsgRestrictedFunction) ValidateBasic() error { return signerOnly(msg.Signer) }

// GetSigners returns the signer addresses for MsgRestrictedFunction
func (msg *MsgRestrictedFunction) GetSigners() []sdk.AccAddress { return signers(msg.Signer) }

// ValidateBasic for MsgTransferOwnership
func (msg *MsgTransferOwnership) ValidateBasic() error {
	if err := signerOnly(msg.Signer); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.NewAdmin); err != nil {
		return errorsmod.Wrapf(ErrInvalidAddress, "new admin: %s", err)
	}
	return nil
}

// GetSigners returns the signer addresses for MsgTransferOwnership
func (msg *MsgTransferOwnership) GetSigners() []sdk.AccAddress { return signers(msg.Signer) }

// MsgInitializeResponse is the response for MsgInitialize
type MsgInitializeResponse struct {
	Admin string `json:"admin"`
}

func (msg *MsgInitializeResponse) Reset()         { *msg = MsgInitializeResponse{} }
func (msg *MsgInitializeResponse) String() string { return msg.Admin }
func (msg *MsgInitializeResponse) ProtoMessage()  {}

// MsgRestrictedFunctionResponse is the response for MsgRestrictedFunction
type MsgRestrictedFunctionResponse struct{}

func (msg *MsgRestrictedFunctionResponse) Reset()         { *msg = MsgRestrictedFunctionResponse{} }
func (msg *MsgRestrictedFunctionResponse) String() string { return "ok" }
func (msg *MsgRestrictedFunctionResponse) ProtoMessage()  {}

// MsgTransferOwnershipResponse is the response for MsgTransferOwnership
type MsgTransferOwnershipResponse struct {
	OldAdmin string `json:"old_admin"`
	NewAdmin string `json:"new_admin"`
}

func (msg *MsgTransferOwnershipResponse) Reset()         { *msg = MsgTransferOwnershipResponse{} }
func (msg *MsgTransferOwnershipResponse) String() string { return msg.OldAdmin + "->" + msg.NewAdmin }
func (msg *MsgTransferOwnershipResponse) ProtoMessage()  {}
