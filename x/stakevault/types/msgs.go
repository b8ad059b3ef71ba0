package types

import (
	"context"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// RegisterInterfaces registers the module's interface types
func RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	registry.RegisterImplementations((*sdk.Msg)(nil),
		&MsgInitialize{},
		&MsgUpdateFee{},
		&MsgDeposit{},
		&MsgWithdraw{},
	)
}

// Message types for the stakevault module
const (
	TypeMsgInitialize = "initialize"
	TypeMsgUpdateFee  = "update_fee"
	TypeMsgDeposit    = "deposit"
	TypeMsgWithdraw   = "withdraw"
)

// MsgServer defines the stakevault module's message service
type MsgServer interface {
	Initialize(context.Context, *MsgInitialize) (*MsgInitializeResponse, error)
	UpdateFee(context.Context, *MsgUpdateFee) (*MsgUpdateFeeResponse, error)
	Deposit(context.Context, *MsgDeposit) (*MsgDepositResponse, error)
	Withdraw(context.Context, *MsgWithdraw) (*MsgWithdrawResponse, error)
}

// MsgInitialize creates the staking config and the vault for Denom
type MsgInitialize struct {
	Payer          string `json:"payer"`
	Denom          string `json:"denom"`
	WithdrawFeeBps uint64 `json:"withdraw_fee_bps"`
}

// MsgUpdateFee changes the withdrawal fee
type MsgUpdateFee struct {
	Admin     string `json:"admin"`
	NewFeeBps uint64 `json:"new_fee_bps"`
}

// MsgDeposit stakes Amount from the staker's token account into the vault
type MsgDeposit struct {
	Staker       string `json:"staker"`
	TokenAccount string `json:"token_account"`
	Amount       uint64 `json:"amount"`
}

// MsgWithdraw withdraws the staker's full balance, paying the fee to FeeVault
type MsgWithdraw struct {
	Staker       string `json:"staker"`
	TokenAccount string `json:"token_account"`
	FeeVault     string `json:"fee_vault"`
}

// Proto interface implementations for MsgInitialize
func (msg *MsgInitialize) Reset()         { *msg = MsgInitialize{} }
func (msg *MsgInitialize) String() string { return fmt.Sprintf("initialize %s", msg.Denom) }
func (msg *MsgInitialize) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgInitialize
func (msg *MsgInitialize) XXX_MessageName() string {
	return "stakevault.stakevault.v1.MsgInitialize"
}

// Proto interface implementations for MsgUpdateFee
func (msg *MsgUpdateFee) Reset()         { *msg = MsgUpdateFee{} }
func (msg *MsgUpdateFee) String() string { return fmt.Sprintf("update fee %d", msg.NewFeeBps) }
func (msg *MsgUpdateFee) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgUpdateFee
func (msg *MsgUpdateFee) XXX_MessageName() string {
	return "stakevault.stakevault.v1.MsgUpdateFee"
}

// Proto interface implementations for MsgDeposit
func (msg *MsgDeposit) Reset()         { *msg = MsgDeposit{} }
func (msg *MsgDeposit) String() string { return msg.Staker }
func (msg *MsgDeposit) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgDeposit
func (msg *MsgDeposit) XXX_MessageName() string {
	return "stakevault.stakevault.v1.MsgDeposit"
}

// Proto interface implementations for MsgWithdraw
func (msg *MsgWithdraw) Reset()         { *msg = MsgWithdraw{} }
func (msg *MsgWithdraw) String() string { return msg.Staker }
func (msg *MsgWithdraw) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgWithdraw
func (msg *MsgWithdraw) XXX_MessageName() string {
	return "stakevault.stakevault.v1.MsgWithdraw"
}

func validateAddress(field, addr string) error {
	if _, err := sdk.AccAddressFromBech32(addr); err != nil {
		return errorsmod.Wrapf(ErrInvalidAddress, "%s: %s", field, err)
	}
	return nil
}

// ValidateBasic for MsgInitialize
func (msg *MsgInitialize) ValidateBasic() error {
	if err := validateAddress("payer", msg.Payer); err != nil {
		return err
	}
	if err := sdk.ValidateDenom(msg.Denom); err != nil {
		return errorsmod.Wrap(ErrInvalidDenom, err.Error())
	}
	return ValidateFeeBps(msg.WithdrawFeeBps)
}

// GetSigners returns the signer addresses for MsgInitialize
func (msg *MsgInitialize) GetSigners() []sdk.AccAddress {
	payer, _ := sdk.AccAddressFromBech32(msg.Payer)
	return []sdk.AccAddress{payer}
}

// ValidateBasic for MsgUpdateFee
func (msg *MsgUpdateFee) ValidateBasic() error {
	if err := validateAddress("admin", msg.Admin); err != nil {
		return err
	}
	return ValidateFeeBps(msg.NewFeeBps)
}

// GetSigners returns the signer addresses for MsgUpdateFee
func (msg *MsgUpdateFee) GetSigners() []sdk.AccAddress {
	admin, _ := sdk.AccAddressFromBech32(msg.Admin)
	return []sdk.AccAddress{admin}
}

// ValidateBasic for MsgDeposit
func (msg *MsgDeposit) ValidateBasic() error {
	if err := validateAddress("staker", msg.Staker); err != nil {
		return err
	}
	if err := validateAddress("token account", msg.TokenAccount); err != nil {
		return err
	}
	if msg.Amount == 0 {
		return ErrInvalidAmount
	}
	return nil
}

// GetSigners returns the signer addresses for MsgDeposit
func (msg *MsgDeposit) GetSigners() []sdk.AccAddress {
	staker, _ := sdk.AccAddressFromBech32(msg.Staker)
	return []sdk.AccAddress{staker}
}

// ValidateBasic for MsgWithdraw
func (msg *MsgWithdraw) ValidateBasic() error {
	if err := validateAddress("staker", msg.Staker); err != nil {
		return err
	}
	if err := validateAddress("token account", msg.TokenAccount); err != nil {
		return err
	}
	return validateAddress("fee vault", msg.FeeVault)
}

// GetSigners returns the signer addresses for MsgWithdraw
func (msg *MsgWithdraw) GetSigners() []sdk.AccAddress {
	staker, _ := sdk.AccAddressFromBech32(msg.Staker)
	return []sdk.AccAddress{staker}
}

// MsgInitializeResponse is the response for MsgInitialize
type MsgInitializeResponse struct {
	Vault string `json:"vault"`
	Bump  uint8  `json:"bump"`
}

// Proto interface implementations for MsgInitializeResponse
func (msg *MsgInitializeResponse) Reset()         { *msg = MsgInitializeResponse{} }
func (msg *MsgInitializeResponse) String() string { return msg.Vault }
func (msg *MsgInitializeResponse) ProtoMessage()  {}

// MsgUpdateFeeResponse is the response for MsgUpdateFee
type MsgUpdateFeeResponse struct {
	OldFeeBps uint64 `json:"old_fee_bps"`
	NewFeeBps uint64 `json:"new_fee_bps"`
}

// Proto interface implementations for MsgUpdateFeeResponse
func (msg *MsgUpdateFeeResponse) Reset() { *msg = MsgUpdateFeeResponse{} }
func (msg *MsgUpdateFeeResponse) String() string {
	return fmt.Sprintf("%d -> %d", msg.OldFeeBps, msg.NewFeeBps)
}
func (msg *MsgUpdateFeeResponse) ProtoMessage() {}

// MsgDepositResponse is the response for MsgDeposit
type MsgDepositResponse struct {
	TotalStaked uint64 `json:"total_staked"`
	DepositTs   int64  `json:"deposit_ts"`
}

// Proto interface implementations for MsgDepositResponse
func (msg *MsgDepositResponse) Reset()         { *msg = MsgDepositResponse{} }
func (msg *MsgDepositResponse) String() string { return fmt.Sprintf("%d", msg.TotalStaked) }
func (msg *MsgDepositResponse) ProtoMessage()  {}

// MsgWithdrawResponse is the response for MsgWithdraw
type MsgWithdrawResponse struct {
	Amount uint64 `json:"amount"`
	Fee    uint64 `json:"fee"`
}

// Proto interface implementations for MsgWithdrawResponse
func (msg *MsgWithdrawResponse) Reset()         { *msg = MsgWithdrawResponse{} }
func (msg *MsgWithdrawResponse) String() string { return fmt.Sprintf("%d (fee %d)", msg.Amount, msg.Fee) }
func (msg *MsgWithdrawResponse) ProtoMessage()  {}
