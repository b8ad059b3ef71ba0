package types

import (
	"errors"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

var (
	testStaker  = sdk.AccAddress([]byte("staker______________")).String()
	testAccount = sdk.AccAddress([]byte("staker_tokens_______")).String()
)

func TestMsgDepositValidateBasic(t *testing.T) {
	tests := []struct {
		name    string
		msg     MsgDeposit
		wantErr error
	}{
		{"valid", MsgDeposit{Staker: testStaker, TokenAccount: testAccount, Amount: 1}, nil},
		{"zero amount", MsgDeposit{Staker: testStaker, TokenAccount: testAccount}, ErrInvalidAmount},
		{"bad staker", MsgDeposit{Staker: "nope", TokenAccount: testAccount, Amount: 1}, ErrInvalidAddress},
		{"missing account", MsgDeposit{Staker: testStaker, Amount: 1}, ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.ValidateBasic()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMsgUpdateFeeValidateBasic(t *testing.T) {
	msg := MsgUpdateFee{Admin: testStaker, NewFeeBps: 10001}
	if err := msg.ValidateBasic(); !errors.Is(err, ErrInvalidFee) {
		t.Errorf("expected ErrInvalidFee, got %v", err)
	}

	msg.NewFeeBps = 250
	if err := msg.ValidateBasic(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if signers := msg.GetSigners(); len(signers) != 1 || signers[0].String() != testStaker {
		t.Errorf("unexpected signers: %v", signers)
	}
}

func TestMsgInitializeValidateBasic(t *testing.T) {
	msg := MsgInitialize{Payer: testStaker, Denom: "ustake", WithdrawFeeBps: 100}
	if err := msg.ValidateBasic(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	msg.Denom = "1"
	if err := msg.ValidateBasic(); !errors.Is(err, ErrInvalidDenom) {
		t.Errorf("expected ErrInvalidDenom, got %v", err)
	}
}

func TestGenesisValidate(t *testing.T) {
	if err := DefaultGenesis().Validate(); err != nil {
		t.Errorf("default genesis should be valid: %v", err)
	}

	orphan := DefaultGenesis()
	orphan.Stakes = append(orphan.Stakes, StakeRecord{Staker: testStaker, Amount: 5})
	if err := orphan.Validate(); err == nil {
		t.Error("stakes without config should be rejected")
	}

	gs := DefaultGenesis()
	gs.Config = &GlobalConfig{Admin: testStaker, WithdrawFeeBps: 100, Denom: "ustake"}
	gs.Stakes = []StakeRecord{{Staker: testStaker, Amount: 5}, {Staker: testStaker, Amount: 6}}
	if err := gs.Validate(); err == nil {
		t.Error("duplicate stake records should be rejected")
	}
}
