package types

import (
	"fmt"

	"github.com/openalpha/stakevault/pkg/derive"
)

// TokenAccount holds a balance of a single denom on behalf of an owner.
// Only the owner, or a module capability that re-derives the owner, can
// move funds out of it.
type TokenAccount struct {
	Address string `json:"address"`
	Owner   string `json:"owner"`
	Denom   string `json:"denom"`
	Amount  uint64 `json:"amount"`
}

// String implements fmt.Stringer
func (a TokenAccount) String() string {
	return fmt.Sprintf("%s{owner=%s %d%s}", a.Address, a.Owner, a.Amount, a.Denom)
}

// Authorization is the authority attached to a transfer out of an account.
// Exactly one of Signer and Capability is set.
type Authorization struct {
	Signer     string             `json:"signer,omitempty"`
	Capability *derive.Capability `json:"-"`
}

// SignedBy authorizes a transfer with a transaction signer
func SignedBy(signer string) Authorization {
	return Authorization{Signer: signer}
}

// DelegatedBy authorizes a transfer with a module capability
func DelegatedBy(c derive.Capability) Authorization {
	return Authorization{Capability: &c}
}

// TransferRequest moves Amount from one token account to another
type TransferRequest struct {
	From   string
	To     string
	Amount uint64
	Auth   Authorization
}
