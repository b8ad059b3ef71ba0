package derive

import (
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

func TestAddressIsDeterministic(t *testing.T) {
	a := Address("stakevault", CanonicalBump, []byte("vault"), []byte("ustake"))
	b := Address("stakevault", CanonicalBump, []byte("vault"), []byte("ustake"))
	if !a.Equals(b) {
		t.Errorf("same inputs derived different addresses: %s vs %s", a, b)
	}
}

func TestAddressSeparatesInputs(t *testing.T) {
	base := Address("stakevault", CanonicalBump, []byte("vault"), []byte("ustake"))

	tests := []struct {
		name string
		addr sdk.AccAddress
	}{
		{"other denom", Address("stakevault", CanonicalBump, []byte("vault"), []byte("uatom"))},
		{"other module", Address("access", CanonicalBump, []byte("vault"), []byte("ustake"))},
		{"other bump", Address("stakevault", 254, []byte("vault"), []byte("ustake"))},
		{"other seed", Address("stakevault", CanonicalBump, []byte("user"), []byte("ustake"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if base.Equals(tt.addr) {
				t.Errorf("expected distinct address for %s", tt.name)
			}
		})
	}
}

func TestFindAddressReturnsCanonicalBump(t *testing.T) {
	addr, bump, err := FindAddress("stakevault", []byte("config"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bump != CanonicalBump {
		t.Errorf("expected bump %d, got %d", CanonicalBump, bump)
	}
	if !addr.Equals(Address("stakevault", bump, []byte("config"))) {
		t.Error("FindAddress result does not match Address for the same bump")
	}
}

func TestCapabilityAuthorizes(t *testing.T) {
	owner, bump := MustFindAddress("stakevault", []byte("vault"), []byte("ustake"))

	good := NewCapability("stakevault", bump, []byte("vault"), []byte("ustake"))
	if !good.Authorizes(owner) {
		t.Error("capability should authorize its own derived address")
	}

	forged := NewCapability("tokens", bump, []byte("vault"), []byte("ustake"))
	if forged.Authorizes(owner) {
		t.Error("capability from another module must not authorize")
	}

	if (Capability{}).Authorizes(owner) {
		t.Error("empty capability must not authorize")
	}
}
