package position_test

import (
	"strings"
	"testing"

	"perpview/internal/position"
	"perpview/internal/token"
)

const (
	account     = "0xAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAa"
	collateral  = "0x1111111111111111111111111111111111111111"
	index       = "0x2222222222222222222222222222222222222222"
	wrappedAddr = "0x3333333333333333333333333333333333333333"
	adapterAddr = "0x4444444444444444444444444444444444444444"
)

// ============================================================================
// Test: identity keys
// ============================================================================

func TestKey_Format(t *testing.T) {
	got := position.Key(account, collateral, index, true, wrappedAddr)
	want := account + ":" + collateral + ":" + index + ":true"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestKey_NativePlaceholderResolved(t *testing.T) {
	got := position.Key(account, token.AddressZero, token.AddressZero, false, wrappedAddr)
	want := account + ":" + wrappedAddr + ":" + wrappedAddr + ":false"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestKeyWithAdapter_Format(t *testing.T) {
	got := position.KeyWithAdapter(account, collateral, index, adapterAddr, true, wrappedAddr)
	want := account + ":" + adapterAddr + ":" + collateral + ":" + index + ":true"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// ============================================================================
// Test: contract-level hash key
// ============================================================================

func TestContractKey_Shape(t *testing.T) {
	got, err := position.ContractKey(account, collateral, index, true)
	if err != nil {
		t.Fatalf("contract key: %v", err)
	}
	if len(got) != 66 || !strings.HasPrefix(got, "0x") {
		t.Errorf("got %q, want 0x-prefixed 32-byte hex", got)
	}
}

func TestContractKey_Deterministic(t *testing.T) {
	first, err := position.ContractKey(account, collateral, index, true)
	if err != nil {
		t.Fatalf("contract key: %v", err)
	}
	second, err := position.ContractKey(account, collateral, index, true)
	if err != nil {
		t.Fatalf("contract key: %v", err)
	}
	if first != second {
		t.Errorf("same tuple hashed differently: %q vs %q", first, second)
	}
}

func TestContractKey_SideChangesHash(t *testing.T) {
	long, _ := position.ContractKey(account, collateral, index, true)
	short, _ := position.ContractKey(account, collateral, index, false)
	if long == short {
		t.Error("long and short tuples must not collide")
	}
}

func TestContractKey_RejectsMalformedAddress(t *testing.T) {
	if _, err := position.ContractKey("0xnothex", collateral, index, true); err == nil {
		t.Error("expected error for malformed account")
	}
	if _, err := position.ContractKey(account, "1111", index, true); err == nil {
		t.Error("expected error for unprefixed collateral")
	}
}
