package position

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"

	"perpview/internal/token"
)

// Key builds the stable identity key for a position slot. The native
// placeholder is replaced by the wrapped-native address so the key stays
// stable across the two spellings of the same asset. It is a map key, not
// a cryptographic commitment.
func Key(account, collateralAddr, indexAddr string, isLong bool, nativeAddr string) string {
	return strings.Join([]string{
		account,
		resolveNative(collateralAddr, nativeAddr),
		resolveNative(indexAddr, nativeAddr),
		strconv.FormatBool(isLong),
	}, ":")
}

// KeyWithAdapter is Key with the settlement adapter identifier included,
// placed between the account and the collateral address.
func KeyWithAdapter(account, collateralAddr, indexAddr, adapter string, isLong bool, nativeAddr string) string {
	return strings.Join([]string{
		account,
		adapter,
		resolveNative(collateralAddr, nativeAddr),
		resolveNative(indexAddr, nativeAddr),
		strconv.FormatBool(isLong),
	}, ":")
}

// ContractKey is the keccak-256 hash of the packed (account, collateral,
// index, isLong) tuple, matching the ledger's own position hashing scheme
// bit-for-bit. Addresses must be well-formed 20-byte hex.
func ContractKey(account, collateralAddr, indexAddr string, isLong bool) (string, error) {
	packed := make([]byte, 0, 61)
	for _, addr := range []string{account, collateralAddr, indexAddr} {
		b, err := addressBytes(addr)
		if err != nil {
			return "", err
		}
		packed = append(packed, b...)
	}
	if isLong {
		packed = append(packed, 1)
	} else {
		packed = append(packed, 0)
	}

	h := sha3.NewLegacyKeccak256()
	h.Write(packed)
	return "0x" + hex.EncodeToString(h.Sum(nil)), nil
}

func resolveNative(addr, nativeAddr string) string {
	if addr == token.AddressZero {
		return nativeAddr
	}
	return addr
}

func addressBytes(addr string) ([]byte, error) {
	if len(addr) != 42 || !strings.HasPrefix(addr, "0x") {
		return nil, fmt.Errorf("malformed address %q", addr)
	}
	b, err := hex.DecodeString(addr[2:])
	if err != nil {
		return nil, fmt.Errorf("malformed address %q: %w", addr, err)
	}
	return b, nil
}
