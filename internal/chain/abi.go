package chain

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

const wordSize = 32

// methodID is the first four bytes of the keccak-256 of the canonical
// method signature, the contract-call selector.
func methodID(signature string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return h.Sum(nil)[:4]
}

// encodeCall packs a selector and arguments into contract call data.
// Supported argument kinds cover the reader contracts' surface: hex
// strings (address, bytes32), *big.Int (uint256), bool, and the dynamic
// []string (address[]) and []bool.
func encodeCall(signature string, args ...interface{}) ([]byte, error) {
	head := make([][]byte, len(args))
	var tail []byte
	headSize := wordSize * len(args)

	for i, arg := range args {
		switch v := arg.(type) {
		case string:
			w, err := hexWord(v)
			if err != nil {
				return nil, err
			}
			head[i] = w
		case *big.Int:
			head[i] = uintWord(v)
		case bool:
			head[i] = boolWord(v)
		case []string:
			head[i] = uintWord(big.NewInt(int64(headSize + len(tail))))
			tail = append(tail, uintWord(big.NewInt(int64(len(v))))...)
			for _, s := range v {
				w, err := hexWord(s)
				if err != nil {
					return nil, err
				}
				tail = append(tail, w...)
			}
		case []bool:
			head[i] = uintWord(big.NewInt(int64(headSize + len(tail))))
			tail = append(tail, uintWord(big.NewInt(int64(len(v))))...)
			for _, b := range v {
				tail = append(tail, boolWord(b)...)
			}
		default:
			return nil, fmt.Errorf("unsupported abi argument type %T", arg)
		}
	}

	data := make([]byte, 0, 4+headSize+len(tail))
	data = append(data, methodID(signature)...)
	for _, w := range head {
		data = append(data, w...)
	}
	data = append(data, tail...)
	return data, nil
}

// decodeUintArray unpacks a uint256[] return value.
func decodeUintArray(data []byte) ([]*big.Int, error) {
	if len(data) < 2*wordSize {
		return nil, fmt.Errorf("abi array response too short: %d bytes", len(data))
	}
	offset := new(big.Int).SetBytes(data[:wordSize])
	if !offset.IsInt64() || offset.Int64()+wordSize > int64(len(data)) {
		return nil, fmt.Errorf("abi array offset out of range")
	}
	o := int(offset.Int64())
	length := new(big.Int).SetBytes(data[o : o+wordSize])
	if !length.IsInt64() {
		return nil, fmt.Errorf("abi array length out of range")
	}
	n := int(length.Int64())
	if o+wordSize+n*wordSize > len(data) {
		return nil, fmt.Errorf("abi array truncated: want %d items in %d bytes", n, len(data))
	}

	out := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		start := o + wordSize + i*wordSize
		out[i] = new(big.Int).SetBytes(data[start : start+wordSize])
	}
	return out, nil
}

// decodeBytes32 unpacks a single bytes32 return value as 0x-prefixed hex.
func decodeBytes32(data []byte) (string, error) {
	if len(data) < wordSize {
		return "", fmt.Errorf("abi bytes32 response too short: %d bytes", len(data))
	}
	return "0x" + hex.EncodeToString(data[:wordSize]), nil
}

// decodeAddress unpacks a single address return value.
func decodeAddress(data []byte) (string, error) {
	if len(data) < wordSize {
		return "", fmt.Errorf("abi address response too short: %d bytes", len(data))
	}
	return "0x" + hex.EncodeToString(data[wordSize-20:wordSize]), nil
}

// hexWord left-pads a hex value (address or bytes32) to one 32-byte word.
func hexWord(s string) ([]byte, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("bad hex value %q: %w", s, err)
	}
	if len(b) > wordSize {
		return nil, fmt.Errorf("hex value %q exceeds 32 bytes", s)
	}
	w := make([]byte, wordSize)
	copy(w[wordSize-len(b):], b)
	return w, nil
}

func uintWord(v *big.Int) []byte {
	w := make([]byte, wordSize)
	b := v.Bytes()
	copy(w[wordSize-len(b):], b)
	return w
}

func boolWord(v bool) []byte {
	w := make([]byte, wordSize)
	if v {
		w[wordSize-1] = 1
	}
	return w
}
