// Package registry is the Go binding for the PetRegistry contract.
//
// The contract stores one DID document per animal record. The binding is
// deliberately small: calldata builders and return-data parsers for the two
// methods the service uses, with no RPC transport of its own. Callers supply
// the transport (eth_call / signed transactions).
package registry

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// DIDDocument mirrors the on-chain document tuple returned by getDIDDocument.
type DIDDocument struct {
	BiometricOwner string // address that registered the biometric template
	Controller     string // address currently authorized to manage the record
	Created        uint64 // unix seconds
	Updated        uint64 // unix seconds
	Exists         bool
}

const wordSize = 64 // hex chars per 32-byte ABI word

var (
	getDIDDocumentSelector   = methodID("getDIDDocument(string)")
	changeControllerSelector = methodID("changeController(string,address)")
)

// methodID returns the 4-byte selector for a canonical method signature.
func methodID(signature string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return hex.EncodeToString(h.Sum(nil)[:4])
}

// GetDIDDocumentCalldata builds the eth_call data for getDIDDocument(did).
func GetDIDDocumentCalldata(did string) string {
	return "0x" + getDIDDocumentSelector + encodeStringArg(did, wordSize/2)
}

// ChangeControllerCalldata builds the transaction data for
// changeController(did, newController).
func ChangeControllerCalldata(did, newController string) (string, error) {
	addr, err := addressWord(newController)
	if err != nil {
		return "", err
	}
	// head: [offset to string tail][address], tail: string length + data
	head := encodeUint(2*wordSize/2) + addr
	return "0x" + changeControllerSelector + head + encodeStringTail(did), nil
}

// ParseDIDDocument decodes the return data of getDIDDocument. The tuple is
// (address biometricOwner, address controller, uint256 created,
// uint256 updated, bool exists).
func ParseDIDDocument(data string) (DIDDocument, error) {
	raw := strings.TrimPrefix(data, "0x")
	if len(raw) < 5*wordSize {
		return DIDDocument{}, fmt.Errorf("registry: short return data (%d hex chars)", len(raw))
	}

	owner, err := addressFromWord(word(raw, 0))
	if err != nil {
		return DIDDocument{}, fmt.Errorf("registry: biometricOwner: %w", err)
	}
	controller, err := addressFromWord(word(raw, 1))
	if err != nil {
		return DIDDocument{}, fmt.Errorf("registry: controller: %w", err)
	}
	created, err := uint64FromWord(word(raw, 2))
	if err != nil {
		return DIDDocument{}, fmt.Errorf("registry: created: %w", err)
	}
	updated, err := uint64FromWord(word(raw, 3))
	if err != nil {
		return DIDDocument{}, fmt.Errorf("registry: updated: %w", err)
	}
	exists, err := boolFromWord(word(raw, 4))
	if err != nil {
		return DIDDocument{}, fmt.Errorf("registry: exists: %w", err)
	}

	return DIDDocument{
		BiometricOwner: owner,
		Controller:     controller,
		Created:        created,
		Updated:        updated,
		Exists:         exists,
	}, nil
}

// encodeStringArg encodes a single string argument: offset word followed by
// the length-prefixed, right-padded data. offsetBytes is the byte offset to
// the tail, counted from the start of the argument block.
func encodeStringArg(s string, offsetBytes int) string {
	return encodeUint(uint64(offsetBytes)) + encodeStringTail(s)
}

func encodeStringTail(s string) string {
	data := hex.EncodeToString([]byte(s))
	if pad := len(data) % wordSize; pad != 0 {
		data += strings.Repeat("0", wordSize-pad)
	}
	return encodeUint(uint64(len(s))) + data
}

func encodeUint(v uint64) string {
	return fmt.Sprintf("%064x", v)
}

func addressWord(addr string) (string, error) {
	a := strings.TrimPrefix(strings.ToLower(addr), "0x")
	if len(a) != 40 {
		return "", fmt.Errorf("registry: invalid address %q", addr)
	}
	if _, err := hex.DecodeString(a); err != nil {
		return "", fmt.Errorf("registry: invalid address %q", addr)
	}
	return strings.Repeat("0", wordSize-40) + a, nil
}

func word(raw string, i int) string {
	return raw[i*wordSize : (i+1)*wordSize]
}

func addressFromWord(w string) (string, error) {
	if !strings.HasPrefix(w, strings.Repeat("0", wordSize-40)) {
		return "", fmt.Errorf("unexpected padding in address word")
	}
	return "0x" + w[wordSize-40:], nil
}

func uint64FromWord(w string) (uint64, error) {
	var v uint64
	if _, err := fmt.Sscanf(w[wordSize-16:], "%016x", &v); err != nil {
		return 0, err
	}
	// Reject values that overflow 64 bits; timestamps never should.
	if strings.Trim(w[:wordSize-16], "0") != "" {
		return 0, fmt.Errorf("value exceeds uint64")
	}
	return v, nil
}

func boolFromWord(w string) (bool, error) {
	switch strings.TrimLeft(w, "0") {
	case "":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, fmt.Errorf("invalid bool word")
	}
}
