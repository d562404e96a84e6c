package transfer

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Attributes is the animal attribute snapshot embedded in the canonical
// message. Keys are rendered sorted so identical inputs always produce
// byte-identical output.
type Attributes map[string]string

// MessageBuilder produces the canonical transfer claim. The same string is
// signed by the current guardian (for the controller-change transaction) and
// by the adopter, so an auditor can read exactly what was agreed to. No
// timestamps are embedded; re-derivation must match the stored message.
type MessageBuilder struct{}

func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{}
}

// Build renders the claim. Addresses appear in EIP-55 checksum form so the
// human-readable text and the machine comparison agree on identity.
func (b *MessageBuilder) Build(recordDID, previousGuardian, newGuardian string, attrs Attributes) string {
	var sb strings.Builder
	sb.WriteString("Pet Ownership Transfer\n")
	fmt.Fprintf(&sb, "Record: %s\n", recordDID)
	fmt.Fprintf(&sb, "From: %s\n", ChecksumAddress(previousGuardian))
	fmt.Fprintf(&sb, "To: %s\n", ChecksumAddress(newGuardian))

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %s\n", k, attrs[k])
	}
	return sb.String()
}

// SigningData hex-encodes the message for wallet signing APIs that expect raw
// bytes. The bytes are the message verbatim, not a hash of it.
func (b *MessageBuilder) SigningData(message string) string {
	return "0x" + hex.EncodeToString([]byte(message))
}

// NormalizeAddress lowercases a hex address for case-insensitive comparison.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// SameAddress compares two addresses case-insensitively.
func SameAddress(a, b string) bool {
	return NormalizeAddress(a) == NormalizeAddress(b)
}

// ChecksumAddress applies the EIP-55 mixed-case checksum. Inputs that are not
// 0x-prefixed 40-digit hex strings are returned unchanged.
func ChecksumAddress(addr string) string {
	body := strings.TrimPrefix(NormalizeAddress(addr), "0x")
	if len(body) != 40 {
		return addr
	}
	for _, c := range body {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return addr
		}
	}

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(body))
	sum := hex.EncodeToString(h.Sum(nil))

	out := make([]byte, 40)
	for i := 0; i < 40; i++ {
		c := body[i]
		if c >= 'a' && c <= 'f' && sum[i] >= '8' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return "0x" + string(out)
}
