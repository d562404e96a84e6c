package registry

import (
	"strings"
	"testing"
)

func TestGetDIDDocumentCalldata(t *testing.T) {
	data := GetDIDDocumentCalldata("did:pet:abc")
	if !strings.HasPrefix(data, "0x") {
		t.Fatalf("calldata missing 0x prefix: %q", data)
	}
	raw := data[2:]
	if len(raw) < 8+3*wordSize {
		t.Fatalf("calldata too short: %d", len(raw))
	}
	// offset word points at the tail (0x20)
	if got := raw[8 : 8+wordSize]; !strings.HasSuffix(got, "20") || strings.Trim(got[:wordSize-2], "0") != "" {
		t.Fatalf("unexpected offset word %q", got)
	}
	// length word carries the string length
	lenWord := raw[8+wordSize : 8+2*wordSize]
	if !strings.HasSuffix(lenWord, "b") { // len("did:pet:abc") == 11
		t.Fatalf("unexpected length word %q", lenWord)
	}
	if (len(raw)-8)%wordSize != 0 {
		t.Fatalf("calldata not word aligned: %d", len(raw))
	}
}

func TestChangeControllerCalldata(t *testing.T) {
	data, err := ChangeControllerCalldata("did:pet:abc", "0xBBbBBBbbBBBbbbBbBbBbbbBBbBbbbbBbBbbbbbBB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(strings.ToLower(data), strings.Repeat("b", 40)) {
		t.Fatalf("address not embedded in calldata")
	}

	if _, err := ChangeControllerCalldata("did:pet:abc", "not-an-address"); err == nil {
		t.Fatalf("expected error for malformed address")
	}
}

func TestParseDIDDocument(t *testing.T) {
	pad := func(s string) string { return strings.Repeat("0", wordSize-len(s)) + s }
	data := "0x" +
		pad(strings.Repeat("a", 40)) + // biometricOwner
		pad(strings.Repeat("c", 40)) + // controller
		pad("5f5e100") + // created
		pad("5f5e200") + // updated
		pad("1") // exists

	doc, err := ParseDIDDocument(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Controller != "0x"+strings.Repeat("c", 40) {
		t.Fatalf("controller = %q", doc.Controller)
	}
	if doc.BiometricOwner != "0x"+strings.Repeat("a", 40) {
		t.Fatalf("biometricOwner = %q", doc.BiometricOwner)
	}
	if doc.Created != 0x5f5e100 || doc.Updated != 0x5f5e200 {
		t.Fatalf("timestamps = %d, %d", doc.Created, doc.Updated)
	}
	if !doc.Exists {
		t.Fatalf("exists = false")
	}
}

func TestParseDIDDocumentShortData(t *testing.T) {
	if _, err := ParseDIDDocument("0x1234"); err == nil {
		t.Fatalf("expected error for short return data")
	}
}
