package trust

import (
	"bytes"
	"testing"
)

func TestAppendSplitRoundTrip(t *testing.T) {
	payload := []byte("<?xml version='1.0'?>\n<interface>...</interface>\n")
	sigBytes := []byte{0x01, 0x02, 0x03, 0xFF, 0x00, 0xAB}

	signed := AppendSignature(payload, sigBytes)

	gotPayload, sigs, err := SplitSigned(signed)
	if err != nil {
		t.Fatalf("SplitSigned: %v", err)
	}
	if !bytes.Equal(gotPayload, append(payload, '\n')) && !bytes.Equal(gotPayload, payload) {
		t.Errorf("split payload does not match original\nwant %q\ngot  %q", payload, gotPayload)
	}
	if len(sigs) != 1 {
		t.Fatalf("expected 1 signature block, got %d", len(sigs))
	}

	decoded, err := DecodeSignature(sigs[0])
	if err != nil {
		t.Fatalf("DecodeSignature: %v", err)
	}
	if !bytes.Equal(decoded, sigBytes) {
		t.Errorf("decoded signature = %v, want %v", decoded, sigBytes)
	}
}

func TestSplitSignedNoMarker(t *testing.T) {
	_, _, err := SplitSigned([]byte("<interface></interface>"))
	if err != ErrNoSignature {
		t.Errorf("expected ErrNoSignature, got %v", err)
	}
}

func TestSplitSignedRejectsCRLF(t *testing.T) {
	payload := []byte("<interface></interface>\n")
	signed := AppendSignature(payload, []byte{0x01})
	signed = bytes.ReplaceAll(signed, []byte("\n"), []byte("\r\n"))

	_, _, err := SplitSigned(signed)
	if err == nil {
		t.Errorf("expected error for CRLF signature block")
	}
}

func TestSplitSignedMultipleBlocks(t *testing.T) {
	payload := []byte("<interface></interface>\n")
	once := AppendSignature(payload, []byte{0x01, 0x02})
	twice := AppendSignature(once, []byte{0x03, 0x04})

	p, sigs, err := SplitSigned(twice)
	if err != nil {
		t.Fatalf("SplitSigned: %v", err)
	}
	if len(sigs) != 2 {
		t.Fatalf("expected 2 signature blocks, got %d", len(sigs))
	}
	if !bytes.Equal(p, payload) {
		t.Errorf("payload = %q, want %q", p, payload)
	}
}
