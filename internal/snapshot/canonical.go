package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/roach88/bento/internal/builder"
)

// Domain is the hash domain prefix. The version suffix enables future
// layout migration without ambiguous hashes.
const Domain = "bento/snapshot/v1"

// Encode returns the canonical bytes of a snapshot document.
//
// CRITICAL: HTML escaping is disabled so module names containing <, > or &
// encode the same everywhere, and the encoder's trailing newline is
// stripped. Key order needs no sorting because the document is built from
// structs only.
func Encode(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
	}
	return out, nil
}

// Marshal captures res and returns its canonical bytes.
func Marshal(res *builder.Result) ([]byte, error) {
	return Encode(Capture(res))
}

// Hash returns the domain separated SHA-256 of res's canonical bytes as a
// hex string.
func Hash(res *builder.Result) (string, error) {
	data, err := Marshal(res)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// HashBytes hashes already encoded snapshot bytes.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func HashBytes(data []byte) string {
	h := sha256.New()
	h.Write([]byte(Domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
