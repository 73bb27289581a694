// Package auth implements the Avalon web-UI authentication digest.
//
// The firmware derives a short verification token from the password and the
// board DNA: auth = hex(SHA256(hex(SHA256(password))[:8] + dna))[:8]. The
// construction is fixed and must stay bit-exact with the device.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// TokenLen is the length of the device auth token in hex characters.
	TokenLen = 8

	webpassPrefixLen = 8  // hex chars of the stage-1 digest fed into stage 2
	codeLen          = 24 // hex chars of the DNA-derived code
	cookiePassLen    = 24 // hex chars of the stage-1 digest carried in the cookie

	// stackBufSize covers stage-1 prefix + DNA for every real device (DNA is
	// 16 hex chars); longer identifiers fall back to a heap buffer.
	stackBufSize = 64
)

// ErrBadTarget indicates a target digest that is not 8 hex characters.
var ErrBadTarget = errors.New("target digest must be 8 hex characters")

// ComputeAuth derives the device auth token for a password and DNA.
func ComputeAuth(password, dna string) string {
	webpass := sha256.Sum256([]byte(password))
	stage1 := hex.EncodeToString(webpass[:])

	token := sha256.Sum256([]byte(stage1[:webpassPrefixLen] + dna))

	return hex.EncodeToString(token[:])[:TokenLen]
}

// Oracle verifies candidate passwords against a fixed target token. It holds
// no mutable state and is safe to call from any number of goroutines.
type Oracle struct {
	target [TokenLen]byte // lowercase hex
	dna    []byte
}

// NewOracle validates the target digest and prepares a verifier for it.
// The target comparison is case-insensitive; it is folded to lowercase here
// so the hot path can compare bytes directly.
func NewOracle(targetDigest, dna string) (*Oracle, error) {
	folded := strings.ToLower(targetDigest)
	if len(folded) != TokenLen {
		return nil, fmt.Errorf("%w: got %d characters", ErrBadTarget, len(folded))
	}

	if _, err := hex.DecodeString(folded); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadTarget, targetDigest)
	}

	o := &Oracle{dna: []byte(dna)}
	copy(o.target[:], folded)

	return o, nil
}

// Match reports whether the candidate password produces the target token.
// No locks are taken and nothing is shared; the scratch buffers live on the
// stack for DNA strings of realistic length.
func (o *Oracle) Match(candidate string) bool {
	webpass := sha256.Sum256([]byte(candidate))

	var prefix [webpassPrefixLen]byte
	hex.Encode(prefix[:], webpass[:webpassPrefixLen/2])

	var token [32]byte
	if len(o.dna) <= stackBufSize-webpassPrefixLen {
		var msg [stackBufSize]byte
		n := copy(msg[:], prefix[:])
		n += copy(msg[n:], o.dna)
		token = sha256.Sum256(msg[:n])
	} else {
		msg := make([]byte, 0, webpassPrefixLen+len(o.dna))
		msg = append(msg, prefix[:]...)
		msg = append(msg, o.dna...)
		token = sha256.Sum256(msg)
	}

	var got [TokenLen]byte
	hex.Encode(got[:], token[:TokenLen/2])

	return got == o.target
}

// Target returns the lowercase target token the oracle verifies against.
func (o *Oracle) Target() string {
	return string(o.target[:])
}

// Credentials is the full web-UI credential set derived from a password and
// the board DNA, matching what the firmware's login flow exchanges.
type Credentials struct {
	DNA    string // DNA is the board identifier the credentials are bound to.
	Auth   string // Auth is the 8-character auth token.
	Code   string // Code is the DNA-derived session code.
	Verify string // Verify is the qr_auth verification string.
	Cookie string // Cookie is the session cookie value for the web UI.
}

// DeriveCredentials computes the credential set for a known password.
func DeriveCredentials(password, dna string) Credentials {
	webpassSum := sha256.Sum256([]byte(password))
	webpass := hex.EncodeToString(webpassSum[:])

	codeSum := sha256.Sum256([]byte(dna))
	code := hex.EncodeToString(codeSum[:])[:codeLen]

	verifySum := sha256.Sum256([]byte(code + webpass[:cookiePassLen]))
	auth := ComputeAuth(password, dna)

	return Credentials{
		DNA:    dna,
		Auth:   auth,
		Code:   code,
		Verify: "ff0000ee" + hex.EncodeToString(verifySum[:])[:codeLen],
		Cookie: auth + webpass[:cookiePassLen],
	}
}
