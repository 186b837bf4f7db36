// Package wallet manages the watch-only address lists the console keeps
// per named wallet. Each list is plain text, one "address [label]" per line.
package wallet

import (
	"errors"
	"fmt"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
)

// MinAddressLen is the length of the shortest valid P2PKH address
// (1111111111111111111114oLvT2).
const MinAddressLen = 27

// ErrInvalidAddress is returned for text that is not a Base58Check address.
var ErrInvalidAddress = errors.New("invalid address")

// Entry is one address of a wallet list.
type Entry struct {
	Addr   string `json:"addr"`
	Label  string `json:"label"`
	Virgin bool   `json:"virgin"` // line was indented: address not used yet
}

// ValidAddress reports whether s decodes as a Base58Check P2PKH address.
func ValidAddress(s string) bool {
	_, err := ParseAddress(s)
	return err == nil
}

// ParseAddress decodes s and returns the canonical address string.
func ParseAddress(s string) (string, error) {
	if len(s) < MinAddressLen {
		return "", fmt.Errorf("%w: too short", ErrInvalidAddress)
	}
	addr, err := script.NewAddressFromString(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	// Re-encoding from the hash yields the correct checksum.
	canon, err := script.NewAddressFromPublicKeyHash(addr.PublicKeyHash, s[0] == '1')
	if err != nil || canon.AddressString != s {
		return "", fmt.Errorf("%w: bad checksum", ErrInvalidAddress)
	}
	return canon.AddressString, nil
}

// ParseList reads a wallet list. Lines whose first word is not a valid
// address are skipped; the rest of the line is the label.
func ParseList(text string) []Entry {
	var entries []Entry
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		addr, label, _ := strings.Cut(line, " ")
		if !ValidAddress(addr) {
			continue
		}
		entries = append(entries, Entry{
			Addr:   addr,
			Label:  label,
			Virgin: strings.HasPrefix(raw, " "),
		})
	}
	return entries
}

// FormatList is the inverse of ParseList.
func FormatList(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		if e.Virgin {
			b.WriteByte(' ')
		}
		b.WriteString(e.Addr)
		if e.Label != "" {
			b.WriteByte(' ')
			b.WriteString(e.Label)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// WatchAddress derives the compressed-key mainnet address of a WIF key so
// it can be added to a list. The key itself is not kept.
func WatchAddress(wif string) (string, error) {
	if wif == "" {
		return "", fmt.Errorf("no key provided")
	}
	privKey, err := ec.PrivateKeyFromWif(wif)
	if err != nil {
		return "", fmt.Errorf("decode WIF: %w", err)
	}
	addr, err := script.NewAddressFromPublicKey(privKey.PubKey(), true)
	if err != nil {
		return "", fmt.Errorf("derive address: %w", err)
	}
	return addr.AddressString, nil
}
