package services

import (
	"strings"

	"github.com/mr-tron/base58"

	"royalwager/domain/entities"
	"royalwager/domain/wagererr"
)

const (
	walletKeyLength = 32
	signatureLength = 64
	// tagAlphabet is the character set Supercell uses for player tags
	tagAlphabet = "0289PYLQGRJCUV"
)

// NormalizeTag canonicalizes a player tag to the "#UPPER" form used for all comparisons
func NormalizeTag(raw string) (string, error) {
	tag := strings.ToUpper(strings.TrimSpace(raw))
	tag = strings.TrimLeft(tag, "#")
	if tag == "" {
		return "", wagererr.New(wagererr.CodeInvalidTag, "player tag is required")
	}
	for _, r := range tag {
		if !strings.ContainsRune(tagAlphabet, r) {
			return "", wagererr.New(wagererr.CodeInvalidTag, "player tag %q contains invalid character %q", raw, r)
		}
	}
	return "#" + tag, nil
}

// TagsEqual compares two tags regardless of case or a missing leading '#'
func TagsEqual(a, b string) bool {
	na := "#" + strings.TrimLeft(strings.ToUpper(strings.TrimSpace(a)), "#")
	nb := "#" + strings.TrimLeft(strings.ToUpper(strings.TrimSpace(b)), "#")
	return na != "#" && na == nb
}

// ValidateWallet checks that id is a base58 encoded 32-byte public key
func ValidateWallet(id string) error {
	if id == "" {
		return wagererr.New(wagererr.CodeInvalidWallet, "wallet address is required")
	}
	decoded, err := base58.Decode(id)
	if err != nil {
		return wagererr.Wrap(wagererr.CodeInvalidWallet, err, "wallet address %q is not base58", id)
	}
	if len(decoded) != walletKeyLength {
		return wagererr.New(wagererr.CodeInvalidWallet, "wallet address %q decodes to %d bytes, want %d", id, len(decoded), walletKeyLength)
	}
	return nil
}

// ValidateSignature checks that sig is a base58 encoded 64-byte transaction signature
func ValidateSignature(sig entities.Signature) error {
	if sig == "" {
		return wagererr.New(wagererr.CodeInvalidSignature, "transaction signature is required")
	}
	decoded, err := base58.Decode(string(sig))
	if err != nil {
		return wagererr.Wrap(wagererr.CodeInvalidSignature, err, "transaction signature is not base58")
	}
	if len(decoded) != signatureLength {
		return wagererr.New(wagererr.CodeInvalidSignature, "transaction signature decodes to %d bytes, want %d", len(decoded), signatureLength)
	}
	return nil
}
