package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSignature = "callbind/signature/v1"
	DomainCatalog   = "callbind/catalog/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalJSON runs a value through encoding/json and then re-encodes it
// canonically so struct field order never leaks into a hash.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	val, err := UnmarshalIRValue(raw)
	if err != nil {
		return nil, err
	}
	return MarshalCanonical(val)
}

// SignatureHash computes the content-addressed identity of a signature.
// Two oracles reporting the same parameters for the same target agree on it.
func SignatureHash(sig *Signature) (string, error) {
	data, err := CanonicalJSON(sig)
	if err != nil {
		return "", fmt.Errorf("SignatureHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSignature, data), nil
}

// CatalogHash computes the identity of a whole compiled catalog.
func CatalogHash(cat *Catalog) (string, error) {
	data, err := CanonicalJSON(cat)
	if err != nil {
		return "", fmt.Errorf("CatalogHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCatalog, data), nil
}

// MustSignatureHash is like SignatureHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSignatureHash(sig *Signature) string {
	h, err := SignatureHash(sig)
	if err != nil {
		panic(err)
	}
	return h
}
