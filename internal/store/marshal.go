package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/callbind/internal/ir"
)

// marshalSignature converts a signature to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalSignature(sig *ir.Signature) (string, error) {
	data, err := ir.CanonicalJSON(sig)
	if err != nil {
		return "", fmt.Errorf("marshal signature %s: %w", sig.Target, err)
	}
	return string(data), nil
}

// unmarshalSignature parses stored JSON TEXT back into a signature.
// Defaults decode through ir.UnmarshalIRValue, so large integers survive.
func unmarshalSignature(data string) (*ir.Signature, error) {
	var sig ir.Signature
	if err := json.Unmarshal([]byte(data), &sig); err != nil {
		return nil, fmt.Errorf("unmarshal signature: %w", err)
	}
	if sig.Params == nil {
		sig.Params = []ir.ParamDescriptor{}
	}
	return &sig, nil
}
