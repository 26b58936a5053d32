package vpack

// SignedTx is one signed (SegWit) transaction emitted by an engine
// alongside the computed identity. V3-Plain emits one per path step
// plus one for the leaf transaction when it builds one (not when the
// leaf script is empty); V3-Anchored emits none. Callers that only want
// the identity can ignore this slice.
type SignedTx struct {
	Bytes []byte
}

// Engine recomputes a VTXO identity from a parsed tree. ComputeID is
// the only required method; Verify has a default implementation below
// that computes then compares, so dialect-specific engines only need
// to implement the reconstruction algorithm itself.
type Engine interface {
	ComputeID(tree *VPackTree, anchorValue *uint64, verifier SignatureVerifier) (Identity, []SignedTx, error)
}

// SignatureVerifier is the optional capability an engine consults when
// a path step carries a signature. A nil SignatureVerifier means
// signature checks are skipped entirely, so the core compiles and runs
// without any cryptographic dependency; passing one opts into BIP-340/
// BIP-341 enforcement.
type SignatureVerifier interface {
	// VerifyTaprootKeyspend verifies a 64-byte BIP-340 Schnorr signature
	// against the BIP-341 SIGHASH_DEFAULT key-path sighash of the
	// single-input spending transaction described by the given fields,
	// extracting the verification key from pubkeyScript.
	VerifyTaprootKeyspend(input TxIn, outputs []TxOut, parentAmount uint64, parentScript []byte, pubkeyScript []byte, sig [64]byte) (bool, error)
}

func EngineFor(variant uint8) (Engine, error) {
	switch variant {
	case VariantAnchored:
		return anchoredEngine{}, nil
	case VariantPlain:
		return plainEngine{}, nil
	default:
		return nil, vperr(ErrInvalidTxVariant, "engine: unknown tx_variant")
	}
}

// Verify recomputes the identity for tree and compares it against
// expected, returning IdMismatch on divergence. This is the default
// behavior every Engine gets for free; engines only need ComputeID.
func Verify(e Engine, tree *VPackTree, anchorValue *uint64, verifier SignatureVerifier, expected Identity) ([]SignedTx, error) {
	computed, txs, err := e.ComputeID(tree, anchorValue, verifier)
	if err != nil {
		return nil, err
	}
	if !computed.Equal(expected) {
		return nil, vperr(ErrIdMismatch, "engine: computed identity does not match expected")
	}
	return txs, nil
}

func sumOutputValues(outputs []TxOut) uint64 {
	var total uint64
	for _, o := range outputs {
		total += o.Value
	}
	return total
}
