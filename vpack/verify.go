package vpack

// VerifyBytes is the public entry point: decode header, check checksum,
// decode payload, enforce invariants, dispatch to the dialect engine,
// and compare the recomputed identity against expected. On success it
// returns the parsed tree (now logically read-only to the caller) and
// the signed transactions the engine produced.
func VerifyBytes(data []byte, expected Identity, anchorValue *uint64, verifier SignatureVerifier) (*VPackTree, []SignedTx, error) {
	if len(data) < headerLen {
		return nil, nil, vperr(ErrIncompleteData, "verify: input shorter than header")
	}

	h, err := HeaderFromBytes(data[:headerLen])
	if err != nil {
		return nil, nil, err
	}

	payload := data[headerLen:]
	if uint32(len(payload)) != h.PayloadLen {
		return nil, nil, vperr(ErrIncompleteData, "verify: payload length does not match header")
	}

	if err := h.VerifyChecksum(payload); err != nil {
		return nil, nil, err
	}

	tree, err := ParsePayload(h, payload)
	if err != nil {
		return nil, nil, err
	}

	if err := ValidateInvariants(h, tree); err != nil {
		return nil, nil, err
	}

	engine, err := EngineFor(h.TxVariant)
	if err != nil {
		return nil, nil, err
	}

	txs, err := Verify(engine, tree, anchorValue, verifier, expected)
	if err != nil {
		return nil, nil, err
	}

	return tree, txs, nil
}
