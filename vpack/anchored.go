package vpack

// anchoredEngine implements the V3-Anchored dialect: a chain of
// reconstructed v3 transactions whose raw double-SHA256 hash is the
// VTXO identity. Each step hands off to the next step's input at a
// fixed vout of 0.
type anchoredEngine struct{}

func (anchoredEngine) ComputeID(tree *VPackTree, anchorValue *uint64, verifier SignatureVerifier) (Identity, []SignedTx, error) {
	if len(tree.Path) == 0 {
		if len(tree.LeafSiblings) == 0 && len(tree.FeeAnchorScript) > 0 {
			return Identity{}, nil, vperr(ErrFeeAnchorMissing, "anchored: leaf without fee anchor sibling")
		}
		txid, err := anchoredLeafTxid(tree, tree.Anchor, anchorValue)
		if err != nil {
			return Identity{}, nil, err
		}
		return RawIdentity(txid), nil, nil
	}

	currentPrevout := tree.Anchor
	inputAmount := anchorValue
	var prevOutputs []TxOut
	var lastTxid [32]byte

	for i, step := range tree.Path {
		outputs, err := buildAnchoredStepOutputs(step)
		if err != nil {
			return Identity{}, nil, err
		}

		if inputAmount != nil {
			if sumOutputValues(outputs) != *inputAmount {
				return Identity{}, nil, vperr(ErrValueMismatch, "anchored: step outputs do not conserve input value")
			}
			if len(outputs) > 0 {
				carried := outputs[0].Value
				inputAmount = &carried
			} else {
				inputAmount = nil
			}
		}

		input := TxIn{PrevTxid: currentPrevout.Txid, PrevVout: currentPrevout.Vout, Sequence: step.Sequence}

		if verifier != nil && step.Signature != nil && i > 0 {
			ok, err := verifyStepSignature(verifier, input, outputs, prevOutputs, currentPrevout.Vout, tree.Leaf.ScriptPubkey, *step.Signature)
			if err != nil {
				return Identity{}, nil, err
			}
			if !ok {
				return Identity{}, nil, vperr(ErrInvalidSignature, "anchored: signature verification failed")
			}
		}

		preimage := Preimage(3, []TxIn{input}, outputs, 0)
		txidBytes := sha256d(preimage)

		prevOutputs = outputs
		lastTxid = txidBytes
		currentPrevout = OutPoint{Txid: txidBytes, Vout: 0}
	}

	// An empty leaf script means the last path transaction is itself the
	// terminal node; its raw hash is the identity.
	if len(tree.Leaf.ScriptPubkey) == 0 {
		return RawIdentity(lastTxid), nil, nil
	}

	txid, err := anchoredLeafTxid(tree, currentPrevout, inputAmount)
	if err != nil {
		return Identity{}, nil, err
	}
	return RawIdentity(txid), nil, nil
}

// buildAnchoredStepOutputs lays out one step's outputs: the child (when
// it has a script) followed by the siblings. The V3-Anchored dialect is
// always proof-compact, so a Full sibling here is malformed input.
func buildAnchoredStepOutputs(step GenesisItem) ([]TxOut, error) {
	outputs := make([]TxOut, 0, 1+len(step.Siblings))
	if len(step.ChildScriptPubkey) > 0 {
		outputs = append(outputs, TxOut{Value: step.ChildAmount, ScriptPubkey: step.ChildScriptPubkey})
	}
	for _, s := range step.Siblings {
		if s.Kind != SiblingCompact {
			return nil, vperr(ErrEncoding, "anchored: full sibling in proof-compact dialect")
		}
		outputs = append(outputs, TxOut{Value: s.Value, ScriptPubkey: s.Script})
	}
	return outputs, nil
}

// anchoredLeafTxid computes the terminal raw identity: the leaf output
// plus its siblings, spent from prevout via the leaf's own sequence.
func anchoredLeafTxid(tree *VPackTree, prevout OutPoint, inputAmount *uint64) ([32]byte, error) {
	outputs := make([]TxOut, 0, 1+len(tree.LeafSiblings))
	outputs = append(outputs, TxOut{Value: tree.Leaf.Amount, ScriptPubkey: tree.Leaf.ScriptPubkey})
	for _, s := range tree.LeafSiblings {
		if s.Kind != SiblingCompact {
			return [32]byte{}, vperr(ErrEncoding, "anchored: full sibling in proof-compact dialect")
		}
		outputs = append(outputs, TxOut{Value: s.Value, ScriptPubkey: s.Script})
	}
	if inputAmount != nil {
		if sumOutputValues(outputs) != *inputAmount {
			return [32]byte{}, vperr(ErrValueMismatch, "anchored: leaf outputs do not conserve input value")
		}
	}
	input := TxIn{PrevTxid: prevout.Txid, PrevVout: prevout.Vout, Sequence: tree.Leaf.Sequence}
	preimage := Preimage(3, []TxIn{input}, outputs, 0)
	return sha256d(preimage), nil
}

// verifyStepSignature checks step.Signature against the BIP-341 key-path
// sighash for input 0 of preimage(3, [input], outputs, 0), spending the
// previous step's output at the current prevout's vout.
func verifyStepSignature(verifier SignatureVerifier, input TxIn, outputs, prevOutputs []TxOut, prevoutVout uint32, leafScript []byte, sig [64]byte) (bool, error) {
	if int(prevoutVout) >= len(prevOutputs) {
		return false, vperr(ErrInvalidVout, "anchored: signature check references out-of-range prevout")
	}
	spent := prevOutputs[prevoutVout]
	return verifier.VerifyTaprootKeyspend(input, outputs, spent.Value, spent.ScriptPubkey, leafScript, sig)
}
