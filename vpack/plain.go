package vpack

// plainEngine implements the V3-Plain dialect: a chain of reconstructed
// v3 transactions whose identity is an OutPoint, with each Compact
// sibling's declared hash checked against a canonical "birth"
// transaction before it is trusted.
type plainEngine struct{}

func (plainEngine) ComputeID(tree *VPackTree, anchorValue *uint64, verifier SignatureVerifier) (Identity, []SignedTx, error) {
	var signed []SignedTx

	if err := checkSiblingHashes(tree.LeafSiblings); err != nil {
		return Identity{}, nil, err
	}
	for _, step := range tree.Path {
		if err := checkSiblingHashes(step.Siblings); err != nil {
			return Identity{}, nil, err
		}
	}

	if len(tree.Path) == 0 {
		txid, tx, err := plainLeafTx(tree, tree.Anchor, anchorValue)
		if err != nil {
			return Identity{}, nil, err
		}
		signed = append(signed, tx)
		return OutPointIdentity(txid, tree.Leaf.Vout), signed, nil
	}

	var lastTxid [32]byte

	currentPrevout := tree.Anchor
	inputAmount := anchorValue
	var prevOutputs []TxOut

	for i, step := range tree.Path {
		if int(step.ParentIndex) >= 1+len(step.Siblings) {
			return Identity{}, nil, vperr(ErrInvalidVout, "plain: parent_index out of range")
		}

		outputs := buildPlainStepOutputs(step)

		if inputAmount != nil {
			if sumOutputValues(outputs) != *inputAmount {
				return Identity{}, nil, vperr(ErrValueMismatch, "plain: step outputs do not conserve input value")
			}
		}

		input := TxIn{PrevTxid: currentPrevout.Txid, PrevVout: currentPrevout.Vout, Sequence: step.Sequence}

		if verifier != nil && step.Signature != nil && i > 0 {
			ok, err := verifyStepSignature(verifier, input, outputs, prevOutputs, currentPrevout.Vout, tree.Leaf.ScriptPubkey, *step.Signature)
			if err != nil {
				return Identity{}, nil, err
			}
			if !ok {
				return Identity{}, nil, vperr(ErrInvalidSignature, "plain: signature verification failed")
			}
		}

		unsigned := Preimage(3, []TxIn{input}, outputs, 0)
		txid := sha256d(unsigned)

		var witnesses []TxWitness
		if step.Signature != nil {
			witnesses = []TxWitness{{Items: [][]byte{step.Signature[:]}}}
		}
		signed = append(signed, SignedTx{Bytes: SignedPreimage(3, []TxIn{input}, outputs, 0, witnesses)})

		handoffVout := tree.Leaf.Vout
		if i+1 < len(tree.Path) {
			handoffVout = tree.Path[i+1].ParentIndex
		}
		if int(handoffVout) >= len(outputs) {
			return Identity{}, nil, vperr(ErrInvalidVout, "plain: hand-off vout out of range")
		}

		prevOutputs = outputs
		lastTxid = txid
		currentPrevout = OutPoint{Txid: txid, Vout: handoffVout}
		next := outputs[handoffVout].Value
		inputAmount = &next
	}

	// An empty leaf script means the last path transaction is the terminal
	// node; its OutPoint (at leaf.vout, the last hand-off) is the identity.
	if len(tree.Leaf.ScriptPubkey) == 0 {
		return OutPointIdentity(lastTxid, tree.Leaf.Vout), signed, nil
	}

	txid, tx, err := plainLeafTx(tree, currentPrevout, inputAmount)
	if err != nil {
		return Identity{}, nil, err
	}
	signed = append(signed, tx)
	return OutPointIdentity(txid, tree.Leaf.Vout), signed, nil
}

func buildPlainStepOutputs(step GenesisItem) []TxOut {
	total := 1 + len(step.Siblings)
	outputs := make([]TxOut, total)
	siblingIdx := 0
	for i := 0; i < total; i++ {
		if uint32(i) == step.ParentIndex {
			outputs[i] = TxOut{Value: step.ChildAmount, ScriptPubkey: step.ChildScriptPubkey}
			continue
		}
		outputs[i] = TxOut{Value: step.Siblings[siblingIdx].Value, ScriptPubkey: step.Siblings[siblingIdx].Script}
		siblingIdx++
	}
	return outputs
}

func plainLeafTx(tree *VPackTree, prevout OutPoint, inputAmount *uint64) ([32]byte, SignedTx, error) {
	outputs := make([]TxOut, 0, 1+len(tree.LeafSiblings))
	outputs = append(outputs, TxOut{Value: tree.Leaf.Amount, ScriptPubkey: tree.Leaf.ScriptPubkey})
	for _, s := range tree.LeafSiblings {
		outputs = append(outputs, TxOut{Value: s.Value, ScriptPubkey: s.Script})
	}
	if inputAmount != nil {
		if sumOutputValues(outputs) != *inputAmount {
			return [32]byte{}, SignedTx{}, vperr(ErrValueMismatch, "plain: leaf outputs do not conserve input value")
		}
	}
	input := TxIn{PrevTxid: prevout.Txid, PrevVout: prevout.Vout, Sequence: tree.Leaf.Sequence}
	unsigned := Preimage(3, []TxIn{input}, outputs, 0)
	txid := sha256d(unsigned)
	signedBytes := SignedPreimage(3, []TxIn{input}, outputs, 0, nil)
	return txid, SignedTx{Bytes: signedBytes}, nil
}

// checkSiblingHashes verifies that every Compact sibling's declared
// hash equals sha256d of the canonical birth transaction for its
// (value, script). Full siblings carry no hash and are skipped.
func checkSiblingHashes(siblings []Sibling) error {
	for _, s := range siblings {
		if s.Kind != SiblingCompact {
			continue
		}
		if hashSiblingBirthTx(s.Value, s.Script) != s.Hash {
			return vperr(ErrSiblingHashMismatch, "plain: sibling hash does not match birth transaction")
		}
	}
	return nil
}

// hashSiblingBirthTx is the canonical "birth" transaction binding a
// sibling's identity to its value+script: a 1-in-1-out v3 transaction
// with an all-zero prevout, vout 0, sequence 0, and locktime 0.
func hashSiblingBirthTx(value uint64, script []byte) [32]byte {
	input := TxIn{PrevTxid: [32]byte{}, PrevVout: 0, Sequence: 0}
	output := TxOut{Value: value, ScriptPubkey: script}
	preimage := Preimage(3, []TxIn{input}, []TxOut{output}, 0)
	return sha256d(preimage)
}
