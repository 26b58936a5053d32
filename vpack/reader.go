package vpack

// maxScriptLen bounds any single length-prefixed byte-string field
// inside the payload. It is generous (the payload itself is already
// capped at 1 MiB) but exists so a single corrupt length field cannot
// request an allocation larger than the payload could possibly hold.
const maxScriptLen = maxPayloadLen

// ParsePayload decodes the payload bytes that follow the 24-byte
// header into a VPackTree, following the exact field order the writer
// produces. Declared lengths (path_len, siblings_len) are checked
// against the header's tree_depth/tree_arity *before* any slice is
// allocated for them, closing the "reflective auto-serializer" DoS
// landmine where a declared length drives allocation before it is
// validated. Any failure aborts the whole decode; no partial tree is
// ever returned.
func ParsePayload(h Header, payload []byte) (*VPackTree, error) {
	c := newCursor(payload)
	var tree VPackTree

	if h.HasAssetID() {
		b, err := c.readExact(32)
		if err != nil {
			return nil, err
		}
		var id [32]byte
		copy(id[:], b)
		tree.AssetID = &id
	}

	anchor, err := readOutPoint(c)
	if err != nil {
		return nil, err
	}
	tree.Anchor = anchor

	feeAnchorScript, err := c.readLenPrefixedBytes(maxScriptLen)
	if err != nil {
		return nil, err
	}
	tree.FeeAnchorScript = feeAnchorScript
	if h.TxVariant == VariantAnchored && len(feeAnchorScript) == 0 {
		return nil, vperr(ErrFeeAnchorMissing, "payload: V3-Anchored requires a non-empty fee_anchor_script")
	}

	leaf, err := readLeaf(c)
	if err != nil {
		return nil, err
	}
	tree.Leaf = leaf

	leafSiblings, err := readSiblingList(c, h, uint32(h.TreeArity))
	if err != nil {
		return nil, err
	}
	tree.LeafSiblings = leafSiblings

	pathLen, err := c.readU32LE()
	if err != nil {
		return nil, err
	}
	if pathLen > uint32(h.TreeDepth) {
		return nil, vperr(ErrExceededMaxDepth, "payload: path_len exceeds header tree_depth")
	}

	path := make([]GenesisItem, 0, pathLen)
	for i := uint32(0); i < pathLen; i++ {
		item, err := readGenesisItem(c, h)
		if err != nil {
			return nil, err
		}
		path = append(path, item)
	}
	tree.Path = path

	if !c.atEnd() {
		return nil, vperr(ErrTrailingData, "payload: trailing bytes after last path step")
	}

	return &tree, nil
}

func readOutPoint(c *cursor) (OutPoint, error) {
	var op OutPoint
	b, err := c.readExact(32)
	if err != nil {
		return op, err
	}
	copy(op.Txid[:], b)
	vout, err := c.readU32LE()
	if err != nil {
		return op, err
	}
	op.Vout = vout
	return op, nil
}

func readLeaf(c *cursor) (VtxoLeaf, error) {
	var leaf VtxoLeaf
	amount, err := c.readU64LE()
	if err != nil {
		return leaf, err
	}
	vout, err := c.readU32LE()
	if err != nil {
		return leaf, err
	}
	seq, err := c.readU32LE()
	if err != nil {
		return leaf, err
	}
	expiry, err := c.readU32LE()
	if err != nil {
		return leaf, err
	}
	exitDelta, err := c.readU16LE()
	if err != nil {
		return leaf, err
	}
	script, err := c.readLenPrefixedBytes(maxScriptLen)
	if err != nil {
		return leaf, err
	}
	leaf = VtxoLeaf{
		Amount:       amount,
		Vout:         vout,
		Sequence:     seq,
		Expiry:       expiry,
		ExitDelta:    exitDelta,
		ScriptPubkey: script,
	}
	return leaf, nil
}

func readSiblingList(c *cursor, h Header, maxLen uint32) ([]Sibling, error) {
	n, err := c.readU32LE()
	if err != nil {
		return nil, err
	}
	if n > maxLen {
		return nil, vperr(ErrExceededMaxArity, "payload: siblings_len exceeds header tree_arity")
	}
	out := make([]Sibling, 0, n)
	for i := uint32(0); i < n; i++ {
		s, err := readSibling(c, h)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func readSibling(c *cursor, h Header) (Sibling, error) {
	var s Sibling
	if h.ProofCompact() {
		hashBytes, err := c.readExact(32)
		if err != nil {
			return s, err
		}
		var hash [32]byte
		copy(hash[:], hashBytes)
		value, err := c.readU64LE()
		if err != nil {
			return s, err
		}
		script, err := c.readLenPrefixedBytes(maxScriptLen)
		if err != nil {
			return s, err
		}
		return Sibling{Kind: SiblingCompact, Hash: hash, Value: value, Script: script}, nil
	}

	value, err := c.readU64LE()
	if err != nil {
		return s, err
	}
	scriptLen, err := c.readCompactSize()
	if err != nil {
		return s, err
	}
	if scriptLen > uint64(maxScriptLen) {
		return s, vperr(ErrEncoding, "payload: sibling script length exceeds bound")
	}
	script, err := c.readExact(int(scriptLen))
	if err != nil {
		return s, err
	}
	return Sibling{Kind: SiblingFull, Value: value, Script: script}, nil
}

func readGenesisItem(c *cursor, h Header) (GenesisItem, error) {
	var item GenesisItem

	siblings, err := readSiblingList(c, h, uint32(h.TreeArity))
	if err != nil {
		return item, err
	}
	item.Siblings = siblings

	parentIndex, err := c.readU32LE()
	if err != nil {
		return item, err
	}
	sequence, err := c.readU32LE()
	if err != nil {
		return item, err
	}
	childAmount, err := c.readU64LE()
	if err != nil {
		return item, err
	}
	childScript, err := c.readLenPrefixedBytes(maxScriptLen)
	if err != nil {
		return item, err
	}
	sigTag, err := c.readU8()
	if err != nil {
		return item, err
	}

	item.ParentIndex = parentIndex
	item.Sequence = sequence
	item.ChildAmount = childAmount
	item.ChildScriptPubkey = childScript

	switch sigTag {
	case 0:
		item.Signature = nil
	case 1:
		sigBytes, err := c.readExact(64)
		if err != nil {
			return item, err
		}
		var sig [64]byte
		copy(sig[:], sigBytes)
		item.Signature = &sig
	default:
		return item, vperr(ErrEncoding, "payload: invalid signature tag")
	}

	return item, nil
}
