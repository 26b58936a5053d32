package vpack

// SerializePayload renders tree into the exact byte sequence ParsePayload
// expects: an explicit, field-by-field write mirroring the reader's
// order. No reflective serializer is used.
func SerializePayload(tree *VPackTree) []byte {
	b := make([]byte, 0, 256)

	if tree.AssetID != nil {
		b = append(b, tree.AssetID[:]...)
	}

	b = append(b, tree.Anchor.Txid[:]...)
	b = appendU32LE(b, tree.Anchor.Vout)

	b = appendLenPrefixedBytes(b, tree.FeeAnchorScript)

	b = appendU64LE(b, tree.Leaf.Amount)
	b = appendU32LE(b, tree.Leaf.Vout)
	b = appendU32LE(b, tree.Leaf.Sequence)
	b = appendU32LE(b, tree.Leaf.Expiry)
	b = appendU16LE(b, tree.Leaf.ExitDelta)
	b = appendLenPrefixedBytes(b, tree.Leaf.ScriptPubkey)

	b = appendSiblingList(b, tree.LeafSiblings)

	b = appendU32LE(b, uint32(len(tree.Path)))
	for _, item := range tree.Path {
		b = appendGenesisItem(b, item)
	}

	return b
}

func appendSiblingList(b []byte, siblings []Sibling) []byte {
	b = appendU32LE(b, uint32(len(siblings)))
	for _, s := range siblings {
		b = appendSibling(b, s)
	}
	return b
}

func appendSibling(b []byte, s Sibling) []byte {
	if s.Kind == SiblingCompact {
		b = append(b, s.Hash[:]...)
		b = appendU64LE(b, s.Value)
		b = appendLenPrefixedBytes(b, s.Script)
		return b
	}
	b = appendU64LE(b, s.Value)
	b = AppendCompactSize(b, uint64(len(s.Script)))
	b = append(b, s.Script...)
	return b
}

func appendGenesisItem(b []byte, item GenesisItem) []byte {
	b = appendSiblingList(b, item.Siblings)
	b = appendU32LE(b, item.ParentIndex)
	b = appendU32LE(b, item.Sequence)
	b = appendU64LE(b, item.ChildAmount)
	b = appendLenPrefixedBytes(b, item.ChildScriptPubkey)
	if item.Signature == nil {
		b = append(b, 0)
	} else {
		b = append(b, 1)
		b = append(b, item.Signature[:]...)
	}
	return b
}

// HeaderFields are the tree-derived header fields a caller supplies
// alongside a tree when packing; everything else (payload_len,
// checksum) is computed by Pack.
type HeaderFields struct {
	Flags     uint8
	TxVariant uint8
	TreeArity uint16
	TreeDepth uint16
	NodeCount uint16
	AssetType uint32
}

// Pack serialises tree, enforces the 1 MiB payload cap, fills in the
// header's payload_len and checksum, and returns the concatenated
// header+payload bytes.
func Pack(fields HeaderFields, tree *VPackTree) ([]byte, error) {
	payload := SerializePayload(tree)
	return packFromPayload(fields, payload)
}

// PackFromPayload is the secondary entry point used by callers that
// already hold serialized payload bytes (e.g. conformance test
// harnesses) and only need header fields computed around them.
func PackFromPayload(fields HeaderFields, payload []byte) ([]byte, error) {
	return packFromPayload(fields, payload)
}

func packFromPayload(fields HeaderFields, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, vperr(ErrEmptyPayload, "pack: payload is empty")
	}
	if len(payload) > maxPayloadLen {
		return nil, vperr(ErrPayloadTooLarge, "pack: payload exceeds 1 MiB")
	}

	h := Header{
		Flags:      fields.Flags,
		Version:    supportedVersion,
		TxVariant:  fields.TxVariant,
		TreeArity:  fields.TreeArity,
		TreeDepth:  fields.TreeDepth,
		NodeCount:  fields.NodeCount,
		AssetType:  fields.AssetType,
		PayloadLen: uint32(len(payload)),
	}
	h.Checksum = computeChecksum(h, payload)

	out := make([]byte, 0, headerLen+len(payload))
	out = append(out, h.Bytes()...)
	out = append(out, payload...)
	return out, nil
}
