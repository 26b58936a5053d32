package ingest

import (
	"encoding/binary"

	"vpack.dev/vpack"
)

// nativeCursor is a bounded, explicit-position reader over a borrowed
// byte slice, mirroring vpack's own cursor: every read is length-checked
// before the position advances. It is a separate (unexported) type
// rather than a shared one because the bark wire layout this file
// decodes differs field-by-field from V-PACK's own payload layout
// (u16 counts in places V-PACK uses u32, a CompactSize genesis count,
// a fixed-width pubkey) and must not be confused with it.
type nativeCursor struct {
	b   []byte
	pos int
}

func newNativeCursor(b []byte) *nativeCursor { return &nativeCursor{b: b} }

func (c *nativeCursor) remaining() int { return len(c.b) - c.pos }

func (c *nativeCursor) atEnd() bool { return c.pos == len(c.b) }

func (c *nativeCursor) readExact(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, &vpack.VPackError{Code: vpack.ErrIncompleteData, Msg: "ingest: bark: truncated read"}
	}
	start := c.pos
	c.pos += n
	return c.b[start:c.pos], nil
}

func (c *nativeCursor) readU8() (uint8, error) {
	b, err := c.readExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *nativeCursor) readU16LE() (uint16, error) {
	b, err := c.readExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *nativeCursor) readU32LE() (uint32, error) {
	b, err := c.readExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *nativeCursor) readU64LE() (uint64, error) {
	b, err := c.readExact(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *nativeCursor) readCompactSize() (uint64, error) {
	v, used, err := vpack.DecodeCompactSize(c.b[c.pos:])
	if err != nil {
		return 0, err
	}
	c.pos += used
	return v, nil
}

// readBorshBytes reads a u32-LE length followed by that many bytes, the
// shape bark uses for its own Vec<u8> fields.
func (c *nativeCursor) readBorshBytes() ([]byte, error) {
	n, err := c.readU32LE()
	if err != nil {
		return nil, err
	}
	if n > maxNativeFieldLen {
		return nil, &vpack.VPackError{Code: vpack.ErrEncoding, Msg: "ingest: bark: field length exceeds bound"}
	}
	return c.readExact(int(n))
}

func (c *nativeCursor) readOutPoint() (vpack.OutPoint, error) {
	var op vpack.OutPoint
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

const maxNativeFieldLen = 1 << 20 // matches the V-PACK payload cap; a single field can never legitimately exceed it

const barkServerPubkeyLen = 33

// maxNativeGenesisLen caps the declared genesis count before the path
// slice is allocated, matching the V-PACK tree depth limit.
const maxNativeGenesisLen = 32

// ParsePlainNative decodes Second Tech's own native ("bark") wire
// encoding of a VTXO directly into a canonical VPackTree, as a third
// ingestion path alongside the two JSON adapters: version(u16) |
// amount(u64) | expiry_height(u32) | server_pubkey(33B) | exit_delta(u16)
// | anchor_point(36B consensus OutPoint) | genesis_count(CompactSize) |
// genesis items | policy(1B tag, consumed but not interpreted beyond
// that) | point(36B consensus OutPoint, whose vout becomes leaf.vout).
//
// Bark's genesis item shadow differs field-by-field from V-PACK's own
// GenesisItem encoding: siblings_len is u16 (not u32), and parent_index
// is carried as a following (nb_outputs u8, output_idx u8) pair rather
// than a bare u32. feeAnchorScript is appended as a Compact sibling to
// every step and to leaf_siblings, exactly as the JSON adapters do.
func ParsePlainNative(raw []byte, feeAnchorScript []byte) (*vpack.VPackTree, error) {
	c := newNativeCursor(raw)

	if _, err := c.readU16LE(); err != nil { // encoding version, unused beyond framing
		return nil, err
	}
	amount, err := c.readU64LE()
	if err != nil {
		return nil, err
	}
	expiryHeight, err := c.readU32LE()
	if err != nil {
		return nil, err
	}
	serverPubkey, err := c.readExact(barkServerPubkeyLen)
	if err != nil {
		return nil, err
	}
	exitDelta, err := c.readU16LE()
	if err != nil {
		return nil, err
	}
	anchor, err := c.readOutPoint()
	if err != nil {
		return nil, err
	}

	genesisCount, err := c.readCompactSize()
	if err != nil {
		return nil, err
	}
	if genesisCount > maxNativeGenesisLen {
		return nil, &vpack.VPackError{Code: vpack.ErrExceededMaxDepth, Msg: "ingest: bark: genesis count exceeds maximum depth"}
	}

	fee := feeAnchorSibling(feeAnchorScript)

	path := make([]vpack.GenesisItem, 0, genesisCount)
	for i := uint64(0); i < genesisCount; i++ {
		item, err := readNativeGenesisItem(c)
		if err != nil {
			return nil, err
		}
		item.Siblings = append(item.Siblings, fee)
		path = append(path, item)
	}

	if _, err := c.readU8(); err != nil { // policy tag, not exercised by verification
		return nil, err
	}

	point, err := c.readOutPoint()
	if err != nil {
		return nil, err
	}

	if !c.atEnd() {
		return nil, &vpack.VPackError{Code: vpack.ErrTrailingData, Msg: "ingest: bark: trailing bytes after point"}
	}

	leaf := vpack.VtxoLeaf{
		Amount:       amount,
		Vout:         point.Vout,
		Sequence:     0,
		Expiry:       expiryHeight,
		ExitDelta:    exitDelta,
		ScriptPubkey: append([]byte(nil), serverPubkey...),
	}

	return &vpack.VPackTree{
		Leaf:            leaf,
		LeafSiblings:    []vpack.Sibling{fee},
		Path:            path,
		Anchor:          anchor,
		FeeAnchorScript: feeAnchorScript,
	}, nil
}

func readNativeGenesisItem(c *nativeCursor) (vpack.GenesisItem, error) {
	var item vpack.GenesisItem

	siblingsLen, err := c.readU16LE()
	if err != nil {
		return item, err
	}
	siblings := make([]vpack.Sibling, 0, siblingsLen)
	for i := uint16(0); i < siblingsLen; i++ {
		sib, err := readNativeSibling(c)
		if err != nil {
			return item, err
		}
		siblings = append(siblings, sib)
	}
	item.Siblings = siblings

	if _, err := c.readU8(); err != nil { // nb_outputs, not needed once parent_index is known
		return item, err
	}
	outputIdx, err := c.readU8()
	if err != nil {
		return item, err
	}
	item.ParentIndex = uint32(outputIdx)

	sequence, err := c.readU32LE()
	if err != nil {
		return item, err
	}
	childAmount, err := c.readU64LE()
	if err != nil {
		return item, err
	}
	childScript, err := c.readBorshBytes()
	if err != nil {
		return item, err
	}
	item.Sequence = sequence
	item.ChildAmount = childAmount
	item.ChildScriptPubkey = childScript

	sigTag, err := c.readU8()
	if err != nil {
		return item, err
	}
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
		return item, &vpack.VPackError{Code: vpack.ErrEncoding, Msg: "ingest: bark: invalid signature tag"}
	}

	return item, nil
}

func readNativeSibling(c *nativeCursor) (vpack.Sibling, error) {
	hashBytes, err := c.readExact(32)
	if err != nil {
		return vpack.Sibling{}, err
	}
	value, err := c.readU64LE()
	if err != nil {
		return vpack.Sibling{}, err
	}
	script, err := c.readBorshBytes()
	if err != nil {
		return vpack.Sibling{}, err
	}
	var hash [32]byte
	copy(hash[:], hashBytes)
	return vpack.Sibling{Kind: vpack.SiblingCompact, Hash: hash, Value: value, Script: script}, nil
}
