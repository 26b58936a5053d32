package vpack

// OutPoint identifies a spendable output: a txid plus output index.
type OutPoint struct {
	Txid [32]byte
	Vout uint32
}

// IdentityKind distinguishes the two Identity variants.
type IdentityKind uint8

const (
	IdentityRaw IdentityKind = iota
	IdentityOutPoint
)

// Identity is the sum type returned by a consensus engine: either a
// raw 32-byte transaction-reconstruction hash (V3-Anchored) or an
// OutPoint (V3-Plain). Exactly one of the payload fields is meaningful,
// selected by Kind; callers should not read Raw/OutPoint directly
// without checking Kind first.
type Identity struct {
	Kind     IdentityKind
	Raw      [32]byte
	OutPoint OutPoint
}

func RawIdentity(hash [32]byte) Identity {
	return Identity{Kind: IdentityRaw, Raw: hash}
}

func OutPointIdentity(txid [32]byte, vout uint32) Identity {
	return Identity{Kind: IdentityOutPoint, OutPoint: OutPoint{Txid: txid, Vout: vout}}
}

// Equal reports whether two identities are the same kind and value.
func (id Identity) Equal(other Identity) bool {
	if id.Kind != other.Kind {
		return false
	}
	switch id.Kind {
	case IdentityRaw:
		return id.Raw == other.Raw
	case IdentityOutPoint:
		return id.OutPoint == other.OutPoint
	default:
		return false
	}
}

// SiblingKind distinguishes the two Sibling variants.
type SiblingKind uint8

const (
	SiblingCompact SiblingKind = iota
	SiblingFull
)

// Sibling is a co-output of a reconstructed step other than the child
// that continues the path. Compact carries a declared identity hash
// (used by V3-Plain to bind value+script without trusting the packer);
// Full carries only a plain TxOut and is used when the proof-compact
// header flag is off.
type Sibling struct {
	Kind   SiblingKind
	Hash   [32]byte // Compact only
	Value  uint64
	Script []byte
}

// GenesisItem is one step on the path from the anchor down to the
// leaf: the co-outputs spent alongside the child, which output index
// the child occupies, the nSequence used to spend into this step, and
// an optional BIP-340 signature authorizing the spend.
type GenesisItem struct {
	Siblings          []Sibling
	ParentIndex       uint32
	Sequence          uint32
	ChildAmount       uint64
	ChildScriptPubkey []byte
	Signature         *[64]byte
}

// VtxoLeaf is the terminal node of the tree: the VTXO itself.
type VtxoLeaf struct {
	Amount       uint64
	Vout         uint32
	Sequence     uint32
	Expiry       uint32
	ExitDelta    uint16
	ScriptPubkey []byte
}

// VPackTree is the fully parsed payload: everything needed to
// recompute a VTXO identity and check conservation of value from the
// anchor down to the leaf. It is built once (by the reader or an
// ingredient adapter), treated as immutable during verification, and
// dropped when verification returns.
type VPackTree struct {
	Leaf            VtxoLeaf
	LeafSiblings    []Sibling
	Path            []GenesisItem // root -> leaf order
	Anchor          OutPoint
	AssetID         *[32]byte
	FeeAnchorScript []byte
}
