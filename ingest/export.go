package ingest

import "vpack.dev/vpack"

// AnchoredIngredients are the Go-native (non-JSON) ingredients to build a
// V3-Anchored V-PACK directly: an anchor outpoint, the nSequence used to
// spend it, the leaf/child output, and, for a one-step branch, the
// path step's sibling data and child output.
type AnchoredIngredients struct {
	Anchor          vpack.OutPoint
	Sequence        uint32
	FeeAnchorScript []byte // empty selects the default 51024e73
	Value           uint64
	ScriptPubkey    []byte
	Siblings        []vpack.Sibling // Compact siblings of the single branch step; empty means leaf-only
	ChildAmount     uint64          // branch case only; 0 defaults to Value
	ChildScript     []byte          // branch case only; nil defaults to ScriptPubkey
}

// PlainGenesisStep is one Go-native path step for PlainIngredients.
// Siblings should not include the fee anchor; ExportPlain appends one
// automatically, matching the JSON adapter.
type PlainGenesisStep struct {
	Siblings    []vpack.Sibling
	ParentIndex uint32
	Sequence    uint32
	ChildAmount uint64
	ChildScript []byte
}

// PlainIngredients are the Go-native ingredients to build a V3-Plain
// V-PACK directly.
type PlainIngredients struct {
	Anchor          vpack.OutPoint
	FeeAnchorScript []byte // empty selects the default 51024e73
	Amount          uint64
	ScriptPubkey    []byte
	ExitDelta       uint16
	Vout            uint32
	ExpiryHeight    uint32
	Path            []PlainGenesisStep
}

func resolveFeeAnchorBytes(b []byte) []byte {
	if len(b) > 0 {
		return b
	}
	defaultScript, _ := resolveFeeAnchorScript("")
	return defaultScript
}

func anchoredTreeFromIngredients(ing AnchoredIngredients) *vpack.VPackTree {
	feeAnchorScript := resolveFeeAnchorBytes(ing.FeeAnchorScript)

	var path []vpack.GenesisItem
	var leaf vpack.VtxoLeaf
	var leafSiblings []vpack.Sibling

	if len(ing.Siblings) > 0 {
		childAmount, childScript := ing.ChildAmount, ing.ChildScript
		if childAmount == 0 {
			childAmount = ing.Value
		}
		if childScript == nil {
			childScript = ing.ScriptPubkey
		}

		siblings := make([]vpack.Sibling, 0, len(ing.Siblings)+1)
		siblings = append(siblings, ing.Siblings...)
		siblings = append(siblings, feeAnchorSibling(feeAnchorScript))

		path = []vpack.GenesisItem{{
			Siblings:          siblings,
			ParentIndex:       0,
			Sequence:          ing.Sequence,
			ChildAmount:       childAmount,
			ChildScriptPubkey: childScript,
		}}
		leaf = vpack.VtxoLeaf{Amount: childAmount, Vout: 0, Sequence: ing.Sequence, ScriptPubkey: childScript}
		leafSiblings = []vpack.Sibling{feeAnchorSibling(feeAnchorScript)}
	} else {
		leaf = vpack.VtxoLeaf{Amount: ing.Value, Vout: 0, Sequence: ing.Sequence, ScriptPubkey: ing.ScriptPubkey}
		leafSiblings = []vpack.Sibling{feeAnchorSibling(feeAnchorScript)}
	}

	return &vpack.VPackTree{
		Leaf:            leaf,
		LeafSiblings:    leafSiblings,
		Path:            path,
		Anchor:          ing.Anchor,
		FeeAnchorScript: feeAnchorScript,
	}
}

func plainTreeFromIngredients(ing PlainIngredients) *vpack.VPackTree {
	feeAnchorScript := resolveFeeAnchorBytes(ing.FeeAnchorScript)

	path := make([]vpack.GenesisItem, 0, len(ing.Path))
	for _, step := range ing.Path {
		siblings := make([]vpack.Sibling, 0, len(step.Siblings)+1)
		siblings = append(siblings, step.Siblings...)
		siblings = append(siblings, feeAnchorSibling(feeAnchorScript))
		path = append(path, vpack.GenesisItem{
			Siblings:          siblings,
			ParentIndex:       step.ParentIndex,
			Sequence:          step.Sequence,
			ChildAmount:       step.ChildAmount,
			ChildScriptPubkey: step.ChildScript,
		})
	}

	leaf := vpack.VtxoLeaf{
		Amount:       ing.Amount,
		Vout:         ing.Vout,
		Sequence:     0,
		Expiry:       ing.ExpiryHeight,
		ExitDelta:    ing.ExitDelta,
		ScriptPubkey: ing.ScriptPubkey,
	}

	return &vpack.VPackTree{
		Leaf:            leaf,
		LeafSiblings:    []vpack.Sibling{feeAnchorSibling(feeAnchorScript)},
		Path:            path,
		Anchor:          ing.Anchor,
		FeeAnchorScript: feeAnchorScript,
	}
}

// ExportAnchored builds a full V-PACK (header + payload) from Go-native
// V3-Anchored ingredients.
func ExportAnchored(ing AnchoredIngredients) ([]byte, error) {
	return ExportFromTree(anchoredTreeFromIngredients(ing), vpack.VariantAnchored)
}

// ExportPlain builds a full V-PACK (header + payload) from Go-native
// V3-Plain ingredients.
func ExportPlain(ing PlainIngredients) ([]byte, error) {
	return ExportFromTree(plainTreeFromIngredients(ing), vpack.VariantPlain)
}

// ExportFromTree derives header fields from tree: tree_depth from
// len(Path), tree_arity from the widest siblings list at any level,
// leaf_siblings included (clamped to
// [2, 16]), node_count from the sum of all steps' sibling counts (capped
// at tree_depth*tree_arity), sets the proof-compact flag (and the
// has-asset-id flag when tree carries one), and packs tree into the
// final header+payload bytes. Used directly by callers (and by
// ExportAnchored and ExportPlain above) once a tree already exists.
func ExportFromTree(tree *vpack.VPackTree, variant uint8) ([]byte, error) {
	return vpack.Pack(headerFieldsFromTree(tree, variant), tree)
}

func headerFieldsFromTree(tree *vpack.VPackTree, variant uint8) vpack.HeaderFields {
	depth := len(tree.Path)
	if depth > 32 {
		depth = 32
	}

	// Arity must admit the widest siblings list anywhere in the tree,
	// including the leaf level, or the reader would reject the pack's
	// own leaf_siblings with ExceededMaxArity.
	arity, nodeCount := len(tree.LeafSiblings), 0
	for _, step := range tree.Path {
		n := len(step.Siblings)
		nodeCount += n
		if n > arity {
			arity = n
		}
	}
	if arity < 2 {
		arity = 2
	}
	if arity > 16 {
		arity = 16
	}
	if maxNodes := depth * arity; nodeCount > maxNodes {
		nodeCount = maxNodes
	}

	flags := uint8(0x04) // proof-compact: every adapter here only ever emits Compact siblings
	if tree.AssetID != nil {
		flags |= 0x08
	}

	return vpack.HeaderFields{
		Flags:     flags,
		TxVariant: variant,
		TreeArity: uint16(arity),
		TreeDepth: uint16(depth),
		NodeCount: uint16(nodeCount),
	}
}
