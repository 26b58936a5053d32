package ingest

import (
	"encoding/json"

	"vpack.dev/vpack"
)

// AnchoredOutputJSON is one entry of the Anchored ingredients "outputs"
// array: a value in sats and a hex-encoded scriptPubkey.
type AnchoredOutputJSON struct {
	Value  uint64 `json:"value"`
	Script string `json:"script"`
}

// AnchoredSiblingJSON is one entry of the Anchored ingredients "siblings"
// array for a one-step branch.
type AnchoredSiblingJSON struct {
	Hash   string `json:"hash"`
	Value  uint64 `json:"value"`
	Script string `json:"script"`
}

// AnchoredIngredientsJSON is the Ark-Labs-dialect reconstruction
// ingredients shape: a parent/anchor outpoint, the nSequence used to
// spend it, an optional fee anchor script override, a leaf-or-child
// output, and, for a one-step branch, a siblings array plus an
// optional explicit child output.
type AnchoredIngredientsJSON struct {
	ParentOutpoint  string                `json:"parent_outpoint,omitempty"`
	AnchorOutpoint  string                `json:"anchor_outpoint,omitempty"`
	NSequence       uint32                `json:"nSequence"`
	FeeAnchorScript string                `json:"fee_anchor_script,omitempty"`
	Outputs         []AnchoredOutputJSON  `json:"outputs,omitempty"`
	ChildOutput     *AnchoredOutputJSON   `json:"child_output,omitempty"`
	Siblings        []AnchoredSiblingJSON `json:"siblings,omitempty"`
}

// ParseAnchoredIngredients maps one Ark-Labs-dialect ingredients JSON
// document into a canonical VPackTree. Whenever the resulting tree
// carries any siblings (the one path step, and the leaf_siblings level),
// a fee-anchor sibling built from fee_anchor_script (default 51024e73)
// is appended so every level carries the protocol fee anchor.
func ParseAnchoredIngredients(raw []byte) (*vpack.VPackTree, error) {
	var j AnchoredIngredientsJSON
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, &vpack.VPackError{Code: vpack.ErrEncoding, Msg: "ingest: malformed anchored ingredients JSON"}
	}
	return anchoredTreeFromJSON(j)
}

func anchoredTreeFromJSON(j AnchoredIngredientsJSON) (*vpack.VPackTree, error) {
	anchorStr := j.ParentOutpoint
	if anchorStr == "" {
		anchorStr = j.AnchorOutpoint
	}
	anchor, err := parseAnchorOutpoint(anchorStr)
	if err != nil {
		return nil, err
	}

	feeAnchorScript, err := resolveFeeAnchorScript(j.FeeAnchorScript)
	if err != nil {
		return nil, err
	}

	var value uint64
	var scriptPubkey []byte
	if len(j.Outputs) > 0 {
		value = j.Outputs[0].Value
		if scriptPubkey, err = decodeHexOrEmpty(j.Outputs[0].Script); err != nil {
			return nil, err
		}
	}

	var path []vpack.GenesisItem
	var leaf vpack.VtxoLeaf
	var leafSiblings []vpack.Sibling

	if len(j.Siblings) > 0 {
		childAmount, childScript := value, scriptPubkey
		if j.ChildOutput != nil {
			childAmount = j.ChildOutput.Value
			if childScript, err = decodeHexOrEmpty(j.ChildOutput.Script); err != nil {
				return nil, err
			}
		}

		siblings := make([]vpack.Sibling, 0, len(j.Siblings)+1)
		for _, s := range j.Siblings {
			sib, err := jsonSiblingToCompact(s.Hash, s.Value, s.Script)
			if err != nil {
				return nil, err
			}
			siblings = append(siblings, sib)
		}
		siblings = append(siblings, feeAnchorSibling(feeAnchorScript))

		path = []vpack.GenesisItem{{
			Siblings:          siblings,
			ParentIndex:       0,
			Sequence:          j.NSequence,
			ChildAmount:       childAmount,
			ChildScriptPubkey: childScript,
		}}
		leaf = vpack.VtxoLeaf{
			Amount:       childAmount,
			Vout:         0,
			Sequence:     j.NSequence,
			ScriptPubkey: childScript,
		}
		leafSiblings = []vpack.Sibling{feeAnchorSibling(feeAnchorScript)}
	} else {
		if len(scriptPubkey) == 0 {
			return nil, &vpack.VPackError{Code: vpack.ErrEncoding, Msg: "ingest: leaf-only ingredients missing output script"}
		}
		leaf = vpack.VtxoLeaf{
			Amount:       value,
			Vout:         0,
			Sequence:     j.NSequence,
			ScriptPubkey: scriptPubkey,
		}
		for _, o := range j.Outputs[1:] {
			script, err := decodeHexOrEmpty(o.Script)
			if err != nil {
				return nil, err
			}
			leafSiblings = append(leafSiblings, vpack.Sibling{Kind: vpack.SiblingCompact, Value: o.Value, Script: script})
		}
		if len(leafSiblings) > 0 {
			leafSiblings = append(leafSiblings, feeAnchorSibling(feeAnchorScript))
		}
	}

	return &vpack.VPackTree{
		Leaf:            leaf,
		LeafSiblings:    leafSiblings,
		Path:            path,
		Anchor:          anchor,
		FeeAnchorScript: feeAnchorScript,
	}, nil
}
