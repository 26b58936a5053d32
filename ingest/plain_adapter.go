package ingest

import (
	"encoding/json"

	"vpack.dev/vpack"
)

// PlainSiblingJSON is one entry of a Plain ingredients path step's
// "siblings" array: a declared birth-transaction hash, a value, and a
// hex-encoded script.
type PlainSiblingJSON struct {
	Hash   string `json:"hash"`
	Value  uint64 `json:"value"`
	Script string `json:"script"`
}

// PlainStepJSON is one entry of the Plain ingredients "path"/"genesis"
// array.
type PlainStepJSON struct {
	Siblings          []PlainSiblingJSON `json:"siblings"`
	ParentIndex       uint32              `json:"parent_index"`
	Sequence          uint32              `json:"sequence"`
	ChildAmount       uint64              `json:"child_amount"`
	ChildScriptPubkey string              `json:"child_script_pubkey,omitempty"`
	ChildScript       string              `json:"child_script,omitempty"`
}

// PlainIngredientsJSON is the Second-Tech-dialect reconstruction
// ingredients shape: the VTXO's own amount/script/expiry/exit_delta, the
// anchor outpoint, an optional fee anchor script override, and the
// genesis path under either "path" or "genesis".
type PlainIngredientsJSON struct {
	Amount          uint64          `json:"amount"`
	ScriptPubkeyHex string          `json:"script_pubkey_hex,omitempty"`
	Script          string          `json:"script,omitempty"`
	ExitDelta       uint16          `json:"exit_delta,omitempty"`
	Vout            uint32          `json:"vout,omitempty"`
	ExpiryHeight    uint32          `json:"expiry_height,omitempty"`
	AnchorOutpoint  string          `json:"anchor_outpoint,omitempty"`
	ParentOutpoint  string          `json:"parent_outpoint,omitempty"`
	FeeAnchorScript string          `json:"fee_anchor_script,omitempty"`
	Path            []PlainStepJSON `json:"path,omitempty"`
	Genesis         []PlainStepJSON `json:"genesis,omitempty"`
}

// ParsePlainIngredients maps one Second-Tech-dialect ingredients JSON
// document into a canonical VPackTree. nSequence is always 0 for this
// dialect; every path step and the leaf_siblings level get a fee-anchor
// sibling appended.
func ParsePlainIngredients(raw []byte) (*vpack.VPackTree, error) {
	var j PlainIngredientsJSON
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, &vpack.VPackError{Code: vpack.ErrEncoding, Msg: "ingest: malformed plain ingredients JSON"}
	}
	return plainTreeFromJSON(j)
}

func plainTreeFromJSON(j PlainIngredientsJSON) (*vpack.VPackTree, error) {
	anchorStr := j.AnchorOutpoint
	if anchorStr == "" {
		anchorStr = j.ParentOutpoint
	}
	anchor, err := parseAnchorOutpoint(anchorStr)
	if err != nil {
		return nil, err
	}

	feeAnchorScript, err := resolveFeeAnchorScript(j.FeeAnchorScript)
	if err != nil {
		return nil, err
	}

	scriptHex := j.ScriptPubkeyHex
	if scriptHex == "" {
		scriptHex = j.Script
	}
	if scriptHex == "" {
		return nil, &vpack.VPackError{Code: vpack.ErrEncoding, Msg: "ingest: plain ingredients missing script_pubkey_hex/script"}
	}
	scriptPubkey, err := decodeHexOrEmpty(scriptHex)
	if err != nil {
		return nil, err
	}

	steps := j.Path
	if len(steps) == 0 {
		steps = j.Genesis
	}

	path := make([]vpack.GenesisItem, 0, len(steps))
	for _, step := range steps {
		childScriptHex := step.ChildScriptPubkey
		if childScriptHex == "" {
			childScriptHex = step.ChildScript
		}
		childScript, err := decodeHexOrEmpty(childScriptHex)
		if err != nil {
			return nil, err
		}

		siblings := make([]vpack.Sibling, 0, len(step.Siblings)+1)
		for _, s := range step.Siblings {
			sib, err := jsonSiblingToCompact(s.Hash, s.Value, s.Script)
			if err != nil {
				return nil, err
			}
			siblings = append(siblings, sib)
		}
		siblings = append(siblings, feeAnchorSibling(feeAnchorScript))

		path = append(path, vpack.GenesisItem{
			Siblings:          siblings,
			ParentIndex:       step.ParentIndex,
			Sequence:          0,
			ChildAmount:       step.ChildAmount,
			ChildScriptPubkey: childScript,
		})
	}

	leaf := vpack.VtxoLeaf{
		Amount:       j.Amount,
		Vout:         j.Vout,
		Sequence:     0,
		Expiry:       j.ExpiryHeight,
		ExitDelta:    j.ExitDelta,
		ScriptPubkey: scriptPubkey,
	}

	return &vpack.VPackTree{
		Leaf:            leaf,
		LeafSiblings:    []vpack.Sibling{feeAnchorSibling(feeAnchorScript)},
		Path:            path,
		Anchor:          anchor,
		FeeAnchorScript: feeAnchorScript,
	}, nil
}
