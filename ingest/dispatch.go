// Package ingest maps dialect-specific ingredients into the canonical
// vpack.VPackTree and exports a tree back into packed V-PACK bytes with
// header fields derived from the tree. Three ingestion paths are
// supported: Ark Labs's V3-Anchored JSON shape, Second Tech's V3-Plain
// JSON shape, and Second Tech's native "bark" wire encoding.
package ingest

import (
	"encoding/hex"
	"encoding/json"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"vpack.dev/vpack"
)

const defaultFeeAnchorScriptHex = "51024e73"

// Dispatch auto-selects between the Anchored and Plain JSON adapters by
// inspecting which keys raw carries: Anchored is selected when a parent/
// anchor outpoint key is present alongside an outputs array; otherwise
// Plain is tried. It returns the built tree and the tx_variant the caller
// should use when packing or verifying it.
func Dispatch(raw []byte) (*vpack.VPackTree, uint8, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, 0, &vpack.VPackError{Code: vpack.ErrEncoding, Msg: "ingest: malformed ingredients JSON"}
	}

	_, hasParent := probe["parent_outpoint"]
	_, hasAnchor := probe["anchor_outpoint"]
	_, hasOutputs := probe["outputs"]

	if (hasParent || hasAnchor) && hasOutputs {
		tree, err := ParseAnchoredIngredients(raw)
		return tree, vpack.VariantAnchored, err
	}
	tree, err := ParsePlainIngredients(raw)
	return tree, vpack.VariantPlain, err
}

// parseAnchorOutpoint parses a display-form VTXO identity string that is
// expected to be an OutPoint (txid:vout), rejecting a bare Raw identity.
func parseAnchorOutpoint(s string) (vpack.OutPoint, error) {
	id, err := vpack.ParseIdentity(s)
	if err != nil {
		return vpack.OutPoint{}, err
	}
	if id.Kind != vpack.IdentityOutPoint {
		return vpack.OutPoint{}, &vpack.VPackError{Code: vpack.ErrInvalidVtxoIDFmt, Msg: "ingest: anchor must be an outpoint, not a raw identity"}
	}
	return id.OutPoint, nil
}

// decodeHexOrEmpty hex-decodes s, treating an empty string as an empty
// (not nil-error) byte slice.
func decodeHexOrEmpty(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, &vpack.VPackError{Code: vpack.ErrEncoding, Msg: "ingest: bad hex field"}
	}
	return b, nil
}

// feeAnchorSibling builds the Compact sibling every adapter appends to a
// non-empty siblings list to satisfy I5: value 0, the fee anchor script,
// and its canonical birth-transaction hash, since V3-Plain checks every
// Compact sibling's declared hash regardless of which script it carries.
func feeAnchorSibling(script []byte) vpack.Sibling {
	return vpack.Sibling{Kind: vpack.SiblingCompact, Hash: siblingBirthHash(0, script), Value: 0, Script: script}
}

// siblingBirthHash mirrors the consensus engine's own canonical "birth"
// transaction for a Compact sibling: a 1-in-1-out v3 transaction with an
// all-zero prevout, vout 0, sequence 0, and locktime 0.
func siblingBirthHash(value uint64, script []byte) [32]byte {
	input := vpack.TxIn{PrevTxid: [32]byte{}, PrevVout: 0, Sequence: 0}
	output := vpack.TxOut{Value: value, ScriptPubkey: script}
	preimage := vpack.Preimage(3, []vpack.TxIn{input}, []vpack.TxOut{output}, 0)
	return chainhash.DoubleHashH(preimage)
}

// resolveFeeAnchorScript hex-decodes feeHex, or the protocol default
// (51024e73) when feeHex is empty.
func resolveFeeAnchorScript(feeHex string) ([]byte, error) {
	if feeHex == "" {
		feeHex = defaultFeeAnchorScriptHex
	}
	b, err := hex.DecodeString(feeHex)
	if err != nil {
		return nil, &vpack.VPackError{Code: vpack.ErrEncoding, Msg: "ingest: bad fee_anchor_script hex"}
	}
	return b, nil
}

// jsonSiblingToCompact decodes one {hash, value, script} JSON sibling
// into a Compact vpack.Sibling.
func jsonSiblingToCompact(hashHex string, value uint64, scriptHex string) (vpack.Sibling, error) {
	hashBytes, err := hex.DecodeString(hashHex)
	if err != nil || len(hashBytes) != 32 {
		return vpack.Sibling{}, &vpack.VPackError{Code: vpack.ErrEncoding, Msg: "ingest: sibling hash must be 32 bytes of hex"}
	}
	script, err := decodeHexOrEmpty(scriptHex)
	if err != nil {
		return vpack.Sibling{}, err
	}
	var hash [32]byte
	copy(hash[:], hashBytes)
	return vpack.Sibling{Kind: vpack.SiblingCompact, Hash: hash, Value: value, Script: script}, nil
}
