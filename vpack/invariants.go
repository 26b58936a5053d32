package vpack

// ValidateInvariants checks the cross-field policy rules that
// only make sense once the full tree has been decoded: fee-anchor
// presence, sequence consistency, and vout/parent_index bounds. It
// runs after ParsePayload and before engine dispatch.
func ValidateInvariants(h Header, tree *VPackTree) error {
	if h.TxVariant == VariantAnchored && len(tree.FeeAnchorScript) > 0 {
		if err := requireFeeAnchor(tree.LeafSiblings, tree.FeeAnchorScript); err != nil {
			return err
		}
		for _, step := range tree.Path {
			if err := requireFeeAnchor(step.Siblings, tree.FeeAnchorScript); err != nil {
				return err
			}
		}
	}

	for _, step := range tree.Path {
		if step.Sequence != tree.Leaf.Sequence {
			return vperr(ErrPolicyMismatch, "invariants: path step sequence does not match leaf sequence")
		}
	}

	if int(tree.Leaf.Vout) >= 1+len(tree.LeafSiblings) {
		return vperr(ErrInvalidVout, "invariants: leaf.vout out of range for leaf_siblings")
	}

	if h.TxVariant == VariantPlain {
		for _, step := range tree.Path {
			if int(step.ParentIndex) >= 1+len(step.Siblings) {
				return vperr(ErrInvalidVout, "invariants: parent_index out of range for step siblings")
			}
		}
	}

	return nil
}

// requireFeeAnchor checks one siblings list: if the list is
// non-empty, it must contain a sibling whose script equals the
// protocol-wide fee anchor script.
func requireFeeAnchor(siblings []Sibling, feeAnchorScript []byte) error {
	if len(siblings) == 0 {
		return nil
	}
	for _, s := range siblings {
		if bytesEqual(s.Script, feeAnchorScript) {
			return nil
		}
	}
	return vperr(ErrPolicyMismatch, "invariants: non-empty siblings list missing fee anchor")
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
