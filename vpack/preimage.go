package vpack

// TxIn is one input of a preimage: the outpoint it spends plus the
// nSequence used on that input. No scriptSig is carried; the preimage
// is always for an unsigned (or, in the SegWit form, witness-only) v3
// transaction.
type TxIn struct {
	PrevTxid [32]byte
	PrevVout uint32
	Sequence uint32
}

// TxOut is one output of a preimage.
type TxOut struct {
	Value        uint64
	ScriptPubkey []byte
}

// TxWitness is the witness stack attached to one input in the SegWit
// signed form. A nil or empty Items means "no witness data" (zero
// CompactSize item count).
type TxWitness struct {
	Items [][]byte
}

// Preimage serialises a v3 transaction preimage: version, inputs (with
// empty scriptSig), outputs, locktime, in standard Bitcoin consensus
// encoding. This is the byte sequence consensus engines hash with
// sha256d. No validation is performed; callers are responsible for
// input/output counts and value ranges before calling this.
func Preimage(version uint32, inputs []TxIn, outputs []TxOut, locktime uint32) []byte {
	b := make([]byte, 0, 4+1+len(inputs)*41+1+len(outputs)*16+4)
	b = appendU32LE(b, version)
	b = AppendCompactSize(b, uint64(len(inputs)))
	for _, in := range inputs {
		b = append(b, in.PrevTxid[:]...)
		b = appendU32LE(b, in.PrevVout)
		b = AppendCompactSize(b, 0) // empty scriptSig
		b = appendU32LE(b, in.Sequence)
	}
	b = AppendCompactSize(b, uint64(len(outputs)))
	for _, out := range outputs {
		b = appendU64LE(b, out.Value)
		b = AppendCompactSize(b, uint64(len(out.ScriptPubkey)))
		b = append(b, out.ScriptPubkey...)
	}
	b = appendU32LE(b, locktime)
	return b
}

// SignedPreimage builds the SegWit-signed form: the same version/
// inputs/outputs/locktime prefix, with marker 0x00 and flag 0x01
// inserted immediately after version, followed by one witness section
// per input. witnesses may be shorter than inputs or nil entirely; a
// missing witness for an input is treated as an absent witness (zero
// items).
func SignedPreimage(version uint32, inputs []TxIn, outputs []TxOut, locktime uint32, witnesses []TxWitness) []byte {
	b := make([]byte, 0, 6+len(inputs)*41+len(outputs)*16+4)
	b = appendU32LE(b, version)
	b = append(b, 0x00, 0x01) // marker, flag
	b = AppendCompactSize(b, uint64(len(inputs)))
	for _, in := range inputs {
		b = append(b, in.PrevTxid[:]...)
		b = appendU32LE(b, in.PrevVout)
		b = AppendCompactSize(b, 0)
		b = appendU32LE(b, in.Sequence)
	}
	b = AppendCompactSize(b, uint64(len(outputs)))
	for _, out := range outputs {
		b = appendU64LE(b, out.Value)
		b = AppendCompactSize(b, uint64(len(out.ScriptPubkey)))
		b = append(b, out.ScriptPubkey...)
	}
	for i := range inputs {
		var w TxWitness
		if i < len(witnesses) {
			w = witnesses[i]
		}
		b = AppendCompactSize(b, uint64(len(w.Items)))
		for _, item := range w.Items {
			b = AppendCompactSize(b, uint64(len(item)))
			b = append(b, item...)
		}
	}
	b = appendU32LE(b, locktime)
	return b
}
