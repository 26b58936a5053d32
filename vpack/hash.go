package vpack

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// sha256d is Bitcoin's double-SHA256, used throughout consensus engines
// to derive a transaction's txid from its preimage bytes.
func sha256d(b []byte) [32]byte {
	return chainhash.DoubleHashH(b)
}
