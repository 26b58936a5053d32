// Package sigverify provides the optional BIP-340/BIP-341 signature
// capability consensus engines in vpack consult when a path step
// carries a signature. The core vpack package never imports this
// package directly; it only depends on the narrow vpack.SignatureVerifier
// interface, so a caller who has no use for signatures never pulls in
// a secp256k1 dependency.
package sigverify

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var tapSighashTag = []byte("TapSighash")

var p2trScriptPrefix = []byte{0x51, 0x20}

// extractVerifyKey returns the 32-byte x-only public key a script
// commits to: the last 32 bytes of a 34-byte P2TR script (0x51 0x20 +
// key), or the script itself if it is already a bare 32-byte key.
func extractVerifyKey(script []byte) ([32]byte, bool) {
	var key [32]byte
	switch {
	case len(script) == 34 && script[0] == p2trScriptPrefix[0] && script[1] == p2trScriptPrefix[1]:
		copy(key[:], script[2:34])
		return key, true
	case len(script) == 32:
		copy(key[:], script)
		return key, true
	default:
		return key, false
	}
}

// taprootSighash computes the BIP-341 key-path sighash (SIGHASH_DEFAULT)
// for a single-input, locktime-0 v3 transaction: the spent input's
// outpoint and sequence, the parent (spent) output's amount and script,
// and the spending transaction's outputs.
func taprootSighash(prevTxid [32]byte, prevVout, sequence uint32, parentAmount uint64, parentScript []byte, outputs []sighashOutput) [32]byte {
	const version, locktime uint32 = 3, 0
	sigMsg := make([]byte, 0, 256)

	sigMsg = append(sigMsg, 0x00) // hash_type SIGHASH_DEFAULT

	var verBuf, ltBuf [4]byte
	binary.LittleEndian.PutUint32(verBuf[:], version)
	binary.LittleEndian.PutUint32(ltBuf[:], locktime)
	sigMsg = append(sigMsg, verBuf[:]...)
	sigMsg = append(sigMsg, ltBuf[:]...)

	prevoutBytes := make([]byte, 0, 36)
	prevoutBytes = append(prevoutBytes, prevTxid[:]...)
	var voutBuf [4]byte
	binary.LittleEndian.PutUint32(voutBuf[:], prevVout)
	prevoutBytes = append(prevoutBytes, voutBuf[:]...)
	shaPrevouts := chainhash.HashB(prevoutBytes)
	sigMsg = append(sigMsg, shaPrevouts[:]...)

	var amountBuf [8]byte
	binary.LittleEndian.PutUint64(amountBuf[:], parentAmount)
	shaAmounts := chainhash.HashB(amountBuf[:])
	sigMsg = append(sigMsg, shaAmounts[:]...)

	scriptSer := serializeScriptForTxOut(parentScript)
	shaScriptpubkeys := chainhash.HashB(scriptSer)
	sigMsg = append(sigMsg, shaScriptpubkeys[:]...)

	var seqBuf [4]byte
	binary.LittleEndian.PutUint32(seqBuf[:], sequence)
	shaSequences := chainhash.HashB(seqBuf[:])
	sigMsg = append(sigMsg, shaSequences[:]...)

	outputsSer := make([]byte, 0, len(outputs)*16)
	for _, o := range outputs {
		outputsSer = append(outputsSer, serializeOutput(o.Value, o.ScriptPubkey)...)
	}
	shaOutputs := chainhash.HashB(outputsSer)
	sigMsg = append(sigMsg, shaOutputs[:]...)

	sigMsg = append(sigMsg, 0x00)             // spend_type: no annex
	sigMsg = append(sigMsg, 0, 0, 0, 0)       // input_index: always 0

	payload := make([]byte, 0, 1+len(sigMsg))
	payload = append(payload, 0x00)
	payload = append(payload, sigMsg...)

	return taggedHash(tapSighashTag, payload)
}

type sighashOutput struct {
	Value        uint64
	ScriptPubkey []byte
}

func taggedHash(tag, payload []byte) [32]byte {
	tagHash := chainhash.HashB(tag)
	inner := make([]byte, 0, 64+len(payload))
	inner = append(inner, tagHash...)
	inner = append(inner, tagHash...)
	inner = append(inner, payload...)
	return chainhash.HashH(inner)
}

func appendCompactSize(dst []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(dst, byte(n))
	case n <= 0xffff:
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(n))
		return append(append(dst, 0xfd), b[:]...)
	case n <= 0xffff_ffff:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(n))
		return append(append(dst, 0xfe), b[:]...)
	default:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], n)
		return append(append(dst, 0xff), b[:]...)
	}
}

func serializeScriptForTxOut(script []byte) []byte {
	out := make([]byte, 0, 1+len(script))
	out = appendCompactSize(out, uint64(len(script)))
	return append(out, script...)
}

func serializeOutput(value uint64, script []byte) []byte {
	out := make([]byte, 0, 8+1+len(script))
	var valBuf [8]byte
	binary.LittleEndian.PutUint64(valBuf[:], value)
	out = append(out, valBuf[:]...)
	out = appendCompactSize(out, uint64(len(script)))
	return append(out, script...)
}
