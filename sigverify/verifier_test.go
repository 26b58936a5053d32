package sigverify

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"vpack.dev/vpack"
)

func genKeypair(t *testing.T) (*btcec.PrivateKey, [32]byte) {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	var xonly [32]byte
	copy(xonly[:], schnorr.SerializePubKey(priv.PubKey()))
	return priv, xonly
}

func signSighash(t *testing.T, priv *btcec.PrivateKey, msg [32]byte) [64]byte {
	t.Helper()
	sig, err := schnorr.Sign(priv, msg[:])
	if err != nil {
		t.Fatalf("schnorr.Sign: %v", err)
	}
	var out [64]byte
	copy(out[:], sig.Serialize())
	return out
}

func TestVerifyTaprootKeyspendAccepts(t *testing.T) {
	priv, xonly := genKeypair(t)

	input := vpack.TxIn{PrevTxid: [32]byte{1, 2, 3}, PrevVout: 0, Sequence: 0xFFFFFFFF}
	outputs := []vpack.TxOut{{Value: 1000, ScriptPubkey: []byte{0x51, 0x20}}}
	parentAmount := uint64(1100)
	parentScript := append([]byte{0x51, 0x20}, xonly[:]...)

	msg := taprootSighash(input.PrevTxid, input.PrevVout, input.Sequence, parentAmount, parentScript,
		[]sighashOutput{{Value: outputs[0].Value, ScriptPubkey: outputs[0].ScriptPubkey}})
	sig := signSighash(t, priv, msg)

	v := New()
	ok, err := v.VerifyTaprootKeyspend(input, outputs, parentAmount, parentScript, parentScript, sig)
	if err != nil {
		t.Fatalf("VerifyTaprootKeyspend: %v", err)
	}
	if !ok {
		t.Fatal("expected signature to verify")
	}
}

func TestVerifyTaprootKeyspendRejectsTamperedOutput(t *testing.T) {
	priv, xonly := genKeypair(t)

	input := vpack.TxIn{PrevTxid: [32]byte{1, 2, 3}, PrevVout: 0, Sequence: 0xFFFFFFFF}
	parentAmount := uint64(1100)
	parentScript := append([]byte{0x51, 0x20}, xonly[:]...)

	msg := taprootSighash(input.PrevTxid, input.PrevVout, input.Sequence, parentAmount, parentScript,
		[]sighashOutput{{Value: 1000, ScriptPubkey: []byte{0x51, 0x20}}})
	sig := signSighash(t, priv, msg)

	tamperedOutputs := []vpack.TxOut{{Value: 999, ScriptPubkey: []byte{0x51, 0x20}}}
	v := New()
	ok, err := v.VerifyTaprootKeyspend(input, tamperedOutputs, parentAmount, parentScript, parentScript, sig)
	if err != nil {
		t.Fatalf("VerifyTaprootKeyspend: %v", err)
	}
	if ok {
		t.Fatal("expected a tampered output value to invalidate the signature")
	}
}

func TestVerifyTaprootKeyspendRejectsWrongKey(t *testing.T) {
	priv, _ := genKeypair(t)
	_, otherXonly := genKeypair(t)

	input := vpack.TxIn{PrevTxid: [32]byte{4, 5, 6}, PrevVout: 1, Sequence: 0}
	outputs := []vpack.TxOut{{Value: 500, ScriptPubkey: []byte{0x51, 0x20}}}
	parentAmount := uint64(600)
	signerScript := append([]byte{0x51, 0x20}, otherXonly[:]...)

	msg := taprootSighash(input.PrevTxid, input.PrevVout, input.Sequence, parentAmount, signerScript,
		[]sighashOutput{{Value: outputs[0].Value, ScriptPubkey: outputs[0].ScriptPubkey}})
	sig := signSighash(t, priv, msg) // signed with priv, but parentScript below commits to otherXonly

	v := New()
	ok, err := v.VerifyTaprootKeyspend(input, outputs, parentAmount, signerScript, signerScript, sig)
	if err != nil {
		t.Fatalf("VerifyTaprootKeyspend: %v", err)
	}
	if ok {
		t.Fatal("expected verification against the wrong committed key to fail")
	}
}

func TestVerifyTaprootKeyspendRejectsMalformedPubkeyScript(t *testing.T) {
	v := New()
	input := vpack.TxIn{}
	var sig [64]byte
	_, err := v.VerifyTaprootKeyspend(input, nil, 0, nil, []byte{0x01, 0x02}, sig)
	ve, ok := err.(*vpack.VPackError)
	if !ok {
		t.Fatalf("expected *vpack.VPackError, got %T", err)
	}
	if ve.Code != vpack.ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %s", ve.Code)
	}
}

func TestVerifyTaprootKeyspendRejectsAllZeroSignature(t *testing.T) {
	_, xonly := genKeypair(t)
	parentScript := append([]byte{0x51, 0x20}, xonly[:]...)

	v := New()
	var badSig [64]byte // well-formed length but not a valid signature over this message
	ok, err := v.VerifyTaprootKeyspend(vpack.TxIn{}, nil, 0, parentScript, parentScript, badSig)
	if err != nil {
		t.Fatalf("VerifyTaprootKeyspend: %v", err)
	}
	if ok {
		t.Fatal("expected an all-zero signature to fail verification")
	}
}
