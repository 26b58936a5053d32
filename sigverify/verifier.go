package sigverify

import (
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"vpack.dev/vpack"
)

// Verifier is the default BIP-340/BIP-341 SignatureVerifier, backed by
// btcec/v2's schnorr package. It implements vpack.SignatureVerifier;
// passing a zero-value *Verifier to vpack.VerifyBytes opts a caller
// into signature enforcement on path steps that carry one.
type Verifier struct{}

// New returns a ready-to-use Verifier. There is no state to configure.
func New() *Verifier {
	return &Verifier{}
}

func (*Verifier) VerifyTaprootKeyspend(input vpack.TxIn, outputs []vpack.TxOut, parentAmount uint64, parentScript []byte, pubkeyScript []byte, sig [64]byte) (bool, error) {
	pubkey, ok := extractVerifyKey(pubkeyScript)
	if !ok {
		return false, &vpack.VPackError{Code: vpack.ErrInvalidSignature, Msg: "sigverify: malformed pubkey script"}
	}

	sighashOutputs := make([]sighashOutput, len(outputs))
	for i, o := range outputs {
		sighashOutputs[i] = sighashOutput{Value: o.Value, ScriptPubkey: o.ScriptPubkey}
	}

	msg := taprootSighash(input.PrevTxid, input.PrevVout, input.Sequence, parentAmount, parentScript, sighashOutputs)

	parsedKey, err := schnorr.ParsePubKey(pubkey[:])
	if err != nil {
		return false, &vpack.VPackError{Code: vpack.ErrInvalidSignature, Msg: "sigverify: invalid x-only pubkey"}
	}
	parsedSig, err := schnorr.ParseSignature(sig[:])
	if err != nil {
		return false, &vpack.VPackError{Code: vpack.ErrInvalidSignature, Msg: "sigverify: invalid signature encoding"}
	}

	return parsedSig.Verify(msg[:], parsedKey), nil
}
