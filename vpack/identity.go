package vpack

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// String renders an Identity in its display form: reversed-byte hex,
// with OutPoint appending ":<vout>". This matches Bitcoin's convention
// of displaying txids in reverse internal byte order.
func (id Identity) String() string {
	switch id.Kind {
	case IdentityRaw:
		return hex.EncodeToString(reversed(id.Raw[:]))
	case IdentityOutPoint:
		return hex.EncodeToString(reversed(id.OutPoint.Txid[:])) + ":" + strconv.FormatUint(uint64(id.OutPoint.Vout), 10)
	default:
		return ""
	}
}

// ParseIdentity parses an Identity's display form back into its
// internal byte order. A string containing ':' is parsed as an
// OutPoint (64 hex chars, then a decimal vout); otherwise it is parsed
// as a bare 64-char hex Raw identity.
func ParseIdentity(s string) (Identity, error) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		txidHex, voutStr := s[:i], s[i+1:]
		txid, err := decodeReversedHex32(txidHex)
		if err != nil {
			return Identity{}, vperr(ErrInvalidVtxoIDFmt, "identity: malformed outpoint txid")
		}
		vout, err := strconv.ParseUint(voutStr, 10, 32)
		if err != nil {
			return Identity{}, vperr(ErrInvalidVtxoIDFmt, "identity: malformed outpoint vout")
		}
		return OutPointIdentity(txid, uint32(vout)), nil
	}

	raw, err := decodeReversedHex32(s)
	if err != nil {
		return Identity{}, vperr(ErrInvalidVtxoIDFmt, "identity: malformed raw identity")
	}
	return RawIdentity(raw), nil
}

func decodeReversedHex32(s string) ([32]byte, error) {
	var out [32]byte
	if len(s) != 64 {
		return out, vperr(ErrInvalidVtxoIDFmt, "identity: expected 64 hex chars")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, vperr(ErrInvalidVtxoIDFmt, "identity: non-hex digits")
	}
	copy(out[:], reversed(b))
	return out, nil
}

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
