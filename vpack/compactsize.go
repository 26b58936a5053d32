package vpack

import "encoding/binary"

// CompactSize is a Bitcoin-style VarInt: 1, 3, 5, or 9 bytes depending
// on magnitude. Encoding is always minimal; decoding rejects any
// non-minimal form with ErrEncoding.
type CompactSize uint64

// Encode returns the canonical CompactSize encoding of v.
func (v CompactSize) Encode() []byte {
	return AppendCompactSize(nil, uint64(v))
}

// AppendCompactSize appends n's canonical CompactSize encoding to dst.
func AppendCompactSize(dst []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(dst, byte(n))
	case n <= 0xffff:
		dst = append(dst, 0xfd)
		return appendU16LE(dst, uint16(n))
	case n <= 0xffff_ffff:
		dst = append(dst, 0xfe)
		return appendU32LE(dst, uint32(n))
	default:
		dst = append(dst, 0xff)
		return appendU64LE(dst, n)
	}
}

// DecodeCompactSize decodes one CompactSize value from the front of buf,
// returning the value and the number of bytes consumed. Non-minimal
// encodings (a multi-byte tag whose value fits in a shorter form) are
// rejected, since a V-PACK producer never emits one and an input that
// does is malformed or adversarial.
func DecodeCompactSize(buf []byte) (uint64, int, error) {
	if len(buf) < 1 {
		return 0, 0, vperr(ErrIncompleteData, "compactsize: empty buffer")
	}
	tag := buf[0]
	switch {
	case tag < 0xfd:
		return uint64(tag), 1, nil
	case tag == 0xfd:
		if len(buf) < 3 {
			return 0, 0, vperr(ErrIncompleteData, "compactsize: truncated u16 form")
		}
		v := binary.LittleEndian.Uint16(buf[1:3])
		if v < 0xfd {
			return 0, 0, vperr(ErrEncoding, "compactsize: non-minimal u16 form")
		}
		return uint64(v), 3, nil
	case tag == 0xfe:
		if len(buf) < 5 {
			return 0, 0, vperr(ErrIncompleteData, "compactsize: truncated u32 form")
		}
		v := binary.LittleEndian.Uint32(buf[1:5])
		if v <= 0xffff {
			return 0, 0, vperr(ErrEncoding, "compactsize: non-minimal u32 form")
		}
		return uint64(v), 5, nil
	default: // tag == 0xff
		if len(buf) < 9 {
			return 0, 0, vperr(ErrIncompleteData, "compactsize: truncated u64 form")
		}
		v := binary.LittleEndian.Uint64(buf[1:9])
		if v <= 0xffff_ffff {
			return 0, 0, vperr(ErrEncoding, "compactsize: non-minimal u64 form")
		}
		return v, 9, nil
	}
}

func appendU16LE(dst []byte, v uint16) []byte {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return append(dst, buf[:]...)
}

func appendU32LE(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

func appendU64LE(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}

// appendLenPrefixedBytes appends a u32-LE length followed by b, mirroring
// the reader's readLenPrefixedBytes.
func appendLenPrefixedBytes(dst []byte, b []byte) []byte {
	dst = appendU32LE(dst, uint32(len(b)))
	return append(dst, b...)
}
