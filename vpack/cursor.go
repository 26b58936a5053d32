package vpack

import "encoding/binary"

// cursor is a bounded, explicit-position reader over a borrowed byte
// slice. Every read is length-checked before the position advances;
// nothing here ever trusts a caller-declared length past the bytes
// actually available. All failures are *VPackError so callers can
// switch on ErrorCode.
type cursor struct {
	b   []byte
	pos int
}

func newCursor(b []byte) *cursor {
	return &cursor{b: b, pos: 0}
}

func (c *cursor) remaining() int {
	if c.pos >= len(c.b) {
		return 0
	}
	return len(c.b) - c.pos
}

func (c *cursor) atEnd() bool {
	return c.pos == len(c.b)
}

func (c *cursor) readExact(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, vperr(ErrIncompleteData, "truncated read")
	}
	start := c.pos
	c.pos += n
	return c.b[start:c.pos], nil
}

func (c *cursor) readU8() (uint8, error) {
	b, err := c.readExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) readU16LE() (uint16, error) {
	b, err := c.readExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) readU32LE() (uint32, error) {
	b, err := c.readExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) readU64LE() (uint64, error) {
	b, err := c.readExact(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// readLenPrefixedBytes reads a u32-LE length followed by that many bytes,
// as used throughout the V-PACK payload for script/byte-string fields.
func (c *cursor) readLenPrefixedBytes(maxLen uint32) ([]byte, error) {
	n, err := c.readU32LE()
	if err != nil {
		return nil, err
	}
	if n > maxLen {
		return nil, vperr(ErrEncoding, "length-prefixed field exceeds bound")
	}
	return c.readExact(int(n))
}

func (c *cursor) readCompactSize() (uint64, error) {
	v, used, err := DecodeCompactSize(c.b[c.pos:])
	if err != nil {
		return 0, err
	}
	c.pos += used
	return v, nil
}
