package vpack

import "hash/crc32"

const (
	headerLen = 24

	flagCompressionLZ4 = 0x01
	flagTestnet        = 0x02
	flagProofCompact   = 0x04
	flagHasAssetID     = 0x08

	VariantPlain    = 0x03
	VariantAnchored = 0x04

	supportedVersion = 1

	minTreeArity  = 2
	maxTreeArity  = 16
	maxTreeDepth  = 32
	maxPayloadLen = 1 << 20 // 1 MiB
)

var magic = [3]byte{'V', 'P', 'K'}

// Header is the 24-byte fixed V-PACK header. All multi-byte fields are
// little-endian.
type Header struct {
	Flags      uint8
	Version    uint8
	TxVariant  uint8
	TreeArity  uint16
	TreeDepth  uint16
	NodeCount  uint16
	AssetType  uint32
	PayloadLen uint32
	Checksum   uint32
}

func (h Header) HasAssetID() bool   { return h.Flags&flagHasAssetID != 0 }
func (h Header) ProofCompact() bool { return h.Flags&flagProofCompact != 0 }
func (h Header) Testnet() bool      { return h.Flags&flagTestnet != 0 }

// HeaderFromBytes parses the first 24 bytes of b as a Header, enforcing
// the version, variant, arity, depth, node-count, and payload-size
// bounds. It does not verify the
// checksum; call VerifyChecksum with the payload for that.
func HeaderFromBytes(b []byte) (Header, error) {
	var h Header
	if len(b) < headerLen {
		return h, vperr(ErrIncompleteData, "header: fewer than 24 bytes")
	}
	if b[0] != magic[0] || b[1] != magic[1] || b[2] != magic[2] {
		return h, vperr(ErrInvalidMagic, "header: bad magic")
	}
	c := newCursor(b[3:headerLen])

	flags, err := c.readU8()
	if err != nil {
		return h, err
	}
	version, err := c.readU8()
	if err != nil {
		return h, err
	}
	if version != supportedVersion {
		return h, vperr(ErrUnsupportedVer, "header: unsupported version")
	}
	variant, err := c.readU8()
	if err != nil {
		return h, err
	}
	if variant != VariantPlain && variant != VariantAnchored {
		return h, vperr(ErrInvalidTxVariant, "header: unknown tx_variant")
	}
	arity, err := c.readU16LE()
	if err != nil {
		return h, err
	}
	depth, err := c.readU16LE()
	if err != nil {
		return h, err
	}
	nodeCount, err := c.readU16LE()
	if err != nil {
		return h, err
	}
	assetType, err := c.readU32LE()
	if err != nil {
		return h, err
	}
	payloadLen, err := c.readU32LE()
	if err != nil {
		return h, err
	}
	checksum, err := c.readU32LE()
	if err != nil {
		return h, err
	}

	h = Header{
		Flags:      flags,
		Version:    version,
		TxVariant:  variant,
		TreeArity:  arity,
		TreeDepth:  depth,
		NodeCount:  nodeCount,
		AssetType:  assetType,
		PayloadLen: payloadLen,
		Checksum:   checksum,
	}

	if arity < minTreeArity || arity > maxTreeArity {
		return h, vperr(ErrInvalidArity, "header: tree_arity out of range")
	}
	if depth > maxTreeDepth {
		return h, vperr(ErrExceededMaxDepth, "header: tree_depth exceeds maximum")
	}
	if uint32(nodeCount) > uint32(depth)*uint32(arity) {
		return h, vperr(ErrNodeCountMismatch, "header: node_count exceeds tree_depth*tree_arity")
	}
	if payloadLen == 0 {
		return h, vperr(ErrEmptyPayload, "header: payload_len is zero")
	}
	if payloadLen > maxPayloadLen {
		return h, vperr(ErrPayloadTooLarge, "header: payload_len exceeds 1 MiB")
	}

	return h, nil
}

// headerPrefixBytes renders bytes 0..20 of the header (everything but
// the checksum), used both when parsing (for checksum verification)
// and when packing (to compute the checksum before the final write).
func (h Header) headerPrefixBytes() []byte {
	b := make([]byte, 0, 20)
	b = append(b, magic[:]...)
	b = append(b, h.Flags, h.Version, h.TxVariant)
	b = appendU16LE(b, h.TreeArity)
	b = appendU16LE(b, h.TreeDepth)
	b = appendU16LE(b, h.NodeCount)
	b = appendU32LE(b, h.AssetType)
	b = appendU32LE(b, h.PayloadLen)
	return b
}

// Bytes renders the full 24-byte header, including the checksum field.
func (h Header) Bytes() []byte {
	b := h.headerPrefixBytes()
	return appendU32LE(b, h.Checksum)
}

// VerifyChecksum recomputes CRC32 over bytes 0..20 of the header
// concatenated with payload and compares it to the stored checksum.
func (h Header) VerifyChecksum(payload []byte) error {
	got := computeChecksum(h, payload)
	if got != h.Checksum {
		return vperrVals(ErrChecksumMismatch, "header: checksum mismatch", uint64(h.Checksum), uint64(got))
	}
	return nil
}

func computeChecksum(h Header, payload []byte) uint32 {
	data := append(h.headerPrefixBytes(), payload...)
	return crc32.ChecksumIEEE(data)
}
