package iso9660

import "encoding/binary"

// BothEndianUint16 models a "both-byte-order" 16-bit field: the standard requires the
// same logical integer to be stored twice, once little-endian and once big-endian
// immediately after. Modeling it as a single value instead of two independent fields
// keeps the two halves from drifting apart (spec design note: dual-endian fields are a
// property of the data, not of the writer).
type BothEndianUint16 uint16

// Put writes the little-endian half followed by the big-endian half into buf, which
// must be at least 4 bytes long.
func (v BothEndianUint16) Put(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:2], uint16(v))
	binary.BigEndian.PutUint16(buf[2:4], uint16(v))
}

// Bytes returns the 4-byte both-byte-order encoding.
func (v BothEndianUint16) Bytes() []byte {
	buf := make([]byte, 4)
	v.Put(buf)
	return buf
}

// ParseBothEndianUint16 decodes a both-byte-order field from buf (at least 4 bytes) and
// reports whether the little- and big-endian halves agree.
func ParseBothEndianUint16(buf []byte) (BothEndianUint16, bool) {
	lo := binary.LittleEndian.Uint16(buf[0:2])
	hi := binary.BigEndian.Uint16(buf[2:4])
	return BothEndianUint16(lo), lo == hi
}

// BothEndianUint32 is the 32-bit analogue of BothEndianUint16.
type BothEndianUint32 uint32

func (v BothEndianUint32) Put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(v))
	binary.BigEndian.PutUint32(buf[4:8], uint32(v))
}

func (v BothEndianUint32) Bytes() []byte {
	buf := make([]byte, 8)
	v.Put(buf)
	return buf
}

func ParseBothEndianUint32(buf []byte) (BothEndianUint32, bool) {
	lo := binary.LittleEndian.Uint32(buf[0:4])
	hi := binary.BigEndian.Uint32(buf[4:8])
	return BothEndianUint32(lo), lo == hi
}

// sectorsToContainBytes calculates the number of sectors needed to hold byteSize data.
// Returns 0 if byteSize is 0.
func sectorsToContainBytes(byteSize int) uint32 {
	if byteSize == 0 {
		return 0
	}
	return (uint32(byteSize) + SectorSize - 1) / SectorSize
}

// sectorsToContainFileBytes calculates sectors needed for file data. Even an empty
// file's extent descriptor points to an LBA, conventionally consuming 1 sector on disk
// for its (empty) data extent, though the data length in its DR would be 0.
func sectorsToContainFileBytes(fileDataSizeBytes uint64) uint32 {
	if fileDataSizeBytes == 0 {
		return 1
	}
	return uint32((fileDataSizeBytes + SectorSize - 1) / SectorSize)
}

func alignToSector(size int) int {
	return (size + SectorSize - 1) &^ (SectorSize - 1)
}
