// Package gpt writes a minimal GUID Partition Table: a primary header and partition
// entry array near the start of the disk, and a backup copy of both at the end, as
// required by the UEFI specification for a disk to be recognized as GPT-partitioned.
package gpt

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/google/uuid"
)

const (
	SectorSize      = 512
	HeaderSize      = 92
	EntrySize       = 128
	EntryCount      = 128
	signature       = "EFI PART"
	revision        = 0x00010000
)

// Partition is one partition entry: a type GUID, a unique GUID, and its LBA range.
type Partition struct {
	TypeGUID   uuid.UUID
	UniqueGUID uuid.UUID
	FirstLBA   uint64
	LastLBA    uint64
	Name       string
}

// ISO9660TypeGUID is the partition type GUID conventionally used for a read-only
// ISO9660 data partition exposed through a GPT hybrid header.
var ISO9660TypeGUID = uuid.MustParse("0FC63DAF-8483-4772-8E79-3D69D8477DE4")

// Build renders the primary header+entries (at LBA 1) and the backup entries+header
// (at the last two regions of the disk), given the disk's total sector count.
func Build(diskGUID uuid.UUID, partitions []Partition, totalSectors uint64) (primary, backup []byte) {
	entryArraySectors := uint64((EntryCount*EntrySize + SectorSize - 1) / SectorSize)

	entries := make([]byte, EntryCount*EntrySize)
	for i, p := range partitions {
		if i >= EntryCount {
			break
		}
		off := i * EntrySize
		putGUID(entries[off:off+16], p.TypeGUID)
		putGUID(entries[off+16:off+32], p.UniqueGUID)
		binary.LittleEndian.PutUint64(entries[off+32:off+40], p.FirstLBA)
		binary.LittleEndian.PutUint64(entries[off+40:off+48], p.LastLBA)
		copy(entries[off+56:off+128], utf16le(p.Name))
	}
	entriesCRC := crc32.ChecksumIEEE(entries)

	primaryEntriesLBA := uint64(2)
	backupEntriesLBA := totalSectors - 1 - entryArraySectors
	primaryHeaderLBA := uint64(1)
	backupHeaderLBA := totalSectors - 1

	primaryHeader := buildHeader(diskGUID, primaryHeaderLBA, backupHeaderLBA, primaryEntriesLBA, entriesCRC, totalSectors)
	backupHeader := buildHeader(diskGUID, backupHeaderLBA, primaryHeaderLBA, backupEntriesLBA, entriesCRC, totalSectors)

	primary = append(append([]byte{}, primaryHeader...), entries...)
	backup = append(append([]byte{}, entries...), backupHeader...)
	return
}

func buildHeader(diskGUID uuid.UUID, myLBA, altLBA, entriesLBA uint64, entriesCRC uint32, totalSectors uint64) []byte {
	h := make([]byte, HeaderSize)
	copy(h[0:8], signature)
	binary.LittleEndian.PutUint32(h[8:12], revision)
	binary.LittleEndian.PutUint32(h[12:16], HeaderSize)
	binary.LittleEndian.PutUint64(h[24:32], myLBA)
	binary.LittleEndian.PutUint64(h[32:40], altLBA)
	// first-usable-LBA is pushed past the ECMA-119 system area (LBAs 0..15, 512-byte
	// sectors 0..63) so the GPT and ISO9660 partitioning schemes never overlap.
	binary.LittleEndian.PutUint64(h[40:48], 64)
	binary.LittleEndian.PutUint64(h[48:56], totalSectors-1-uint64((EntryCount*EntrySize+SectorSize-1)/SectorSize)-1)
	putGUID(h[56:72], diskGUID)
	binary.LittleEndian.PutUint64(h[72:80], entriesLBA)
	binary.LittleEndian.PutUint32(h[80:84], EntryCount)
	binary.LittleEndian.PutUint32(h[84:88], EntrySize)
	binary.LittleEndian.PutUint32(h[88:92], entriesCRC)

	crc := crc32.ChecksumIEEE(h)
	binary.LittleEndian.PutUint32(h[16:20], crc)
	return h
}

func putGUID(dst []byte, id uuid.UUID) {
	b := id[:]
	binary.LittleEndian.PutUint32(dst[0:4], binary.BigEndian.Uint32(b[0:4]))
	binary.LittleEndian.PutUint16(dst[4:6], binary.BigEndian.Uint16(b[4:6]))
	binary.LittleEndian.PutUint16(dst[6:8], binary.BigEndian.Uint16(b[6:8]))
	copy(dst[8:16], b[8:16])
}

func utf16le(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		out = append(out, byte(r), byte(r>>8))
	}
	return out
}
