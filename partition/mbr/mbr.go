// Package mbr writes a minimal legacy Master Boot Record partition table: the
// 440-byte bootstrap area is left zeroed, one partition entry spans the payload, and
// the 0x55 0xAA boot signature closes the 512-byte sector.
package mbr

import "encoding/binary"

const (
	SectorSize = 512

	// TypeISO9660 is the legacy (non-protective) partition type byte used when no GPT
	// is also present.
	TypeISO9660 byte = 0x96
	// TypeGPTProtective marks the single partition entry of a protective MBR that
	// precedes a GPT header, so MBR-only tooling does not treat the disk as unpartitioned.
	TypeGPTProtective byte = 0xEE
)

// Entry is one 16-byte MBR partition table entry.
type Entry struct {
	Bootable    bool
	Type        byte
	StartLBA    uint32
	SectorCount uint32
}

// Table renders a 512-byte MBR sector containing exactly one partition entry spanning
// the whole addressable range, plus the boot signature.
func Table(entry Entry) []byte {
	buf := make([]byte, SectorSize)
	const entryOff = 446

	if entry.Bootable {
		buf[entryOff] = 0x80
	}
	// CHS fields are unused by any modern consumer; ECMA-119/El Torito readers rely on
	// the LBA fields only, so they are left at their conventional filler values.
	buf[entryOff+1] = 0x00
	buf[entryOff+2] = 0x02
	buf[entryOff+3] = 0x00
	buf[entryOff+4] = entry.Type
	buf[entryOff+5] = 0xFF
	buf[entryOff+6] = 0xFF
	buf[entryOff+7] = 0xFF
	binary.LittleEndian.PutUint32(buf[entryOff+8:entryOff+12], entry.StartLBA)
	binary.LittleEndian.PutUint32(buf[entryOff+12:entryOff+16], entry.SectorCount)

	buf[510] = 0x55
	buf[511] = 0xAA
	return buf
}
