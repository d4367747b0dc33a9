package mbr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSignatureAndEntry(t *testing.T) {
	buf := Table(Entry{
		Bootable:    false,
		Type:        TypeISO9660,
		StartLBA:    1,
		SectorCount: 204799,
	})
	require.Len(t, buf, SectorSize)

	assert.Equal(t, byte(0x55), buf[510])
	assert.Equal(t, byte(0xAA), buf[511])
	assert.Equal(t, TypeISO9660, buf[446+4], "partition type byte")
	assert.Equal(t, uint32(1), leUint32(buf[446+8:446+12]), "start LBA")
	assert.Equal(t, uint32(204799), leUint32(buf[446+12:446+16]), "sector count")
}

func TestTableBootableFlag(t *testing.T) {
	buf := Table(Entry{Bootable: true, Type: TypeGPTProtective, StartLBA: 1, SectorCount: 1})
	assert.Equal(t, byte(0x80), buf[446], "bootable flag byte")

	bufNonBootable := Table(Entry{Bootable: false, Type: TypeGPTProtective, StartLBA: 1, SectorCount: 1})
	assert.Equal(t, byte(0x00), bufNonBootable[446])
}

func TestTableBootstrapAreaLeftZero(t *testing.T) {
	buf := Table(Entry{Type: TypeISO9660, StartLBA: 1, SectorCount: 10})
	for i := 0; i < 440; i++ {
		if buf[i] != 0 {
			t.Fatalf("bootstrap byte %d expected zero, got 0x%02x", i, buf[i])
		}
	}
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
