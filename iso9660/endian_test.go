package iso9660

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBothEndianUint16RoundTrip(t *testing.T) {
	v := BothEndianUint16(0xBEEF)
	got, agree := ParseBothEndianUint16(v.Bytes())
	assert.True(t, agree)
	assert.Equal(t, v, got)
}

func TestBothEndianUint32RoundTrip(t *testing.T) {
	v := BothEndianUint32(0xDEADBEEF)
	got, agree := ParseBothEndianUint32(v.Bytes())
	assert.True(t, agree)
	assert.Equal(t, v, got)
}

func TestParseBothEndianUint32DetectsDisagreement(t *testing.T) {
	buf := BothEndianUint32(12345).Bytes()
	// corrupt the big-endian half only
	buf[4] ^= 0xFF
	_, agree := ParseBothEndianUint32(buf)
	assert.False(t, agree)
}

func TestSectorsToContainBytes(t *testing.T) {
	assert.Equal(t, uint32(0), sectorsToContainBytes(0))
	assert.Equal(t, uint32(1), sectorsToContainBytes(1))
	assert.Equal(t, uint32(1), sectorsToContainBytes(SectorSize))
	assert.Equal(t, uint32(2), sectorsToContainBytes(SectorSize+1))
}

func TestSectorsToContainFileBytes(t *testing.T) {
	assert.Equal(t, uint32(1), sectorsToContainFileBytes(0), "an empty file still consumes one data sector")
	assert.Equal(t, uint32(1), sectorsToContainFileBytes(SectorSize))
	assert.Equal(t, uint32(2), sectorsToContainFileBytes(SectorSize+1))
}
