package gpt

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrimaryHeaderSignatureAndCRC(t *testing.T) {
	diskGUID := uuid.New()
	partitions := []Partition{{
		TypeGUID:   ISO9660TypeGUID,
		UniqueGUID: uuid.New(),
		FirstLBA:   64,
		LastLBA:    199,
		Name:       "DATA",
	}}

	primary, backup := Build(diskGUID, partitions, 204800)
	require.True(t, len(primary) >= HeaderSize)

	header := primary[:HeaderSize]
	assert.Equal(t, "EFI PART", string(header[0:8]))
	assert.Equal(t, uint32(0x00010000), binary.LittleEndian.Uint32(header[8:12]))
	assert.Equal(t, uint32(HeaderSize), binary.LittleEndian.Uint32(header[12:16]))
	assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(header[24:32]), "primary header LBA")
	assert.Equal(t, uint64(204799), binary.LittleEndian.Uint64(header[32:40]), "backup header LBA")

	storedCRC := binary.LittleEndian.Uint32(header[16:20])
	verify := make([]byte, HeaderSize)
	copy(verify, header)
	binary.LittleEndian.PutUint32(verify[16:20], 0)
	assert.Equal(t, crc32.ChecksumIEEE(verify), storedCRC, "header CRC must validate with the checksum field zeroed")

	require.NotEmpty(t, backup)
}

func TestBuildEntryArrayCRCMatchesBothHeaders(t *testing.T) {
	diskGUID := uuid.New()
	partitions := []Partition{{TypeGUID: ISO9660TypeGUID, UniqueGUID: uuid.New(), FirstLBA: 64, LastLBA: 1000, Name: "X"}}

	primary, backup := Build(diskGUID, partitions, 2048)
	primaryEntriesCRC := binary.LittleEndian.Uint32(primary[:HeaderSize][88:92])

	backupHeader := backup[len(backup)-HeaderSize:]
	backupEntriesCRC := binary.LittleEndian.Uint32(backupHeader[88:92])

	assert.Equal(t, primaryEntriesCRC, backupEntriesCRC, "primary and backup headers must agree on the entry array checksum")

	entries := primary[HeaderSize:]
	assert.Equal(t, primaryEntriesCRC, crc32.ChecksumIEEE(entries))
}

func TestBuildEncodesPartitionFields(t *testing.T) {
	diskGUID := uuid.New()
	unique := uuid.New()
	partitions := []Partition{{TypeGUID: ISO9660TypeGUID, UniqueGUID: unique, FirstLBA: 64, LastLBA: 500, Name: "VOL"}}

	primary, _ := Build(diskGUID, partitions, 4096)
	entry := primary[HeaderSize : HeaderSize+EntrySize]

	assert.Equal(t, uint64(64), binary.LittleEndian.Uint64(entry[32:40]))
	assert.Equal(t, uint64(500), binary.LittleEndian.Uint64(entry[40:48]))

	nameUTF16 := entry[56:128]
	for i, r := range "VOL" {
		assert.Equal(t, byte(r), nameUTF16[i*2])
	}
}
