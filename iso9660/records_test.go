package iso9660

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalParseDirectoryRecordRoundTrip(t *testing.T) {
	n := &node{
		name:        "FILE.TXT",
		iso9660Name: "FILE.TXT;1",
		isDir:       false,
		modTime:     time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		mode:        0o100644,
	}
	opts := DefaultFormatOptions()

	drBytes, err := createDirectoryRecordBytes(500, 2048, n.iso9660Name, n, false, opts, true)
	require.NoError(t, err)

	fields, identifier, _, recLen, err := parseDirectoryRecord(drBytes)
	require.NoError(t, err)
	assert.Equal(t, len(drBytes), recLen)
	assert.Equal(t, uint32(500), uint32(fields.LocationExtent))
	assert.Equal(t, uint32(2048), uint32(fields.DataLength))
	assert.Equal(t, "FILE.TXT;1", string(identifier))
}

func TestCreateDirectoryListingOrdersSelfParentThenChildren(t *testing.T) {
	root := &node{name: "", path: "/", isDir: true, pathTableDirNum: 1, iso9660Sector: 20, iso9660Size: SectorSize}
	child := &node{name: "a.txt", path: "/a.txt", parent: root, isDir: false, iso9660Name: "A.TXT;1", iso9660Sector: 21, iso9660Size: 10, fileLength: 10}
	root.children = []*node{child}

	opts := DefaultFormatOptions()
	opts.EnableRockRidge = false
	listing, err := createDirectoryListing(root, false, opts)
	require.NoError(t, err)

	_, id1, _, len1, err := parseDirectoryRecord(listing)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, id1, "first record is the self entry")

	_, id2, _, len2, err := parseDirectoryRecord(listing[len1:])
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, id2, "second record is the parent entry")

	_, id3, _, _, err := parseDirectoryRecord(listing[len1+len2:])
	require.NoError(t, err)
	assert.Equal(t, "A.TXT;1", string(id3))
}

func TestCreateDirectoryListingNeverStraddlesSectorBoundary(t *testing.T) {
	root := &node{name: "", path: "/", isDir: true, pathTableDirNum: 1, iso9660Sector: 20}

	var children []*node
	for i := 0; i < 80; i++ {
		name := fmt.Sprintf("FILE%03d.TXT;1", i)
		children = append(children, &node{
			name: name, path: "/" + name, parent: root, isDir: false,
			iso9660Name: name, iso9660Sector: uint32(21 + i), iso9660Size: 5, fileLength: 5,
		})
	}
	root.children = children

	opts := DefaultFormatOptions()
	opts.EnableRockRidge = false
	listing, err := createDirectoryListing(root, false, opts)
	require.NoError(t, err)
	require.Zero(t, len(listing)%SectorSize, "extent must be a whole number of sectors")

	recordCount := 0
	for off := 0; off < len(listing); {
		if listing[off] == 0 {
			off = alignToSector(off + 1)
			continue
		}
		recLen := int(listing[off])
		require.Equal(t, off/SectorSize, (off+recLen-1)/SectorSize, "record at offset %d straddles a sector boundary", off)
		off += recLen
		recordCount++
	}
	assert.Equal(t, 2+len(children), recordCount, "self, parent, and every child must all be present")
}

func TestDirectoryRecordRejectsOversizeIdentifier(t *testing.T) {
	var fields directoryRecordFields
	hugeIdentifier := make([]byte, 300)
	_, err := marshalDirectoryRecord(&fields, hugeIdentifier, nil)
	assert.Error(t, err)
}
