package iso9660

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSimpleTreeForPathTable() *node {
	root := &node{name: "", path: "/", isDir: true, pathTableDirNum: 1, iso9660Sector: 20}
	sub := &node{name: "sub", path: "/sub", isDir: true, parent: root, pathTableDirNum: 2, iso9660Sector: 30, iso9660Name: "SUB"}
	root.children = []*node{sub}
	return root
}

func TestCreatePathTableOrdersByBFSNumber(t *testing.T) {
	root := buildSimpleTreeForPathTable()
	lTable := createPathTable(root, false, false)

	require.Equal(t, calculatePathTableTotalBytes(root, false), len(lTable))

	rootIDLen := int(lTable[0])
	assert.Equal(t, 1, rootIDLen, "root's path table identifier is a single zero byte")

	rootRecLen := ptRecFixedPartSize + rootIDLen
	if rootRecLen%2 != 0 {
		rootRecLen++
	}
	subRecord := lTable[rootRecLen:]
	subIDLen := int(subRecord[0])
	assert.Equal(t, "SUB", string(subRecord[8:8+subIDLen]))
}

func TestMarshalPathTableRecordEndianness(t *testing.T) {
	fields := &pathTableRecordFields{LocationOfExtent: 0x01020304, ParentDirectoryNumber: 1}
	le := marshalPathTableRecord(fields, []byte{0x00}, false)
	be := marshalPathTableRecord(fields, []byte{0x00}, true)

	assert.Equal(t, byte(0x04), le[2], "LE location starts with the low byte")
	assert.Equal(t, byte(0x01), be[2], "BE location starts with the high byte")
}

func TestPathTableIdentifierRootIsZeroByte(t *testing.T) {
	root := buildSimpleTreeForPathTable()
	assert.Equal(t, []byte{0x00}, pathTableIdentifier(root, false))
}
