package iso9660

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildValidationEntryChecksumsToZero(t *testing.T) {
	buf := buildValidationEntry(PlatformX80X86, "HADRIS")
	require.Len(t, buf, 32)

	var sum uint16
	for i := 0; i < 32; i += 2 {
		sum += binary.LittleEndian.Uint16(buf[i : i+2])
	}
	assert.Equal(t, uint16(0), sum, "all sixteen 16-bit words of a validation entry must sum to zero mod 2^16")
}

func TestBuildValidationEntryCarriesKeyBytes(t *testing.T) {
	buf := buildValidationEntry(PlatformX80X86, "")
	assert.Equal(t, byte(bootIndicatorHeader), buf[0])
	assert.Equal(t, byte(bootValidationKeyLo), buf[30])
	assert.Equal(t, byte(bootValidationKeyHi), buf[31])
}

func TestFindNodeByPathResolvesNestedFile(t *testing.T) {
	root := &node{name: "", path: "/", isDir: true, pathTableDirNum: 1}
	boot := &node{name: "boot", path: "/boot", isDir: true, parent: root}
	img := &node{name: "image.bin", path: "/boot/image.bin", parent: boot, fileLength: 1024}
	root.children = []*node{boot}
	boot.children = []*node{img}

	got, err := findNodeByPath(root, "/boot/image.bin")
	require.NoError(t, err)
	assert.Same(t, img, got)
}

func TestFindNodeByPathMissingReturnsBootCatalogError(t *testing.T) {
	root := &node{name: "", path: "/", isDir: true, pathTableDirNum: 1}
	_, err := findNodeByPath(root, "/nope.bin")
	require.Error(t, err)
	var isoErr *Error
	require.ErrorAs(t, err, &isoErr)
	assert.Equal(t, KindBootCatalogError, isoErr.Kind)
}

func TestPatchBootInfoTableWritesLBAsAndChecksum(t *testing.T) {
	data := make([]byte, 2048)
	for i := range data {
		data[i] = byte(i)
	}
	patchBootInfoTable(data, SystemAreaNumSectors, 42, uint64(len(data)))

	assert.Equal(t, uint32(SystemAreaNumSectors), binary.LittleEndian.Uint32(data[8:12]))
	assert.Equal(t, uint32(42), binary.LittleEndian.Uint32(data[12:16]))
	assert.Equal(t, uint32(len(data)), binary.LittleEndian.Uint32(data[16:20]))

	var sum uint32
	for i := 64; i+4 <= len(data); i += 4 {
		sum += binary.LittleEndian.Uint32(data[i : i+4])
	}
	assert.Equal(t, sum, binary.LittleEndian.Uint32(data[20:24]))
}

func TestPatchGrub2BootInfoWritesOffset2548(t *testing.T) {
	data := make([]byte, 4096)
	patchGrub2BootInfo(data, 777)
	assert.Equal(t, uint32(777), binary.LittleEndian.Uint32(data[2548:2552]))
}
