package iso9660

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSingleDirectoryExtentSizeMatchesActualListing(t *testing.T) {
	root := &node{name: "", path: "/", isDir: true, pathTableDirNum: 1, iso9660Sector: 20}

	var children []*node
	for i := 0; i < 80; i++ {
		name := fmt.Sprintf("FILE%03d.TXT;1", i)
		c := &node{
			name: name, path: "/" + name, parent: root, isDir: false,
			iso9660Name: name, iso9660Sector: uint32(21 + i), iso9660Size: 5, fileLength: 5,
		}
		c.actualISO9660DrSize = calculateDirectoryRecordSize(getDRIdentifierBytes(c.iso9660Name, false, false), false, c)
		children = append(children, c)
	}
	root.children = children

	opts := DefaultFormatOptions()
	opts.EnableRockRidge = false

	computedSize := calculateSingleDirectoryExtentSizeBytes(root, false, opts)

	listing, err := createDirectoryListing(root, false, opts)
	require.NoError(t, err)

	assert.Equal(t, computedSize, uint32(len(listing)), "the reserved extent size must match what gets written byte-for-byte")
}

func TestDirsInDepthFirstOrderPlacesParentBeforeChildren(t *testing.T) {
	root := &node{name: "", path: "/", isDir: true, pathTableDirNum: 1}
	a := &node{name: "a", path: "/a", isDir: true, parent: root}
	b := &node{name: "b", path: "/b", isDir: true, parent: root}
	aChild := &node{name: "sub", path: "/a/sub", isDir: true, parent: a}
	root.children = []*node{b, a} // deliberately out of name order
	a.children = []*node{aChild}

	order := dirsInDepthFirstOrder(root)
	require.Len(t, order, 4)
	assert.Same(t, root, order[0])
	assert.Same(t, a, order[1], "children are visited in sorted-name order, so 'a' precedes 'b'")
	assert.Same(t, aChild, order[2], "a directory's subtree is fully visited before its sibling")
	assert.Same(t, b, order[3])
}
