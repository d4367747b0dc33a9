package iso9660

import (
	"sort"
	"strings"
	"time"
)

// node is the in-memory directory tree model. The root node has pathTableDirNum == 1
// and a nil parent; its ".." record and path-table parent number refer to itself.
type node struct {
	name string // canonical (original, pre-mangle) name component; root is ""
	path string // "/"-separated path from the image root, "/" for root itself

	isDir    bool
	parent   *node
	children []*node

	source  FileSource
	length  uint64
	modTime time.Time
	mode    uint32
	uid     uint32
	gid     uint32
	hidden  bool
	symlink string

	deviceMajor uint32 // Rock Ridge PN, only meaningful when mode marks a device node
	deviceMinor uint32

	// assigned by the mangler (layout.go calls into mangle.go)
	iso9660Name string
	jolietName  string

	// assigned by the layout planner
	iso9660Sector uint32
	jolietSector  uint32
	iso9660Size   uint32 // directories: extent size in bytes; files: data length (low 32 bits)
	jolietSize    uint32
	fileLength    uint64 // files: exact length, may exceed iso9660Size for multi-extent files
	multiExtent   bool

	actualISO9660DrSize int
	actualJolietDrSize  int

	pathTableDirNum uint16 // BFS numbering; 0 for non-directories

	// Rock Ridge continuation area offsets, assigned during layout if SUSP data
	// overflows a directory record.
	rrContinuationLBA    uint32
	rrContinuationOffset uint32
	rrInline             []byte // SUSP bytes that fit in the directory record itself
	rrContinuation       []byte // SUSP bytes relocated to the continuation extent, if any
}

func (n *node) isRoot() bool { return n.parent == nil }

// buildTree constructs the in-memory tree from a FileInput. Every intermediate
// directory implied by a file's path is created even if it has no explicit FileEntry.
// Directory listings are ordered depth-first with children sorted by name; this
// function only builds the tree, sorting happens at layout/listing time using the
// namespace-specific mangled name.
func buildTree(input *FileInput, opts *FormatOptions) (*node, error) {
	root := &node{name: "", path: "/", isDir: true, pathTableDirNum: 1, modTime: opts.now()}
	root.parent = nil

	dirIndex := map[string]*node{"/": root}

	var ensureDir func(path string) *node
	ensureDir = func(path string) *node {
		if d, ok := dirIndex[path]; ok {
			return d
		}
		parentPath := parentOf(path)
		parent := ensureDir(parentPath)
		d := &node{
			name:    baseOf(path),
			path:    path,
			isDir:   true,
			parent:  parent,
			modTime: opts.now(),
		}
		parent.children = append(parent.children, d)
		dirIndex[path] = d
		return d
	}

	for _, e := range input.Entries() {
		cleanPath := normalizePath(e.Path)
		if e.IsDir {
			ensureDir(cleanPath)
			continue
		}
		parentPath := parentOf(cleanPath)
		parent := ensureDir(parentPath)
		f := &node{
			name:    baseOf(cleanPath),
			path:    cleanPath,
			isDir:   false,
			parent:  parent,
			source:  e.Source,
			length:  e.Length,
			modTime: e.ModTime,
			mode:    e.Mode,
			uid:     e.UID,
			gid:     e.GID,
			hidden:  e.Hidden,
			symlink: e.SymlinkTo,

			deviceMajor: e.DeviceMajor,
			deviceMinor: e.DeviceMinor,
		}
		if f.modTime.IsZero() {
			f.modTime = opts.now()
		}
		parent.children = append(parent.children, f)
	}

	assignPathTableNumbers(root)
	return root, nil
}

// assignPathTableNumbers performs the path table's required breadth-first numbering:
// root = 1, then children in parent-index order, each level visited breadth-first.
func assignPathTableNumbers(root *node) {
	next := uint16(2)
	queue := []*node{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		// children are ordered by sorted ECMA-119 name once mangling has run; at this
		// point names aren't mangled yet, so sort by original name as a stable proxy -
		// records.go re-sorts listings by mangled name at emission time, but the BFS
		// *numbering* itself only needs a stable, deterministic walk order.
		sortNodesByName(cur.children)
		for _, child := range cur.children {
			if child.isDir {
				child.pathTableDirNum = next
				next++
				queue = append(queue, child)
			}
		}
	}
}

func sortNodesByName(nodes []*node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].name < nodes[j].name })
}

// dirsInBFSOrder returns every directory node in path-table (BFS) order.
func dirsInBFSOrder(root *node) []*node {
	var out []*node
	queue := []*node{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, cur)
		for _, child := range cur.children {
			if child.isDir {
				queue = append(queue, child)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].pathTableDirNum < out[j].pathTableDirNum })
	return out
}

// dirsInDepthFirstOrder returns every directory node in canonical depth-first order,
// the order extent LBAs are assigned in. Path-table parent indices use BFS numbering
// instead; the two orderings are deliberately independent of each other.
func dirsInDepthFirstOrder(root *node) []*node {
	var out []*node
	for _, n := range allNodesDepthFirst(root) {
		if n.isDir {
			out = append(out, n)
		}
	}
	return out
}

// allNodesDepthFirst returns every node (directories and files) in a deterministic depth-first
// pre-order, directories before their children's files interleaved in sorted-name order
// - used for content LBA assignment passes that need a stable traversal.
func allNodesDepthFirst(root *node) []*node {
	var out []*node
	var walk func(n *node)
	walk = func(n *node) {
		out = append(out, n)
		children := append([]*node(nil), n.children...)
		sortNodesByName(children)
		for _, c := range children {
			if c.isDir {
				walk(c)
			} else {
				out = append(out, c)
			}
		}
	}
	walk(root)
	return out
}

func normalizePath(p string) string {
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimSuffix(p, "/")
	return "/" + p
}

func parentOf(p string) string {
	if p == "/" {
		return "/"
	}
	idx := strings.LastIndex(p, "/")
	if idx <= 0 {
		return "/"
	}
	return p[:idx]
}

func baseOf(p string) string {
	idx := strings.LastIndex(p, "/")
	return p[idx+1:]
}
