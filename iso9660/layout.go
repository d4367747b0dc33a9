package iso9660

import (
	"fmt"
	"sort"

	"github.com/hxyulin/hadris/partition/gpt"
)

// calculateLayout determines all sizes, LBA locations, and pre-generates path tables
// and the Rock Ridge continuation area. It is the sole body of Builder.Plan.
func calculateLayout(root *node, opts *FormatOptions) (*ImagePlan, error) {
	plan := &ImagePlan{root: root, opts: opts}

	if err := mangleTree(root, opts); err != nil {
		return nil, err
	}
	if err := assignMultiExtentFlags(root, opts); err != nil {
		return nil, err
	}
	if opts.EnableRockRidge {
		prepassRockRidge(root, opts)
	}
	calculateAllDirectoryExtentSizes(plan, opts)

	plan.addRegion(RegionSystemArea, 0, SystemAreaNumSectors, "system area")

	currentLBA := uint32(SystemAreaNumSectors)
	vdSectors := vdSetSectorCount(opts) // PVD + optional BRD + optional SVD + terminator
	plan.addRegion(RegionVolumeDescriptorSet, currentLBA, vdSectors, "volume descriptor set")
	currentLBA += vdSectors

	if opts.BootEntries != nil {
		cat, sectors := planBootCatalog(opts)
		plan.bootCatalogLBA = currentLBA
		plan.bootCatalogSectors = sectors
		plan.bootCatalogDraft = cat
		plan.addRegion(RegionBootCatalog, currentLBA, sectors, "boot catalog")
		currentLBA += sectors
	}

	pathTableStart := currentLBA
	currentLBA = determinePathTableLBAs(plan, currentLBA)
	plan.addRegion(RegionPathTable, pathTableStart, currentLBA-pathTableStart, "path tables")

	if opts.EnableRockRidge {
		rrStart := currentLBA
		currentLBA = packRockRidgeContinuation(plan, root, currentLBA)
		plan.addRegion(RegionRockRidgeContinuation, rrStart, currentLBA-rrStart, "rock ridge continuation area")
	}

	contentStart := currentLBA
	currentLBA = assignContentLBAs(plan, root, currentLBA, opts)
	plan.addRegion(RegionDirectoryExtent, contentStart, currentLBA-contentStart, "directory and file extents")

	if opts.Partitions.Has(PartitionGPT) {
		// Entry array (128 * 128 bytes, rounded up to whole 2048-byte sectors) plus one
		// header sector; buildSystemArea places the backup copy so it ends in the image's
		// last sector.
		plan.gptBackupSectors = sectorsToContainBytes(gpt.EntryCount*gpt.EntrySize) + 1
		currentLBA += plan.gptBackupSectors
	}

	plan.totalSectors = currentLBA + 1 // trailing padding sector; a GPT backup copy ends in it

	if uint64(plan.totalSectors) > 0xFFFFFFFF {
		return nil, errorf(KindPlanOverflow, "", "image requires %d sectors, exceeding the u32 volume space size field", plan.totalSectors)
	}

	if err := pregeneratePathTables(plan, root, opts); err != nil {
		return nil, err
	}

	if err := buildSystemArea(plan, opts); err != nil {
		return nil, err
	}

	return plan, nil
}

func vdSetSectorCount(opts *FormatOptions) uint32 {
	n := uint32(2) // PVD + terminator
	if opts.BootEntries != nil {
		n++
	}
	if opts.EnableJoliet {
		n++
	}
	return n
}

// assignMultiExtentFlags validates file sizes under the active strictness and marks any
// file requiring more than one directory record extent: a single ECMA-119 file data
// length field is 32 bits, so files larger than 4 GiB - 1 bytes must be split across
// multiple directory records each describing a contiguous piece of the file.
func assignMultiExtentFlags(root *node, opts *FormatOptions) error {
	var walk func(n *node) error
	walk = func(n *node) error {
		if n.isDir {
			for _, c := range n.children {
				if err := walk(c); err != nil {
					return err
				}
			}
			return nil
		}
		n.fileLength = n.length
		if n.fileLength > maxSingleExtentFileSize {
			if opts.Strictness == StrictnessStrict {
				return errorf(KindInvalidInput, n.path, "file size %d exceeds the %d-byte Strict limit", n.fileLength, maxSingleExtentFileSize)
			}
			n.multiExtent = true
		}
		return nil
	}
	return walk(root)
}

func prepassRockRidge(root *node, opts *FormatOptions) {
	var walk func(n *node)
	walk = func(n *node) {
		computeRockRidgeEntries(n, opts, n.isRoot())
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(root)
}

// packRockRidgeContinuation lays every node's overflow SUSP bytes into one shared
// continuation extent, assigning each node's rrContinuationLBA/Offset as it goes.
func packRockRidgeContinuation(plan *ImagePlan, root *node, startLBA uint32) uint32 {
	var blob []byte
	var walk func(n *node)
	walk = func(n *node) {
		if len(n.rrContinuation) > 0 {
			n.rrContinuationOffset = uint32(len(blob))
			blob = append(blob, n.rrContinuation...)
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(root)

	if len(blob) == 0 {
		plan.rrContinuationSectors = 0
		return startLBA
	}
	sectors := sectorsToContainBytes(len(blob))
	plan.rrContinuationLBA = startLBA
	plan.rrContinuationSectors = sectors
	plan.rrContinuationData = blob

	var fixup func(n *node)
	fixup = func(n *node) {
		if len(n.rrContinuation) > 0 {
			n.rrContinuationLBA = startLBA
		}
		for _, c := range n.children {
			fixup(c)
		}
	}
	fixup(root)

	return startLBA + sectors
}

// calculateAllDirectoryExtentSizes computes the on-disk size for each directory's
// listing.
func calculateAllDirectoryExtentSizes(plan *ImagePlan, opts *FormatOptions) {
	var walk func(n *node)
	walk = func(n *node) {
		if n.isDir {
			n.iso9660Size = calculateSingleDirectoryExtentSizeBytes(n, false, opts)
			if opts.EnableJoliet {
				n.jolietSize = calculateSingleDirectoryExtentSizeBytes(n, true, opts)
			}
			for _, c := range n.children {
				walk(c)
			}
		}
	}
	walk(plan.root)
	plan.pvdRootDirExtentSize = plan.root.iso9660Size
	if opts.EnableJoliet {
		plan.svdRootDirExtentSize = plan.root.jolietSize
	}
}

// calculateSingleDirectoryExtentSizeBytes sizes dir's extent by simulating the exact
// record-packing order createDirectoryListing uses (., .., then children sorted by
// mangled name), inserting the same sector-boundary padding: ECMA-119 6.8.1 requires
// that a directory record never be recorded across more than one logical sector.
// Without Rock Ridge the reserved extent matches what gets written byte-for-byte. With
// Rock Ridge it is an upper bound: the ".." record and a non-root directory's "." record
// are sized with SUSP bytes that the listing does not carry.
func calculateSingleDirectoryExtentSizeBytes(dir *node, isJoliet bool, opts *FormatOptions) uint32 {
	isRoot := dir.pathTableDirNum == 1

	dotIdentBytes := getDRIdentifierBytes(".", isJoliet, isRoot)
	dotDRSize := calculateDirectoryRecordSize(dotIdentBytes, !isJoliet && opts.EnableRockRidge, dir)

	dotDotIdentBytes := getDRIdentifierBytes("..", isJoliet, false)
	parent := dir
	if dir.parent != nil {
		parent = dir.parent
	}
	dotDotDRSize := calculateDirectoryRecordSize(dotDotIdentBytes, !isJoliet && opts.EnableRockRidge, parent)

	lengths := []int{dotDRSize, dotDotDRSize}

	children := append([]*node(nil), dir.children...)
	sort.Slice(children, func(i, j int) bool {
		if isJoliet {
			return children[i].jolietName < children[j].jolietName
		}
		return children[i].iso9660Name < children[j].iso9660Name
	})
	for _, child := range children {
		if isJoliet {
			lengths = append(lengths, child.actualJolietDrSize)
		} else {
			lengths = append(lengths, child.actualISO9660DrSize)
		}
	}

	return packedDirectoryExtentSize(lengths)
}

func assignPathTableSetLBAs(startLBA uint32, numSectorsL, numSectorsM uint32) (lbaL, lbaM, nextLBA uint32) {
	lbaL = startLBA
	nextLBA = startLBA + numSectorsL
	lbaM = nextLBA
	nextLBA += numSectorsM
	return
}

func determinePathTableLBAs(plan *ImagePlan, startLBA uint32) uint32 {
	currentLBA := startLBA
	pvdPtLBytes := calculatePathTableTotalBytes(plan.root, false)
	numSecPvdL := sectorsToContainBytes(pvdPtLBytes)
	numSecPvdM := numSecPvdL

	plan.lbaPvdPathTableL, plan.lbaPvdPathTableM, currentLBA = assignPathTableSetLBAs(currentLBA, numSecPvdL, numSecPvdM)
	plan.lbaPvdPathTableL2, plan.lbaPvdPathTableM2, currentLBA = assignPathTableSetLBAs(currentLBA, numSecPvdL, numSecPvdM)

	if plan.opts.EnableJoliet {
		svdPtLBytes := calculatePathTableTotalBytes(plan.root, true)
		numSecSvdL := sectorsToContainBytes(svdPtLBytes)
		numSecSvdM := numSecSvdL
		plan.lbaSvdPathTableL, plan.lbaSvdPathTableM, currentLBA = assignPathTableSetLBAs(currentLBA, numSecSvdL, numSecSvdM)
		plan.lbaSvdPathTableL2, plan.lbaSvdPathTableM2, currentLBA = assignPathTableSetLBAs(currentLBA, numSecSvdL, numSecSvdM)
	}

	return currentLBA
}

// assignContentLBAs assigns LBAs to all directory extents and file data extents.
// Boot images are ordinary file entries, so they fall into the same files pass as
// everything else; see DESIGN.md for that decision.
func assignContentLBAs(plan *ImagePlan, root *node, startLBA uint32, opts *FormatOptions) uint32 {
	currentLBA := startLBA

	for _, dir := range dirsInDepthFirstOrder(root) {
		dir.iso9660Sector = currentLBA
		currentLBA += dir.iso9660Size / SectorSize
	}

	for _, f := range allNodesDepthFirst(root) {
		if f.isDir {
			continue
		}
		f.iso9660Sector = currentLBA
		f.jolietSector = currentLBA
		dataLength := f.fileLength
		if dataLength > maxSingleExtentFileSize {
			dataLength = maxSingleExtentFileSize
		}
		f.iso9660Size = uint32(dataLength)
		f.jolietSize = f.iso9660Size
		currentLBA += sectorsToContainFileBytes(f.fileLength)
	}

	if opts.EnableJoliet {
		for _, dir := range dirsInDepthFirstOrder(root) {
			dir.jolietSector = currentLBA
			currentLBA += dir.jolietSize / SectorSize
		}
	}

	return currentLBA
}

func pregeneratePathTables(plan *ImagePlan, root *node, opts *FormatOptions) error {
	plan.pvdPathTableLData = createPathTable(root, false, false)
	plan.pvdPathTableMData = createPathTable(root, false, true)
	if opts.EnableJoliet {
		plan.svdPathTableLData = createPathTable(root, true, false)
		plan.svdPathTableMData = createPathTable(root, true, true)
	}

	if got, want := len(plan.pvdPathTableLData), calculatePathTableTotalBytes(root, false); got != want {
		return fmt.Errorf("PVD L-path table generated length %d != calculated %d", got, want)
	}
	if opts.EnableJoliet {
		if got, want := len(plan.svdPathTableLData), calculatePathTableTotalBytes(root, true); got != want {
			return fmt.Errorf("SVD L-path table generated length %d != calculated %d", got, want)
		}
	}
	return nil
}
