package iso9660

import (
	"encoding/binary"
)

// El Torito boot catalog support. The catalog is a sequence of 32-byte structures:
// Validation Entry, Default Entry, then zero or more platform-grouped Section Header +
// Section Entries.

const (
	bootIndicatorHeader   = 0x01
	bootIndicatorMore     = 0x90
	bootIndicatorFinal    = 0x91
	bootBootableIndicator = 0x88
)

// bootCatalogDraft carries enough information, assembled during layout, to render the
// boot catalog once file LBAs are final.
type bootCatalogDraft struct {
	def      BootEntryOptions
	groups   []bootCatalogGroup
	writeFile bool
}

type bootCatalogGroup struct {
	platform PlatformId
	entries  []BootEntryOptions
}

// planBootCatalog sizes the catalog from the entry count alone; actual LBAs are filled
// in later by renderBootCatalog once assignContentLBAs has run.
func planBootCatalog(opts *FormatOptions) (*bootCatalogDraft, uint32) {
	draft := &bootCatalogDraft{def: opts.BootEntries.Default, writeFile: opts.BootEntries.WriteBootCatalogFile}

	var groups []bootCatalogGroup
	for _, e := range opts.BootEntries.Entries {
		if len(groups) == 0 || groups[len(groups)-1].platform != e.Section.PlatformId {
			groups = append(groups, bootCatalogGroup{platform: e.Section.PlatformId})
		}
		groups[len(groups)-1].entries = append(groups[len(groups)-1].entries, e.Entry)
	}
	draft.groups = groups

	totalBytes := 64 // validation + default
	for _, g := range groups {
		totalBytes += 32 + 32*len(g.entries)
	}
	sectors := sectorsToContainBytes(totalBytes)
	return draft, sectors
}

// renderBootCatalog serializes the boot catalog bytes once every boot image's LBA and
// length are known (plan.root has been walked by assignContentLBAs).
func renderBootCatalog(plan *ImagePlan) ([]byte, error) {
	draft := plan.bootCatalogDraft
	buf := make([]byte, 0, int(plan.bootCatalogSectors)*SectorSize)

	defNode, err := findNodeByPath(plan.root, draft.def.BootImagePath)
	if err != nil {
		return nil, err
	}
	platform := PlatformX80X86
	if len(draft.groups) > 0 {
		platform = draft.groups[0].platform
	}
	buf = append(buf, buildValidationEntry(platform, "")...)
	buf = append(buf, buildBootEntry(bootBootableIndicator, draft.def, defNode, true)...)

	for gi, g := range draft.groups {
		indicator := byte(bootIndicatorMore)
		if gi == len(draft.groups)-1 {
			indicator = bootIndicatorFinal
		}
		buf = append(buf, buildSectionHeaderEntry(indicator, g.platform, len(g.entries))...)
		for _, e := range g.entries {
			n, err := findNodeByPath(plan.root, e.BootImagePath)
			if err != nil {
				return nil, err
			}
			buf = append(buf, buildBootEntry(bootBootableIndicator, e, n, false)...)
		}
	}

	for len(buf) < int(plan.bootCatalogSectors)*SectorSize {
		buf = append(buf, 0)
	}
	return buf, nil
}

// buildValidationEntry computes the Validation Entry's checksum so that the sum of all
// sixteen 16-bit little-endian words in the 32-byte entry equals zero modulo 2^16.
func buildValidationEntry(platform PlatformId, idString string) []byte {
	buf := make([]byte, 32)
	buf[0] = bootIndicatorHeader
	buf[1] = platform.toByte()
	copy(buf[4:28], padBytes(idString, 24))
	buf[30] = bootValidationKeyLo
	buf[31] = bootValidationKeyHi

	var sum uint16
	for i := 0; i < 32; i += 2 {
		if i == 28 {
			continue // checksum word itself, fixed up below
		}
		sum += binary.LittleEndian.Uint16(buf[i : i+2])
	}
	checksum := -int16(sum)
	binary.LittleEndian.PutUint16(buf[28:30], uint16(checksum))
	return buf
}

func padBytes(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return b
}

// buildBootEntry renders a Default Entry or a Section Entry - both share the same
// 32-byte layout, differing only in the leading boot-indicator byte.
func buildBootEntry(indicator byte, e BootEntryOptions, img *node, isDefault bool) []byte {
	buf := make([]byte, 32)
	buf[0] = indicator
	buf[1] = e.Emulation.toByte()
	loadSegment := e.LoadSegment
	binary.LittleEndian.PutUint16(buf[2:4], loadSegment)
	buf[4] = 0 // system type; derived from MBR partition table for hard-disk emulation, left 0 otherwise
	sectorCount := e.SectorCount
	if sectorCount == 0 {
		sectorCount = uint16(sectorsToContainFileBytes(img.fileLength) * (SectorSize / 512))
	}
	binary.LittleEndian.PutUint16(buf[6:8], sectorCount)
	binary.LittleEndian.PutUint32(buf[8:12], img.iso9660Sector)
	return buf
}

func buildSectionHeaderEntry(indicator byte, platform PlatformId, numEntries int) []byte {
	buf := make([]byte, 32)
	buf[0] = indicator
	buf[1] = platform.toByte()
	binary.LittleEndian.PutUint16(buf[2:4], uint16(numEntries))
	return buf
}

// findNodeByPath resolves a "/"-separated path against the planned tree.
func findNodeByPath(root *node, path string) (*node, error) {
	clean := normalizePath(path)
	if clean == "/" {
		return root, nil
	}
	segs := splitPathSegments(clean)
	cur := root
	for _, seg := range segs {
		var next *node
		for _, c := range cur.children {
			if c.name == seg {
				next = c
				break
			}
		}
		if next == nil {
			return nil, errorf(KindBootCatalogError, path, "boot image path not found in file input")
		}
		cur = next
	}
	return cur, nil
}

// patchBootInfoTable writes the 56-byte El Torito boot info table at byte offset 8 of a
// boot image's on-disk bytes, per the original source's boot.rs layout (absent from the
// distilled spec, required for images the firmware expects to self-describe).
func patchBootInfoTable(imageBytes []byte, pvdLBA, imageLBA uint32, imageLen uint64) {
	if len(imageBytes) < 64 {
		return
	}
	binary.LittleEndian.PutUint32(imageBytes[8:12], pvdLBA)
	binary.LittleEndian.PutUint32(imageBytes[12:16], imageLBA)
	binary.LittleEndian.PutUint32(imageBytes[16:20], uint32(imageLen))
	var sum uint32
	for i := 64; i+4 <= len(imageBytes); i += 4 {
		sum += binary.LittleEndian.Uint32(imageBytes[i : i+4])
	}
	binary.LittleEndian.PutUint32(imageBytes[20:24], sum)
}

// patchGrub2BootInfo writes GRUB2's boot-info convention at byte offset 2548 of the
// image: value as a little-endian u32. The writer passes the image's starting 512-byte
// sector plus 5, which GRUB2 uses to locate itself without an El Torito boot info table.
func patchGrub2BootInfo(imageBytes []byte, value uint32) {
	const grub2Offset = 2548
	if len(imageBytes) < grub2Offset+4 {
		return
	}
	binary.LittleEndian.PutUint32(imageBytes[grub2Offset:grub2Offset+4], value)
}
