package iso9660

import (
	"github.com/google/uuid"

	"github.com/hxyulin/hadris/partition/gpt"
)

// RegionKind identifies one of the typed, non-overlapping regions an ImagePlan
// partitions the image's LBA range into.
type RegionKind int

const (
	RegionSystemArea RegionKind = iota
	RegionVolumeDescriptorSet
	RegionBootCatalog
	RegionPathTable
	RegionRockRidgeContinuation
	RegionDirectoryExtent
	RegionFileExtent
)

func (k RegionKind) String() string {
	switch k {
	case RegionSystemArea:
		return "system-area"
	case RegionVolumeDescriptorSet:
		return "volume-descriptor-set"
	case RegionBootCatalog:
		return "boot-catalog"
	case RegionPathTable:
		return "path-table"
	case RegionRockRidgeContinuation:
		return "rock-ridge-continuation"
	case RegionDirectoryExtent:
		return "directory-extent"
	case RegionFileExtent:
		return "file-extent"
	default:
		return "unknown"
	}
}

// Region describes one reserved, sector-aligned span of the image.
type Region struct {
	Kind        RegionKind
	LBA         uint32
	SectorCount uint32
	Label       string // human-readable description, e.g. a path or "PVD"
}

// ImagePlan is the fully populated layout produced by Builder.Plan: every region's
// location, every node's extent LBA and length, and the pre-rendered bytes for the
// pieces (path tables, Rock Ridge continuation area, system area) that don't need the
// per-node content to be read again once planning is complete.
//
// An ImagePlan is immutable once returned; Builder.Write only reads from it.
type ImagePlan struct {
	root *node
	opts *FormatOptions

	regions []Region

	totalSectors uint32

	pvdRootDirExtentSize uint32
	svdRootDirExtentSize uint32

	lbaPvdPathTableL, lbaPvdPathTableM   uint32
	lbaPvdPathTableL2, lbaPvdPathTableM2 uint32
	lbaSvdPathTableL, lbaSvdPathTableM   uint32
	lbaSvdPathTableL2, lbaSvdPathTableM2 uint32

	pvdPathTableLData, pvdPathTableMData []byte
	svdPathTableLData, svdPathTableMData []byte

	bootCatalogLBA     uint32
	bootCatalogSectors uint32
	bootCatalogDraft   *bootCatalogDraft

	rrContinuationLBA     uint32
	rrContinuationSectors uint32
	rrContinuationData    []byte

	systemAreaBytes []byte

	gptDiskGUID      uuid.UUID
	gptPartitions    []gpt.Partition
	gptBackupBytes   []byte
	gptBackupLBA     uint32
	gptBackupSectors uint32
}

// TotalSectors is the volume space size: the LBA just past the last byte of the image.
func (p *ImagePlan) TotalSectors() uint32 { return p.totalSectors }

// Regions returns every reserved region in ascending LBA order.
func (p *ImagePlan) Regions() []Region {
	out := append([]Region(nil), p.regions...)
	return out
}

// addRegion records a reserved span for introspection.
func (p *ImagePlan) addRegion(kind RegionKind, lba, sectors uint32, label string) {
	if sectors == 0 {
		return
	}
	p.regions = append(p.regions, Region{Kind: kind, LBA: lba, SectorCount: sectors, Label: label})
}
