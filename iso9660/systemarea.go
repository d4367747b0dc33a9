package iso9660

import (
	"time"

	"github.com/google/uuid"

	"github.com/hxyulin/hadris/partition/gpt"
	"github.com/hxyulin/hadris/partition/mbr"
)

// gptGUIDNamespace seeds the deterministic disk/partition GUID derivation below. Any
// fixed UUID works here; what matters is that it never changes between builds.
var gptGUIDNamespace = uuid.MustParse("a1b2c3d4-e5f6-47a8-89ab-cdef01234567")

// deterministicGUID derives a GPT GUID from the build's volume ID and timestamp rather
// than calling uuid.New(), so two builds run with identical FormatOptions (and a fixed
// clock) produce byte-identical images instead of a fresh random GUID each time.
func deterministicGUID(opts *FormatOptions, label string) uuid.UUID {
	name := opts.VolumeID + "|" + opts.now().Format(time.RFC3339Nano) + "|" + label
	return uuid.NewSHA1(gptGUIDNamespace, []byte(name))
}

// buildSystemArea fills in plan.systemAreaBytes: either the caller-supplied bytes
// verbatim, a generated MBR/GPT hybrid header under Strictness == Compatible, or
// nothing at all (left as zero sectors written by the writer).
func buildSystemArea(plan *ImagePlan, opts *FormatOptions) error {
	if len(opts.SystemAreaBytes) > 0 {
		plan.systemAreaBytes = opts.SystemAreaBytes
		return nil
	}
	if opts.Strictness != StrictnessCompatible && opts.Partitions == 0 {
		return nil
	}

	area := make([]byte, SystemAreaNumSectors*SectorSize)
	wantGPT := opts.Partitions.Has(PartitionGPT)
	totalSectors512 := uint64(plan.totalSectors) * (SectorSize / mbr.SectorSize)

	mbrType := mbr.TypeISO9660
	if wantGPT {
		mbrType = mbr.TypeGPTProtective
	}
	copy(area[0:mbr.SectorSize], mbr.Table(mbr.Entry{
		Type:        mbrType,
		StartLBA:    1,
		SectorCount: uint32(totalSectors512 - 1),
	}))

	if wantGPT {
		diskGUID := deterministicGUID(opts, "disk")
		partitions := []gpt.Partition{{
			TypeGUID:   gpt.ISO9660TypeGUID,
			UniqueGUID: deterministicGUID(opts, "partition:0"),
			FirstLBA:   64,
			LastLBA:    totalSectors512 - 1,
			Name:       opts.VolumeID,
		}}
		primary, backup := gpt.Build(diskGUID, partitions, totalSectors512)
		// The headers record the primary header at 512-byte LBA 1 and its entry array at
		// LBA 2, and the backup header in the image's last 512-byte sector with its entry
		// array immediately before it.
		copy(area[mbr.SectorSize:], primary[:gpt.HeaderSize])
		copy(area[2*mbr.SectorSize:], primary[gpt.HeaderSize:])

		plan.gptDiskGUID = diskGUID
		plan.gptPartitions = partitions
		lead := int(plan.gptBackupSectors)*SectorSize - mbr.SectorSize - gpt.EntryCount*gpt.EntrySize
		plan.gptBackupBytes = append(make([]byte, lead), backup...)
		plan.gptBackupLBA = plan.totalSectors - plan.gptBackupSectors
	}

	plan.systemAreaBytes = area
	return nil
}
