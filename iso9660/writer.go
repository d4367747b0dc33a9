package iso9660

import (
	"io"
)

// writeImage emits every region of plan, in region order, to w. If this returns nil,
// every reserved region has been written.
func writeImage(w io.WriteSeeker, plan *ImagePlan, opts *FormatOptions) error {
	if err := writeSystemArea(w, plan); err != nil {
		return err
	}
	if err := writeVolumeDescriptors(w, plan, opts); err != nil {
		return err
	}
	if opts.BootEntries != nil {
		if err := writeBootCatalogPlaceholder(w, plan); err != nil {
			return err
		}
	}
	if err := writeAllPathTables(w, plan); err != nil {
		return err
	}
	if opts.EnableRockRidge {
		if err := writeRockRidgeContinuation(w, plan); err != nil {
			return err
		}
	}
	if err := writeAllDirectoryContents(w, plan, opts); err != nil {
		return err
	}
	if err := writeAllFileData(w, plan, opts); err != nil {
		return err
	}
	if opts.BootEntries != nil {
		if err := writeBootCatalog(w, plan); err != nil {
			return err
		}
	}
	if plan.gptBackupBytes != nil {
		if err := writeAtSectorAndPad(w, plan.gptBackupBytes, int(plan.gptBackupLBA), int(plan.gptBackupSectors)*SectorSize); err != nil {
			return wrapf(KindIoError, "", err, "writing backup GPT header/entries")
		}
	}
	return nil
}

func writeSystemArea(w io.WriteSeeker, plan *ImagePlan) error {
	data := plan.systemAreaBytes
	if err := writeAtSectorAndPad(w, data, 0, SystemAreaNumSectors*SectorSize); err != nil {
		return wrapf(KindIoError, "", err, "writing system area")
	}
	return nil
}

func writeVolumeDescriptors(w io.WriteSeeker, plan *ImagePlan, opts *FormatOptions) error {
	currentSector := uint32(SystemAreaNumSectors)

	pvd, err := createPrimaryVolumeDescriptor(plan, opts)
	if err != nil {
		return err
	}
	if err := writeAtSectorAndPad(w, pvd, int(currentSector), SectorSize); err != nil {
		return wrapf(KindIoError, "", err, "writing PVD")
	}
	currentSector++

	if opts.BootEntries != nil {
		brd := createBootRecordVolumeDescriptor(plan)
		if err := writeAtSectorAndPad(w, brd, int(currentSector), SectorSize); err != nil {
			return wrapf(KindIoError, "", err, "writing boot record descriptor")
		}
		currentSector++
	}

	if opts.EnableJoliet {
		svd, err := createSupplementaryVolumeDescriptor(plan, opts)
		if err != nil {
			return err
		}
		if err := writeAtSectorAndPad(w, svd, int(currentSector), SectorSize); err != nil {
			return wrapf(KindIoError, "", err, "writing SVD")
		}
		currentSector++
	}

	term := createVolumeDescriptorTerminator()
	if err := writeAtSectorAndPad(w, term, int(currentSector), SectorSize); err != nil {
		return wrapf(KindIoError, "", err, "writing volume descriptor terminator")
	}
	return nil
}

// writeBootCatalogPlaceholder reserves the boot catalog's sectors with zeros; the real
// contents are written by writeBootCatalog once file LBAs are known.
func writeBootCatalogPlaceholder(w io.WriteSeeker, plan *ImagePlan) error {
	if err := writeAtSectorAndPad(w, nil, int(plan.bootCatalogLBA), int(plan.bootCatalogSectors)*SectorSize); err != nil {
		return wrapf(KindIoError, "", err, "reserving boot catalog")
	}
	return nil
}

func writeBootCatalog(w io.WriteSeeker, plan *ImagePlan) error {
	catalog, err := renderBootCatalog(plan)
	if err != nil {
		return err
	}
	if err := writeAtSectorAndPad(w, catalog, int(plan.bootCatalogLBA), int(plan.bootCatalogSectors)*SectorSize); err != nil {
		return wrapf(KindIoError, "", err, "writing boot catalog")
	}
	return nil
}

func writeAllPathTables(w io.WriteSeeker, plan *ImagePlan) error {
	pvdAlloc := int(sectorsToContainBytes(len(plan.pvdPathTableLData))) * SectorSize
	if err := writeAtSectorAndPad(w, plan.pvdPathTableLData, int(plan.lbaPvdPathTableL), pvdAlloc); err != nil {
		return wrapf(KindIoError, "", err, "writing PVD L-path table (primary)")
	}
	if err := writeAtSectorAndPad(w, plan.pvdPathTableLData, int(plan.lbaPvdPathTableL2), pvdAlloc); err != nil {
		return wrapf(KindIoError, "", err, "writing PVD L-path table (redundant copy)")
	}
	if err := writeAtSectorAndPad(w, plan.pvdPathTableMData, int(plan.lbaPvdPathTableM), pvdAlloc); err != nil {
		return wrapf(KindIoError, "", err, "writing PVD M-path table (primary)")
	}
	if err := writeAtSectorAndPad(w, plan.pvdPathTableMData, int(plan.lbaPvdPathTableM2), pvdAlloc); err != nil {
		return wrapf(KindIoError, "", err, "writing PVD M-path table (redundant copy)")
	}

	if plan.opts.EnableJoliet {
		svdAlloc := int(sectorsToContainBytes(len(plan.svdPathTableLData))) * SectorSize
		if err := writeAtSectorAndPad(w, plan.svdPathTableLData, int(plan.lbaSvdPathTableL), svdAlloc); err != nil {
			return wrapf(KindIoError, "", err, "writing SVD L-path table (primary)")
		}
		if err := writeAtSectorAndPad(w, plan.svdPathTableLData, int(plan.lbaSvdPathTableL2), svdAlloc); err != nil {
			return wrapf(KindIoError, "", err, "writing SVD L-path table (redundant copy)")
		}
		if err := writeAtSectorAndPad(w, plan.svdPathTableMData, int(plan.lbaSvdPathTableM), svdAlloc); err != nil {
			return wrapf(KindIoError, "", err, "writing SVD M-path table (primary)")
		}
		if err := writeAtSectorAndPad(w, plan.svdPathTableMData, int(plan.lbaSvdPathTableM2), svdAlloc); err != nil {
			return wrapf(KindIoError, "", err, "writing SVD M-path table (redundant copy)")
		}
	}
	return nil
}

func writeRockRidgeContinuation(w io.WriteSeeker, plan *ImagePlan) error {
	if plan.rrContinuationSectors == 0 {
		return nil
	}
	alloc := int(plan.rrContinuationSectors) * SectorSize
	if err := writeAtSectorAndPad(w, plan.rrContinuationData, int(plan.rrContinuationLBA), alloc); err != nil {
		return wrapf(KindIoError, "", err, "writing Rock Ridge continuation area")
	}
	return nil
}

func writeAllDirectoryContents(w io.WriteSeeker, plan *ImagePlan, opts *FormatOptions) error {
	for _, dir := range dirsInDepthFirstOrder(plan.root) {
		isoListing, err := createDirectoryListing(dir, false, opts)
		if err != nil {
			return wrapf(KindIoError, dir.path, err, "generating ECMA-119 directory listing")
		}
		if uint32(len(isoListing)) > dir.iso9660Size {
			return errorf(KindPlanOverflow, dir.path, "directory listing %d bytes exceeds reserved extent %d bytes", len(isoListing), dir.iso9660Size)
		}
		if err := writeAtSectorAndPad(w, isoListing, int(dir.iso9660Sector), int(dir.iso9660Size)); err != nil {
			return wrapf(KindIoError, dir.path, err, "writing ECMA-119 directory extent")
		}

		if opts.EnableJoliet {
			jolietListing, err := createDirectoryListing(dir, true, opts)
			if err != nil {
				return wrapf(KindIoError, dir.path, err, "generating Joliet directory listing")
			}
			if uint32(len(jolietListing)) > dir.jolietSize {
				return errorf(KindPlanOverflow, dir.path, "Joliet listing %d bytes exceeds reserved extent %d bytes", len(jolietListing), dir.jolietSize)
			}
			if err := writeAtSectorAndPad(w, jolietListing, int(dir.jolietSector), int(dir.jolietSize)); err != nil {
				return wrapf(KindIoError, dir.path, err, "writing Joliet directory extent")
			}
		}
	}
	return nil
}

// writeAllFileData streams each file's bytes from its FileSource, patching El Torito
// boot info tables or GRUB2 boot info in place when requested.
func writeAllFileData(w io.WriteSeeker, plan *ImagePlan, opts *FormatOptions) error {
	bootPatches := collectBootPatches(opts)

	for _, f := range allNodesDepthFirst(plan.root) {
		if f.isDir {
			continue
		}
		data, err := readAll(f.source)
		if err != nil {
			return wrapf(KindIoError, f.path, err, "reading file payload")
		}
		if uint64(len(data)) != f.fileLength {
			return errorf(KindIoError, f.path, "payload length %d != declared length %d", len(data), f.fileLength)
		}

		if patch, ok := bootPatches[f.path]; ok {
			if patch.BootInfoTable {
				patchBootInfoTable(data, SystemAreaNumSectors, f.iso9660Sector, f.fileLength)
			}
			if patch.Grub2BootInfo {
				patchGrub2BootInfo(data, f.iso9660Sector*(SectorSize/512)+5)
			}
		}

		allocSectors := sectorsToContainFileBytes(f.fileLength)
		if err := writeAtSectorAndPad(w, data, int(f.iso9660Sector), int(allocSectors)*SectorSize); err != nil {
			return wrapf(KindIoError, f.path, err, "writing file payload")
		}
	}
	return nil
}

func collectBootPatches(opts *FormatOptions) map[string]BootEntryOptions {
	out := map[string]BootEntryOptions{}
	if opts.BootEntries == nil {
		return out
	}
	out[normalizePath(opts.BootEntries.Default.BootImagePath)] = opts.BootEntries.Default
	for _, e := range opts.BootEntries.Entries {
		out[normalizePath(e.Entry.BootImagePath)] = e.Entry
	}
	return out
}

func readAll(src FileSource) ([]byte, error) {
	if src == nil {
		// entries without a payload source (e.g. symlinks from ScanDirectory) are empty
		return nil, nil
	}
	r, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// writeAtSectorAndPad writes data to a specific sector in the WriteSeeker, padding with
// zeros up to totalAllocatedBytesOnDisk. sectorNum is 0-indexed.
func writeAtSectorAndPad(w io.WriteSeeker, data []byte, sectorNum int, totalAllocatedBytesOnDisk int) error {
	if totalAllocatedBytesOnDisk > 0 && totalAllocatedBytesOnDisk%SectorSize != 0 {
		return errorf(KindIoError, "", "allocated size %d is not a multiple of the %d-byte sector", totalAllocatedBytesOnDisk, SectorSize)
	}
	if len(data) > totalAllocatedBytesOnDisk {
		return errorf(KindIoError, "", "data length %d exceeds allocated %d at sector %d", len(data), totalAllocatedBytesOnDisk, sectorNum)
	}

	targetOffset := int64(sectorNum) * int64(SectorSize)
	if _, err := w.Seek(targetOffset, io.SeekStart); err != nil {
		return errorf(KindIoError, "", "seeking to sector %d: %v", sectorNum, err)
	}

	bytesWritten := 0
	if len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			return errorf(KindIoError, "", "writing %d bytes at sector %d: %v", len(data), sectorNum, err)
		}
		bytesWritten = n
	}

	paddingNeeded := totalAllocatedBytesOnDisk - bytesWritten
	if paddingNeeded > 0 {
		padBuf := make([]byte, SectorSize)
		for paddingNeeded > 0 {
			chunk := len(padBuf)
			if paddingNeeded < chunk {
				chunk = paddingNeeded
			}
			n, err := w.Write(padBuf[:chunk])
			if err != nil {
				return errorf(KindIoError, "", "padding at sector %d: %v", sectorNum, err)
			}
			paddingNeeded -= n
		}
	}
	return nil
}
