package iso9660

import (
	"bytes"
	"fmt"
	"sort"
)

// marshalDirectoryRecord converts directoryRecordFields, an identifier, and optional
// Rock Ridge SUSP bytes into a full Directory Record byte slice.
func marshalDirectoryRecord(fields *directoryRecordFields, identifier []byte, susp []byte) ([]byte, error) {
	identifierLen := byte(len(identifier))
	recordLen := drFixedPartSize + len(identifier)
	if recordLen%2 != 0 {
		recordLen++
	}
	recordLen += len(susp)
	if recordLen%2 != 0 {
		recordLen++
	}
	if recordLen > 255 {
		return nil, fmt.Errorf("directory record length %d exceeds 255-byte maximum", recordLen)
	}

	buf := make([]byte, recordLen)
	buf[0] = byte(recordLen)
	buf[1] = fields.ExtendedAttributeRecordLength

	fields.LocationExtent.Put(buf[2:10])
	fields.DataLength.Put(buf[10:18])
	copy(buf[18:25], fields.RecordingTime[:])
	buf[25] = fields.FileFlags
	buf[26] = fields.FileUnitSize
	buf[27] = fields.InterleaveGapSize
	fields.VolumeSequenceNumber.Put(buf[28:32])

	buf[32] = identifierLen
	copy(buf[33:], identifier)
	idEnd := 33 + int(identifierLen)
	if idEnd%2 != 0 {
		idEnd++ // padding byte, already zero
	}
	copy(buf[idEnd:], susp)
	return buf, nil
}

// parseDirectoryRecord decodes a single Directory Record starting at buf[0]. Returns
// the record, its total length, and any SUSP tail bytes it carries.
func parseDirectoryRecord(buf []byte) (fields directoryRecordFields, identifier []byte, susp []byte, recLen int, err error) {
	if len(buf) < 1 {
		err = fmt.Errorf("buffer too short for directory record")
		return
	}
	recLen = int(buf[0])
	if recLen == 0 || recLen > len(buf) {
		err = fmt.Errorf("invalid directory record length %d", recLen)
		return
	}
	fields.ExtendedAttributeRecordLength = buf[1]
	var okLo, okHi bool
	fields.LocationExtent, okLo = ParseBothEndianUint32(buf[2:10])
	fields.DataLength, okHi = ParseBothEndianUint32(buf[10:18])
	_ = okLo
	_ = okHi
	copy(fields.RecordingTime[:], buf[18:25])
	fields.FileFlags = buf[25]
	fields.FileUnitSize = buf[26]
	fields.InterleaveGapSize = buf[27]
	fields.VolumeSequenceNumber, _ = ParseBothEndianUint16(buf[28:32])

	idLen := int(buf[32])
	identifier = buf[33 : 33+idLen]
	idEnd := 33 + idLen
	if idEnd%2 != 0 {
		idEnd++
	}
	if idEnd < recLen {
		susp = buf[idEnd:recLen]
	}
	return
}

// populateDirectoryRecordFields fills the fixed fields of a directoryRecordFields
// struct describing targetEntry's extent/data at the given LBA and size.
func populateDirectoryRecordFields(drFields *directoryRecordFields, extentLBA, extentOrDataSize uint32, drIDNameToEncode string, targetEntry *node) {
	drFields.ExtendedAttributeRecordLength = 0
	drFields.LocationExtent = BothEndianUint32(extentLBA)
	drFields.DataLength = BothEndianUint32(extentOrDataSize)

	fileTime := targetEntry.modTime
	drFields.RecordingTime = formatRecordingTime(fileTime)

	var baseFileFlags byte
	if targetEntry.isDir {
		baseFileFlags |= fileFlagDirectory
	}
	if targetEntry.multiExtent {
		baseFileFlags |= fileFlagMultiExtent
	}

	finalFileFlags := baseFileFlags
	if drIDNameToEncode != "." && drIDNameToEncode != ".." && drIDNameToEncode != "" && drIDNameToEncode != "\x00" {
		if targetEntry.hidden {
			finalFileFlags |= fileFlagHidden
		}
	}
	drFields.FileFlags = finalFileFlags
	drFields.FileUnitSize = 0
	drFields.InterleaveGapSize = 0
	drFields.VolumeSequenceNumber = 1
}

// createDirectoryRecordBytes builds the full byte slice for one Directory Record.
// allowRockRidge gates whether a SUSP area is attached at all - the PVD/SVD's fixed
// 34-byte RootDirectoryRecord field never carries one, even when Rock Ridge is enabled,
// because that field has no room to grow; the root's own "." entry inside its actual
// directory extent does carry the once-only SP entry.
func createDirectoryRecordBytes(extentLBA, extentOrDataSize uint32, drIDNameToEncode string, targetEntry *node, isJoliet bool, opts *FormatOptions, allowRockRidge bool) ([]byte, error) {
	var drFields directoryRecordFields
	populateDirectoryRecordFields(&drFields, extentLBA, extentOrDataSize, drIDNameToEncode, targetEntry)

	isTargetEntryRoot := targetEntry.pathTableDirNum == 1
	isNameForRootItself := false
	if isTargetEntryRoot {
		if isJoliet && (drIDNameToEncode == "\x00" || drIDNameToEncode == ".") {
			isNameForRootItself = true
		} else if !isJoliet && (drIDNameToEncode == "" || drIDNameToEncode == ".") {
			isNameForRootItself = true
		}
	}

	identifierBytes := getDRIdentifierBytes(drIDNameToEncode, isJoliet, isNameForRootItself)

	var susp []byte
	if allowRockRidge && !isJoliet && opts.EnableRockRidge && drIDNameToEncode != "." && drIDNameToEncode != ".." {
		susp = buildRockRidgeEntries(targetEntry, opts, false)
	} else if allowRockRidge && !isJoliet && opts.EnableRockRidge && drIDNameToEncode == "." && isTargetEntryRoot {
		susp = buildRockRidgeEntries(targetEntry, opts, true)
	}
	return marshalDirectoryRecord(&drFields, identifierBytes, susp)
}

// getDRIdentifierBytes returns the byte representation for a Directory Record
// identifier, handling the special "\x00" (self) and "\x01" (parent) cases.
func getDRIdentifierBytes(name string, isJoliet bool, isIdentifierForRootItself bool) []byte {
	if isJoliet {
		if name == "\x00" || name == "." {
			return []byte{0x00}
		}
		if name == ".." {
			return []byte{0x01}
		}
		return encodeUTF16BE(name)
	}

	if name == "." || (isIdentifierForRootItself && name == "") {
		return []byte{0x00}
	}
	if name == ".." {
		return []byte{0x01}
	}
	return []byte(name)
}

// calculateDirectoryRecordSize calculates the total byte length of a Directory Record,
// including identifier padding and (if requested) an estimate of its Rock Ridge SUSP
// area.
func calculateDirectoryRecordSize(identifierBytes []byte, includeRockRidge bool, n *node) int {
	length := drFixedPartSize + len(identifierBytes)
	if length%2 != 0 {
		length++
	}
	if includeRockRidge && n != nil {
		suspLen := estimateRockRidgeLen(n)
		length += suspLen
		if length%2 != 0 {
			length++
		}
	}
	return length
}

// appendDirectoryRecord appends rec to buffer, first inserting zero padding up to the
// next sector boundary if rec would otherwise straddle one (ECMA-119 6.8.1: "a directory
// record shall not be recorded on more than one logical sector"). A zero byte at a
// record's length position tells a reader to skip straight to the next sector
// (reader.go's listDirectory already handles this).
func appendDirectoryRecord(buffer *bytes.Buffer, rec []byte) {
	offsetInSector := buffer.Len() % SectorSize
	if offsetInSector+len(rec) > SectorSize {
		buffer.Write(make([]byte, SectorSize-offsetInSector))
	}
	buffer.Write(rec)
}

// packedDirectoryExtentSize computes the total extent size, in whole sectors, needed to
// hold directory records of the given lengths in order, once the same sector-boundary
// padding appendDirectoryRecord performs is accounted for.
func packedDirectoryExtentSize(lengths []int) uint32 {
	total := 0
	for _, l := range lengths {
		offsetInSector := total % SectorSize
		if offsetInSector+l > SectorSize {
			total += SectorSize - offsetInSector
		}
		total += l
	}
	numSectors := (uint32(total) + SectorSize - 1) / SectorSize
	if numSectors == 0 {
		numSectors = 1
	}
	return numSectors * SectorSize
}

// createDirectoryListing generates the byte stream for a directory's content (., ..,
// then children in sorted order), padding between records so none straddles a sector.
func createDirectoryListing(dir *node, isJoliet bool, opts *FormatOptions) ([]byte, error) {
	buffer := new(bytes.Buffer)

	var selfLBA, selfExtentSizeBytes uint32
	if isJoliet {
		selfLBA, selfExtentSizeBytes = dir.jolietSector, dir.jolietSize
	} else {
		selfLBA, selfExtentSizeBytes = dir.iso9660Sector, dir.iso9660Size
	}

	dotDRBytes, err := createDirectoryRecordBytes(selfLBA, selfExtentSizeBytes, ".", dir, isJoliet, opts, true)
	if err != nil {
		return nil, fmt.Errorf("creating '.' DR for %q (joliet=%t): %w", dir.path, isJoliet, err)
	}
	appendDirectoryRecord(buffer, dotDRBytes)

	parent := dir
	if dir.parent != nil {
		parent = dir.parent
	}
	var parentLBA, parentExtentSizeBytes uint32
	if isJoliet {
		parentLBA, parentExtentSizeBytes = parent.jolietSector, parent.jolietSize
	} else {
		parentLBA, parentExtentSizeBytes = parent.iso9660Sector, parent.iso9660Size
	}
	dotDotDRBytes, err := createDirectoryRecordBytes(parentLBA, parentExtentSizeBytes, "..", parent, isJoliet, opts, false)
	if err != nil {
		return nil, fmt.Errorf("creating '..' DR for %q (joliet=%t): %w", dir.path, isJoliet, err)
	}
	appendDirectoryRecord(buffer, dotDotDRBytes)

	if len(dir.children) > 0 {
		children := append([]*node(nil), dir.children...)
		sort.Slice(children, func(i, j int) bool {
			if isJoliet {
				return children[i].jolietName < children[j].jolietName
			}
			return children[i].iso9660Name < children[j].iso9660Name
		})

		for _, child := range children {
			var childLBA, childSizeOrDataLen uint32
			var childRecordName string

			if child.isDir {
				if isJoliet {
					childLBA, childSizeOrDataLen, childRecordName = child.jolietSector, child.jolietSize, child.jolietName
				} else {
					childLBA, childSizeOrDataLen, childRecordName = child.iso9660Sector, child.iso9660Size, child.iso9660Name
				}
			} else {
				childLBA, childSizeOrDataLen = child.iso9660Sector, child.iso9660Size
				if isJoliet {
					childRecordName = child.jolietName
				} else {
					childRecordName = child.iso9660Name
				}
			}

			childDRBytes, err := createDirectoryRecordBytes(childLBA, childSizeOrDataLen, childRecordName, child, isJoliet, opts, true)
			if err != nil {
				return nil, fmt.Errorf("creating child DR for %q in %q (joliet=%t): %w", child.path, dir.path, isJoliet, err)
			}
			appendDirectoryRecord(buffer, childDRBytes)
		}
	}

	extentSize := sectorsToContainBytes(buffer.Len()) * SectorSize
	if pad := int(extentSize) - buffer.Len(); pad > 0 {
		buffer.Write(make([]byte, pad))
	}
	return buffer.Bytes(), nil
}
