package iso9660

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// marshalPathTableRecord converts pathTableRecordFields and an identifier into a PT
// record byte slice.
func marshalPathTableRecord(fields *pathTableRecordFields, identifier []byte, useBigEndian bool) []byte {
	identifierLen := byte(len(identifier))
	recordLen := ptRecFixedPartSize + int(identifierLen)
	if len(identifier)%2 != 0 {
		recordLen++
	}

	record := make([]byte, recordLen)
	record[0] = identifierLen
	record[1] = fields.ExtendedAttributeRecordLength

	if useBigEndian {
		binary.BigEndian.PutUint32(record[2:6], fields.LocationOfExtent)
		binary.BigEndian.PutUint16(record[6:8], fields.ParentDirectoryNumber)
	} else {
		binary.LittleEndian.PutUint32(record[2:6], fields.LocationOfExtent)
		binary.LittleEndian.PutUint16(record[6:8], fields.ParentDirectoryNumber)
	}
	copy(record[8:], identifier)
	return record
}

// pathTableIdentifier returns the identifier bytes a directory uses in the path table:
// a single zero byte for the root, its mangled name otherwise.
func pathTableIdentifier(dir *node, isJoliet bool) []byte {
	if dir.pathTableDirNum == 1 {
		return []byte{0x00}
	}
	if isJoliet {
		return encodeUTF16BE(dir.jolietName)
	}
	return []byte(dir.iso9660Name)
}

// createPathTable generates the bytes for a Path Table (L-Type or M-Type). The record
// order is strictly the breadth-first path-table numbering assigned at tree-build time
// - both byte-order variants share the same logical sequence, differing only in
// multi-byte field endianness.
func createPathTable(root *node, isJoliet bool, useBigEndian bool) []byte {
	dirs := dirsInBFSOrder(root)
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].pathTableDirNum < dirs[j].pathTableDirNum })

	buffer := new(bytes.Buffer)
	for _, dir := range dirs {
		var ptFields pathTableRecordFields
		identifierBytes := pathTableIdentifier(dir, isJoliet)

		if dir.pathTableDirNum == 1 {
			ptFields.ParentDirectoryNumber = 1
		} else {
			ptFields.ParentDirectoryNumber = dir.parent.pathTableDirNum
		}

		if isJoliet {
			ptFields.LocationOfExtent = dir.jolietSector
		} else {
			ptFields.LocationOfExtent = dir.iso9660Sector
		}

		buffer.Write(marshalPathTableRecord(&ptFields, identifierBytes, useBigEndian))
	}
	return buffer.Bytes()
}

// calculatePathTableTotalBytes calculates the total unpadded byte length of a path
// table, used by the layout planner to determine sector counts.
func calculatePathTableTotalBytes(root *node, isJoliet bool) int {
	totalBytes := 0
	for _, dir := range dirsInBFSOrder(root) {
		identifierBytes := pathTableIdentifier(dir, isJoliet)
		recordLen := ptRecFixedPartSize + len(identifierBytes)
		if len(identifierBytes)%2 != 0 {
			recordLen++
		}
		totalBytes += recordLen
	}
	return totalBytes
}
