package iso9660

import (
	"io"
	"strings"
)

// DirEntry is a resolved directory or file entry, as returned by Reader.
type DirEntry struct {
	Name    string
	IsDir   bool
	LBA     uint32
	Length  uint64
	RawFlag byte
}

// Reader parses an existing ISO 9660 image for read access. It is the dual of Builder:
// where Builder plans then writes, Reader locates the volume descriptor set once at
// Open time and resolves everything else on demand.
type Reader struct {
	r          io.ReaderAt
	pvd        primaryVolumeDescriptorFields
	svd        *supplementaryVolumeDescriptorFields
	bootRecord *bootRecordVolumeDescriptorFields
	logger     Logger
}

// OpenReader locates the volume descriptor set on r and returns a Reader positioned at
// its root. r must support positioned reads over the whole image.
func OpenReader(r io.ReaderAt) (*Reader, error) {
	rd := &Reader{r: r, logger: defaultLogger()}

	sector := make([]byte, SectorSize)
	for lba := uint32(SystemAreaNumSectors); ; lba++ {
		if _, err := r.ReadAt(sector, int64(lba)*SectorSize); err != nil {
			return nil, wrapf(KindIoError, "", err, "reading volume descriptor at LBA %d", lba)
		}
		header := parseVolumeDescriptorHeader(sector)
		if string(header.StandardIdentifier[:]) != "CD001" {
			return nil, errorf(KindNotConformant, "", "volume descriptor at LBA %d has standard identifier %q, want CD001", lba, header.StandardIdentifier[:])
		}
		if header.Version != 1 {
			if rd.logger != nil {
				rd.logger.Warnf("volume descriptor at LBA %d has version %d, want 1; continuing", lba, header.Version)
			}
		}

		switch header.Type {
		case vdTypePrimary:
			rd.pvd = parsePrimaryVolumeDescriptor(sector)
		case vdTypeSupplementary:
			svd := parseSupplementaryVolumeDescriptor(sector)
			rd.svd = &svd
		case vdTypeBootRecord:
			br := parseBootRecordVolumeDescriptor(sector)
			rd.bootRecord = &br
		case vdTypeTerminator:
			if rd.pvd.LogicalBlockSize == 0 {
				return nil, errorf(KindNotConformant, "", "volume descriptor set terminated before a Primary Volume Descriptor was found")
			}
			return rd, nil
		default:
			// unknown descriptor type: ECMA-119 permits readers to skip these.
		}
	}
}

func parsePrimaryVolumeDescriptor(sector []byte) primaryVolumeDescriptorFields {
	var f primaryVolumeDescriptorFields
	copy(f.SystemIdentifier[:], sector[8:40])
	copy(f.VolumeIdentifier[:], sector[40:72])
	f.VolumeSpaceSize, _ = ParseBothEndianUint32(sector[80:88])
	f.VolumeSetSize, _ = ParseBothEndianUint16(sector[120:124])
	f.VolumeSequenceNumber, _ = ParseBothEndianUint16(sector[124:128])
	f.LogicalBlockSize, _ = ParseBothEndianUint16(sector[128:132])
	f.PathTableSizeBytes, _ = ParseBothEndianUint32(sector[132:140])
	f.LPathTableLocation = leUint32(sector[140:144])
	f.OptionalLPathTableLocation = leUint32(sector[144:148])
	f.MPathTableLocation = beUint32(sector[148:152])
	f.OptionalMPathTableLocation = beUint32(sector[152:156])
	copy(f.RootDirectoryRecord[:], sector[156:190])
	return f
}

func parseSupplementaryVolumeDescriptor(sector []byte) supplementaryVolumeDescriptorFields {
	var f supplementaryVolumeDescriptorFields
	f.VolumeFlags = sector[7]
	copy(f.SystemIdentifier[:], sector[8:40])
	copy(f.VolumeIdentifier[:], sector[40:72])
	f.VolumeSpaceSize, _ = ParseBothEndianUint32(sector[80:88])
	copy(f.EscapeSequences[:], sector[88:120])
	f.VolumeSetSize, _ = ParseBothEndianUint16(sector[120:124])
	f.VolumeSequenceNumber, _ = ParseBothEndianUint16(sector[124:128])
	f.LogicalBlockSize, _ = ParseBothEndianUint16(sector[128:132])
	f.PathTableSizeBytes, _ = ParseBothEndianUint32(sector[132:140])
	f.LPathTableLocation = leUint32(sector[140:144])
	f.OptionalLPathTableLocation = leUint32(sector[144:148])
	f.MPathTableLocation = beUint32(sector[148:152])
	f.OptionalMPathTableLocation = beUint32(sector[152:156])
	copy(f.RootDirectoryRecord[:], sector[156:190])
	return f
}

func parseBootRecordVolumeDescriptor(sector []byte) bootRecordVolumeDescriptorFields {
	var f bootRecordVolumeDescriptorFields
	copy(f.BootSystemIdentifier[:], sector[7:39])
	copy(f.BootIdentifier[:], sector[39:71])
	f.BootCatalogLBA = leUint32(sector[71:75])
	return f
}

func leUint32(b []byte) uint32 { return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24 }
func beUint32(b []byte) uint32 { return uint32(b[3]) | uint32(b[2])<<8 | uint32(b[1])<<16 | uint32(b[0])<<24 }

// RootDirectory returns the root directory entry, preferring the Joliet tree when
// present since it carries the unmangled names.
func (rd *Reader) RootDirectory() (*DirEntry, error) {
	if rd.svd != nil {
		return rd.direntFromRecord(rd.svd.RootDirectoryRecord[:], true)
	}
	return rd.direntFromRecord(rd.pvd.RootDirectoryRecord[:], false)
}

func (rd *Reader) direntFromRecord(rec []byte, isJoliet bool) (*DirEntry, error) {
	fields, identifier, _, _, err := parseDirectoryRecord(rec)
	if err != nil {
		return nil, wrapf(KindNotConformant, "", err, "parsing directory record")
	}
	name := decodeIdentifier(identifier, isJoliet)
	return &DirEntry{
		Name:    name,
		IsDir:   fields.FileFlags&fileFlagDirectory != 0,
		LBA:     uint32(fields.LocationExtent),
		Length:  uint64(fields.DataLength),
		RawFlag: fields.FileFlags,
	}, nil
}

func decodeIdentifier(id []byte, isJoliet bool) string {
	if len(id) == 1 && (id[0] == 0x00 || id[0] == 0x01) {
		if id[0] == 0x00 {
			return "."
		}
		return ".."
	}
	if isJoliet {
		return decodeUTF16BE(id)
	}
	return strings.TrimSuffix(string(id), ";1")
}

func decodeUTF16BE(b []byte) string {
	u16 := make([]uint16, len(b)/2)
	for i := range u16 {
		u16[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
	runes := make([]rune, 0, len(u16))
	for _, u := range u16 {
		runes = append(runes, rune(u))
	}
	return string(runes)
}

// listDirectory reads and parses every record in the directory extent at lba/length.
func (rd *Reader) listDirectory(lba uint32, length uint64, isJoliet bool) ([]*DirEntry, error) {
	buf := make([]byte, length)
	if _, err := rd.r.ReadAt(buf, int64(lba)*SectorSize); err != nil {
		return nil, wrapf(KindIoError, "", err, "reading directory extent at LBA %d", lba)
	}

	var out []*DirEntry
	for off := 0; off < len(buf); {
		recLen := int(buf[off])
		if recLen == 0 {
			// padding to the next sector boundary
			off = alignToSector(off + 1)
			continue
		}
		entry, err := rd.direntFromRecord(buf[off:off+recLen], isJoliet)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
		off += recLen
	}
	return out, nil
}

// ReadDir resolves path and returns its children (excluding "." and "..").
func (rd *Reader) ReadDir(path string) ([]*DirEntry, error) {
	entry, err := rd.Lookup(path)
	if err != nil {
		return nil, err
	}
	if !entry.IsDir {
		return nil, errorf(KindInvalidInput, path, "is not a directory")
	}
	all, err := rd.listDirectory(entry.LBA, entry.Length, rd.svd != nil)
	if err != nil {
		return nil, err
	}
	var out []*DirEntry
	for _, e := range all {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Lookup resolves a "/"-separated path by walking directory extents from the root.
func (rd *Reader) Lookup(path string) (*DirEntry, error) {
	isJoliet := rd.svd != nil
	cur, err := rd.RootDirectory()
	if err != nil {
		return nil, err
	}

	segs := splitPathSegments(normalizePath(path))
	for _, seg := range segs {
		entries, err := rd.listDirectory(cur.LBA, cur.Length, isJoliet)
		if err != nil {
			return nil, err
		}
		var next *DirEntry
		for _, e := range entries {
			if e.Name == "." || e.Name == ".." {
				continue
			}
			if strings.EqualFold(baseName(e.Name, isJoliet), seg) {
				next = e
				break
			}
		}
		if next == nil {
			return nil, errorf(KindInvalidInput, path, "path component %q not found", seg)
		}
		cur = next
	}
	return cur, nil
}

func baseName(name string, isJoliet bool) string {
	if isJoliet {
		return name
	}
	return strings.TrimSuffix(name, ";1")
}

// fileExtentReader is a bounded io.Reader over a single file extent.
type fileExtentReader struct {
	r      io.ReaderAt
	offset int64
	remain int64
}

func (fr *fileExtentReader) Read(p []byte) (int, error) {
	if fr.remain <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > fr.remain {
		p = p[:fr.remain]
	}
	n, err := fr.r.ReadAt(p, fr.offset)
	fr.offset += int64(n)
	fr.remain -= int64(n)
	return n, err
}

// Open returns a reader over a file's bytes, resolved by Lookup.
func (rd *Reader) Open(path string) (io.Reader, error) {
	entry, err := rd.Lookup(path)
	if err != nil {
		return nil, err
	}
	if entry.IsDir {
		return nil, errorf(KindInvalidInput, path, "is a directory")
	}
	return &fileExtentReader{r: rd.r, offset: int64(entry.LBA) * SectorSize, remain: int64(entry.Length)}, nil
}

// BootCatalogEntry is one resolved entry from the boot catalog.
type BootCatalogEntry struct {
	Platform    PlatformId
	Emulation   EmulationType
	LoadSegment uint16
	SectorCount uint16
	ImageLBA    uint32
}

// BootCatalog describes the decoded El Torito boot catalog.
type BootCatalog struct {
	Default BootCatalogEntry
	Entries []BootCatalogEntry
}

// BootCatalog parses the boot catalog referenced by the Boot Record Descriptor, if one
// is present in this image.
func (rd *Reader) BootCatalog() (*BootCatalog, error) {
	if rd.bootRecord == nil {
		return nil, errorf(KindBootCatalogError, "", "image has no Boot Record Descriptor")
	}
	buf := make([]byte, SectorSize)
	if _, err := rd.r.ReadAt(buf, int64(rd.bootRecord.BootCatalogLBA)*SectorSize); err != nil {
		return nil, wrapf(KindIoError, "", err, "reading boot catalog")
	}
	if buf[0] != bootIndicatorHeader {
		return nil, errorf(KindBootCatalogError, "", "boot catalog validation entry has header id 0x%02X, want 0x01", buf[0])
	}

	cat := &BootCatalog{}
	cat.Default = decodeBootEntry(buf[32:64])

	off := 64
	for off+32 <= len(buf) {
		indicator := buf[off]
		if indicator != bootIndicatorMore && indicator != bootIndicatorFinal {
			break
		}
		count := int(leUint16(buf[off+2 : off+4]))
		off += 32
		for i := 0; i < count && off+32 <= len(buf); i++ {
			cat.Entries = append(cat.Entries, decodeBootEntry(buf[off:off+32]))
			off += 32
		}
		if indicator == bootIndicatorFinal {
			break
		}
	}
	return cat, nil
}

func decodeBootEntry(buf []byte) BootCatalogEntry {
	return BootCatalogEntry{
		Emulation:   decodeEmulation(buf[1]),
		LoadSegment: leUint16(buf[2:4]),
		SectorCount: leUint16(buf[6:8]),
		ImageLBA:    leUint32(buf[8:12]),
	}
}

func decodeEmulation(b byte) EmulationType {
	switch b {
	case 0x01:
		return EmulationFloppy
	case 0x02:
		return EmulationHardDisk
	default:
		return EmulationNoEmulation
	}
}

func leUint16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
