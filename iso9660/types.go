package iso9660

// volumeDescriptorHeader is common to PVD, SVD, Boot Record, and Terminator.
// (ECMA-119 Section 8.1)
type volumeDescriptorHeader struct {
	Type               byte    // vdTypePrimary, vdTypeSupplementary, vdTypeBootRecord, or vdTypeTerminator
	StandardIdentifier [5]byte // "CD001"
	Version            byte    // 1
}

func (h *volumeDescriptorHeader) marshalBinary() []byte {
	buf := make([]byte, 7)
	buf[0] = h.Type
	copy(buf[1:6], h.StandardIdentifier[:])
	buf[6] = h.Version
	return buf
}

func parseVolumeDescriptorHeader(buf []byte) volumeDescriptorHeader {
	var h volumeDescriptorHeader
	h.Type = buf[0]
	copy(h.StandardIdentifier[:], buf[1:6])
	h.Version = buf[6]
	return h
}

// primaryVolumeDescriptorFields holds fields for a Primary Volume Descriptor, excluding
// the common 7-byte header and trailing application-use/reserved areas.
// (ECMA-119 Section 8.4)
type primaryVolumeDescriptorFields struct {
	SystemIdentifier            [32]byte
	VolumeIdentifier            [32]byte
	VolumeSpaceSize             BothEndianUint32
	VolumeSetSize               BothEndianUint16
	VolumeSequenceNumber        BothEndianUint16
	LogicalBlockSize            BothEndianUint16
	PathTableSizeBytes          BothEndianUint32
	LPathTableLocation          uint32
	OptionalLPathTableLocation  uint32
	MPathTableLocation          uint32
	OptionalMPathTableLocation  uint32
	RootDirectoryRecord         [34]byte
	VolumeSetIdentifier         [128]byte
	PublisherIdentifier         [128]byte
	DataPreparerIdentifier      [128]byte
	ApplicationIdentifier       [128]byte
	CopyrightFileIdentifier     [37]byte
	AbstractFileIdentifier      [37]byte
	BibliographicFileIdentifier [37]byte
	VolumeCreationTimestamp     [17]byte
	VolumeModificationTimestamp [17]byte
	VolumeExpirationTimestamp   [17]byte
	VolumeEffectiveTimestamp    [17]byte
	FileStructureVersion        byte
}

// supplementaryVolumeDescriptorFields holds fields for a Supplementary Volume
// Descriptor (used here for Joliet). (ECMA-119 Section 8.5)
type supplementaryVolumeDescriptorFields struct {
	VolumeFlags                 byte
	SystemIdentifier            [32]byte
	VolumeIdentifier            [32]byte
	VolumeSpaceSize             BothEndianUint32
	EscapeSequences             [32]byte
	VolumeSetSize               BothEndianUint16
	VolumeSequenceNumber        BothEndianUint16
	LogicalBlockSize            BothEndianUint16
	PathTableSizeBytes          BothEndianUint32
	LPathTableLocation          uint32
	OptionalLPathTableLocation  uint32
	MPathTableLocation          uint32
	OptionalMPathTableLocation  uint32
	RootDirectoryRecord         [34]byte
	VolumeSetIdentifier         [128]byte
	PublisherIdentifier         [128]byte
	DataPreparerIdentifier      [128]byte
	ApplicationIdentifier       [128]byte
	CopyrightFileIdentifier     [37]byte
	AbstractFileIdentifier      [37]byte
	BibliographicFileIdentifier [37]byte
	VolumeCreationTimestamp     [17]byte
	VolumeModificationTimestamp [17]byte
	VolumeExpirationTimestamp   [17]byte
	VolumeEffectiveTimestamp    [17]byte
	FileStructureVersion        byte
}

// bootRecordVolumeDescriptorFields holds fields for a Boot Record Descriptor.
// (ECMA-119 Section 8.2 / El Torito 2.0)
type bootRecordVolumeDescriptorFields struct {
	BootSystemIdentifier [32]byte // "EL TORITO SPECIFICATION", zero-padded
	BootIdentifier       [32]byte
	BootCatalogLBA       uint32 // little-endian only
}

// directoryRecordFields represents the fixed-size part of a Directory Record.
// (ECMA-119 Section 9.1)
type directoryRecordFields struct {
	ExtendedAttributeRecordLength byte
	LocationExtent                BothEndianUint32
	DataLength                    BothEndianUint32
	RecordingTime                 [7]byte
	FileFlags                     byte
	FileUnitSize                  byte
	InterleaveGapSize             byte
	VolumeSequenceNumber          BothEndianUint16
}

// File flag bits (ECMA-119 Section 9.1.6).
const (
	fileFlagHidden      byte = 0x01
	fileFlagDirectory   byte = 0x02
	fileFlagAssociated  byte = 0x04
	fileFlagMultiExtent byte = 0x80
)

// pathTableRecordFields represents the fixed-size part of a Path Table Record.
// (ECMA-119 Section 9.4)
type pathTableRecordFields struct {
	ExtendedAttributeRecordLength byte
	LocationOfExtent              uint32 // single-endian: LE in the L-table, BE in the M-table
	ParentDirectoryNumber         uint16 // same endianness as LocationOfExtent within a table
}
