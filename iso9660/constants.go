package iso9660

const (
	SectorSize             = 2048
	JolietMaxFilenameChars = 64
	SystemAreaNumSectors   = 16 // # of blank sectors at the beginning of the image

	// vdTypePrimary identifies a Primary Volume Descriptor
	vdTypePrimary byte = 1
	// vdTypeSupplementary identifies a Supplementary Volume Descriptor (used for Joliet)
	vdTypeSupplementary byte = 2
	// vdTypeBootRecord identifies a Boot Record Descriptor (El Torito)
	vdTypeBootRecord byte = 0
	// vdTypeTerminator identifies a Volume Descriptor Set Terminator
	vdTypeTerminator byte = 255

	// drFixedPartSize is the size of a Directory Record excluding identifier-related fields
	// (ECMA-119 Section 9.1)
	drFixedPartSize = 33
	// ptRecFixedPartSize is the size of a Path Table Record excluding identifier-related fields
	// (LenDI (1), ExtAttrLen (1), LocExtent (4), ParentDirNum (2))
	// (ECMA-119 Section 9.4)
	ptRecFixedPartSize = 8

	// maxSingleExtentFileSize is the largest file representable by one directory record's
	// u32 data-length field: 4 GiB - 1.
	maxSingleExtentFileSize = 0xFFFFFFFF

	// elToritoSystemID is the boot system identifier the El Torito Boot Record carries.
	elToritoSystemID = "EL TORITO SPECIFICATION"

	bootValidationKeyLo = 0x55
	bootValidationKeyHi = 0xAA

	// POSIX file-type bits within node.mode (S_IFMT and friends), used to recognize
	// device nodes for Rock Ridge's PN entry.
	modeTypeMask  = 0o170000
	modeTypeChar  = 0o020000
	modeTypeBlock = 0o060000
)
