package iso9660

import (
	"bytes"
)

// createPrimaryVolumeDescriptor generates the PVD sector.
func createPrimaryVolumeDescriptor(plan *ImagePlan, opts *FormatOptions) ([]byte, error) {
	header := volumeDescriptorHeader{Type: vdTypePrimary, StandardIdentifier: [5]byte{'C', 'D', '0', '0', '1'}, Version: 1}

	var pvdFields primaryVolumeDescriptorFields
	copy(pvdFields.SystemIdentifier[:], padString(opts.SystemID, 32))
	copy(pvdFields.VolumeIdentifier[:], padString(opts.VolumeID, 32))
	pvdFields.VolumeSpaceSize = BothEndianUint32(plan.totalSectors)
	pvdFields.VolumeSetSize = BothEndianUint16(1)
	pvdFields.VolumeSequenceNumber = BothEndianUint16(1)
	pvdFields.LogicalBlockSize = BothEndianUint16(SectorSize)
	pvdFields.PathTableSizeBytes = BothEndianUint32(uint32(len(plan.pvdPathTableLData)))
	pvdFields.LPathTableLocation = plan.lbaPvdPathTableL
	pvdFields.OptionalLPathTableLocation = plan.lbaPvdPathTableL2
	pvdFields.MPathTableLocation = plan.lbaPvdPathTableM
	pvdFields.OptionalMPathTableLocation = plan.lbaPvdPathTableM2

	root := plan.root
	rootDRBytes, err := createDirectoryRecordBytes(root.iso9660Sector, plan.pvdRootDirExtentSize, ".", root, false, opts, false)
	if err != nil {
		return nil, wrapf(KindIoError, "", err, "PVD: creating root directory record")
	}
	if len(rootDRBytes) != 34 {
		return nil, errorf(KindIoError, "", "PVD: marshalled root directory record length %d != 34", len(rootDRBytes))
	}
	copy(pvdFields.RootDirectoryRecord[:], rootDRBytes)

	copy(pvdFields.VolumeSetIdentifier[:], padString("", 128))
	copy(pvdFields.PublisherIdentifier[:], padString(opts.PublisherID, 128))
	copy(pvdFields.DataPreparerIdentifier[:], padString(opts.DataPreparerID, 128))
	copy(pvdFields.ApplicationIdentifier[:], padString(opts.ApplicationID, 128))
	copy(pvdFields.CopyrightFileIdentifier[:], padString(opts.CopyrightFile, 37))
	copy(pvdFields.AbstractFileIdentifier[:], padString(opts.AbstractFile, 37))
	copy(pvdFields.BibliographicFileIdentifier[:], padString(opts.BibliographicFile, 37))

	now := opts.now()
	copy(pvdFields.VolumeCreationTimestamp[:], formatTimestamp(now))
	copy(pvdFields.VolumeModificationTimestamp[:], formatTimestamp(now))
	copy(pvdFields.VolumeExpirationTimestamp[:], formatTimestamp(emptyTimestamp))
	copy(pvdFields.VolumeEffectiveTimestamp[:], formatTimestamp(now))
	pvdFields.FileStructureVersion = 1

	sector := make([]byte, SectorSize)
	copy(sector[0:7], header.marshalBinary())

	buf := new(bytes.Buffer)
	buf.WriteByte(0)
	buf.Write(pvdFields.SystemIdentifier[:])
	buf.Write(pvdFields.VolumeIdentifier[:])
	buf.Write(make([]byte, 8))
	buf.Write(pvdFields.VolumeSpaceSize.Bytes())
	buf.Write(make([]byte, 32)) // escape sequences unused in the PVD

	buf.Write(pvdFields.VolumeSetSize.Bytes())
	buf.Write(pvdFields.VolumeSequenceNumber.Bytes())
	buf.Write(pvdFields.LogicalBlockSize.Bytes())
	buf.Write(pvdFields.PathTableSizeBytes.Bytes())

	writeLE32(buf, pvdFields.LPathTableLocation)
	writeLE32(buf, pvdFields.OptionalLPathTableLocation)
	writeBE32(buf, pvdFields.MPathTableLocation)
	writeBE32(buf, pvdFields.OptionalMPathTableLocation)

	buf.Write(pvdFields.RootDirectoryRecord[:])
	buf.Write(pvdFields.VolumeSetIdentifier[:])
	buf.Write(pvdFields.PublisherIdentifier[:])
	buf.Write(pvdFields.DataPreparerIdentifier[:])
	buf.Write(pvdFields.ApplicationIdentifier[:])
	buf.Write(pvdFields.CopyrightFileIdentifier[:])
	buf.Write(pvdFields.AbstractFileIdentifier[:])
	buf.Write(pvdFields.BibliographicFileIdentifier[:])
	buf.Write(pvdFields.VolumeCreationTimestamp[:])
	buf.Write(pvdFields.VolumeModificationTimestamp[:])
	buf.Write(pvdFields.VolumeExpirationTimestamp[:])
	buf.Write(pvdFields.VolumeEffectiveTimestamp[:])
	buf.WriteByte(pvdFields.FileStructureVersion)

	copy(sector[7:7+buf.Len()], buf.Bytes())
	return sector, nil
}

// createSupplementaryVolumeDescriptor generates the SVD sector (Joliet).
func createSupplementaryVolumeDescriptor(plan *ImagePlan, opts *FormatOptions) ([]byte, error) {
	header := volumeDescriptorHeader{Type: vdTypeSupplementary, StandardIdentifier: [5]byte{'C', 'D', '0', '0', '1'}, Version: 1}

	var svdFields supplementaryVolumeDescriptorFields
	copy(svdFields.SystemIdentifier[:], padString(opts.SystemID, 32))
	copy(svdFields.VolumeIdentifier[:], padUTF16StringBE(jolietOr(opts.VolumeIDJoliet, opts.VolumeID), 16))
	svdFields.VolumeSpaceSize = BothEndianUint32(plan.totalSectors)
	// UCS-2 Level 3 escape sequence (ISO 2375 registration 173), the convention every
	// Joliet-aware OS actually checks for.
	copy(svdFields.EscapeSequences[0:3], []byte{0x25, 0x2F, 0x45})
	svdFields.VolumeSetSize = BothEndianUint16(1)
	svdFields.VolumeSequenceNumber = BothEndianUint16(1)
	svdFields.LogicalBlockSize = BothEndianUint16(SectorSize)
	svdFields.PathTableSizeBytes = BothEndianUint32(uint32(len(plan.svdPathTableLData)))
	svdFields.LPathTableLocation = plan.lbaSvdPathTableL
	svdFields.OptionalLPathTableLocation = plan.lbaSvdPathTableL2
	svdFields.MPathTableLocation = plan.lbaSvdPathTableM
	svdFields.OptionalMPathTableLocation = plan.lbaSvdPathTableM2

	root := plan.root
	rootDRBytes, err := createDirectoryRecordBytes(root.jolietSector, plan.svdRootDirExtentSize, ".", root, true, opts, false)
	if err != nil {
		return nil, wrapf(KindIoError, "", err, "SVD: creating root directory record")
	}
	if len(rootDRBytes) != 34 {
		return nil, errorf(KindIoError, "", "SVD: marshalled root directory record length %d != 34", len(rootDRBytes))
	}
	copy(svdFields.RootDirectoryRecord[:], rootDRBytes)

	copy(svdFields.VolumeSetIdentifier[:], padUTF16StringBE("", 64))
	copy(svdFields.PublisherIdentifier[:], padUTF16StringBE(jolietOr(opts.PublisherIDJoliet, opts.PublisherID), 64))
	copy(svdFields.DataPreparerIdentifier[:], padUTF16StringBE(jolietOr(opts.DataPreparerIDJoliet, opts.DataPreparerID), 64))
	copy(svdFields.ApplicationIdentifier[:], padUTF16StringBE(jolietOr(opts.ApplicationIDJoliet, opts.ApplicationID), 64))

	copy(svdFields.CopyrightFileIdentifier[:], padUTF16StringBEToFixedBytes("", 18, 37))
	copy(svdFields.AbstractFileIdentifier[:], padUTF16StringBEToFixedBytes("", 18, 37))
	copy(svdFields.BibliographicFileIdentifier[:], padUTF16StringBEToFixedBytes("", 18, 37))

	now := opts.now()
	copy(svdFields.VolumeCreationTimestamp[:], formatTimestamp(now))
	copy(svdFields.VolumeModificationTimestamp[:], formatTimestamp(now))
	copy(svdFields.VolumeExpirationTimestamp[:], formatTimestamp(emptyTimestamp))
	copy(svdFields.VolumeEffectiveTimestamp[:], formatTimestamp(now))
	svdFields.FileStructureVersion = 1

	sector := make([]byte, SectorSize)
	copy(sector[0:7], header.marshalBinary())

	buf := new(bytes.Buffer)
	buf.WriteByte(svdFields.VolumeFlags)
	buf.Write(svdFields.SystemIdentifier[:])
	buf.Write(svdFields.VolumeIdentifier[:])
	buf.Write(make([]byte, 8))
	buf.Write(svdFields.VolumeSpaceSize.Bytes())
	buf.Write(svdFields.EscapeSequences[:])

	buf.Write(svdFields.VolumeSetSize.Bytes())
	buf.Write(svdFields.VolumeSequenceNumber.Bytes())
	buf.Write(svdFields.LogicalBlockSize.Bytes())
	buf.Write(svdFields.PathTableSizeBytes.Bytes())

	writeLE32(buf, svdFields.LPathTableLocation)
	writeLE32(buf, svdFields.OptionalLPathTableLocation)
	writeBE32(buf, svdFields.MPathTableLocation)
	writeBE32(buf, svdFields.OptionalMPathTableLocation)

	buf.Write(svdFields.RootDirectoryRecord[:])
	buf.Write(svdFields.VolumeSetIdentifier[:])
	buf.Write(svdFields.PublisherIdentifier[:])
	buf.Write(svdFields.DataPreparerIdentifier[:])
	buf.Write(svdFields.ApplicationIdentifier[:])
	buf.Write(svdFields.CopyrightFileIdentifier[:])
	buf.Write(svdFields.AbstractFileIdentifier[:])
	buf.Write(svdFields.BibliographicFileIdentifier[:])
	buf.Write(svdFields.VolumeCreationTimestamp[:])
	buf.Write(svdFields.VolumeModificationTimestamp[:])
	buf.Write(svdFields.VolumeExpirationTimestamp[:])
	buf.Write(svdFields.VolumeEffectiveTimestamp[:])
	buf.WriteByte(svdFields.FileStructureVersion)

	copy(sector[7:], buf.Bytes())
	return sector, nil
}

// createBootRecordVolumeDescriptor generates the El Torito Boot Record Descriptor,
// which carries nothing but the boot catalog's own LBA.
func createBootRecordVolumeDescriptor(plan *ImagePlan) []byte {
	header := volumeDescriptorHeader{Type: vdTypeBootRecord, StandardIdentifier: [5]byte{'C', 'D', '0', '0', '1'}, Version: 1}
	sector := make([]byte, SectorSize)
	copy(sector[0:7], header.marshalBinary())
	copy(sector[7:39], padString(elToritoSystemID, 32))
	// BootIdentifier (39:71) left zeroed; writeLEUint32At writes the catalog LBA at 71.
	writeLEUint32At(sector, 71, plan.bootCatalogLBA)
	return sector
}

// createVolumeDescriptorTerminator generates the VD Set Terminator sector.
func createVolumeDescriptorTerminator() []byte {
	sector := make([]byte, SectorSize)
	header := volumeDescriptorHeader{Type: vdTypeTerminator, StandardIdentifier: [5]byte{'C', 'D', '0', '0', '1'}, Version: 1}
	copy(sector[0:7], header.marshalBinary())
	return sector
}

func jolietOr(jolietValue, fallback string) string {
	if jolietValue != "" {
		return jolietValue
	}
	return fallback
}
