package iso9660

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWithBootCatalogRoundTrips(t *testing.T) {
	bootImage := make([]byte, SectorSize) // one no-emulation boot sector
	for i := range bootImage {
		bootImage[i] = 0xAA
	}

	input := NewFileInput()
	input.Append(FileEntry{Path: "/boot.img", Source: memFileSource{data: bootImage}, Length: uint64(len(bootImage))})

	opts := DefaultFormatOptions()
	opts.Files = input
	opts.BootEntries = &BootOptions{
		Default: BootEntryOptions{BootImagePath: "/boot.img", Emulation: EmulationNoEmulation},
	}

	_, path := buildToTempFile(t, opts)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rd, err := OpenReader(f)
	require.NoError(t, err)

	cat, err := rd.BootCatalog()
	require.NoError(t, err)
	assert.Greater(t, cat.Default.ImageLBA, uint32(0))
	assert.Equal(t, EmulationNoEmulation, cat.Default.Emulation)
}

func TestBuildWithoutBootCatalogReportsAbsence(t *testing.T) {
	opts := smallImageOptions(t)
	_, path := buildToTempFile(t, opts)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rd, err := OpenReader(f)
	require.NoError(t, err)

	_, err = rd.BootCatalog()
	require.Error(t, err)
	var isoErr *Error
	require.ErrorAs(t, err, &isoErr)
	assert.Equal(t, KindBootCatalogError, isoErr.Kind)
}

func TestCompatibleStrictnessEmitsMBRSystemArea(t *testing.T) {
	opts := smallImageOptions(t)
	opts.Strictness = StrictnessCompatible
	opts.Partitions = PartitionMBR

	plan, path := buildToTempFile(t, opts)
	require.NotEmpty(t, plan.systemAreaBytes)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte(0x55), data[510])
	assert.Equal(t, byte(0xAA), data[511])
}

func TestLookupMissingPathReturnsInvalidInput(t *testing.T) {
	opts := smallImageOptions(t)
	_, path := buildToTempFile(t, opts)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rd, err := OpenReader(f)
	require.NoError(t, err)

	_, err = rd.Lookup("/does/not/exist")
	require.Error(t, err)
	var isoErr *Error
	require.ErrorAs(t, err, &isoErr)
	assert.Equal(t, KindInvalidInput, isoErr.Kind)
}
