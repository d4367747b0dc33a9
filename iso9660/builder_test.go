package iso9660

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFileSource is an in-memory FileSource, used so tests don't need real files on disk.
type memFileSource struct{ data []byte }

func (s memFileSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func smallImageOptions(t *testing.T) *FormatOptions {
	input := NewFileInput()
	input.Append(FileEntry{Path: "/README.TXT", Source: memFileSource{data: []byte("hello hadris")}, Length: 12, ModTime: time.Unix(0, 0)})
	input.Append(FileEntry{Path: "/docs", IsDir: true, ModTime: time.Unix(0, 0)})
	input.Append(FileEntry{Path: "/docs/notes.txt", Source: memFileSource{data: []byte("some notes")}, Length: 10, ModTime: time.Unix(0, 0)})

	opts := DefaultFormatOptions()
	opts.Files = input
	opts.VolumeID = "HADRISTEST"
	opts.EnableJoliet = true
	return opts
}

func buildToTempFile(t *testing.T, opts *FormatOptions) (*ImagePlan, string) {
	b, err := NewBuilder(opts)
	require.NoError(t, err)

	path := t.TempDir() + "/hadris.iso"
	plan, err := b.BuildToFile(path)
	require.NoError(t, err)
	return plan, path
}

func TestPlanRegionsAreNonOverlapping(t *testing.T) {
	opts := smallImageOptions(t)
	plan, _ := buildToTempFile(t, opts)

	regions := plan.Regions()
	require.NotEmpty(t, regions)

	type span struct{ lo, hi uint32 }
	var spans []span
	for _, r := range regions {
		spans = append(spans, span{lo: r.LBA, hi: r.LBA + r.SectorCount})
	}
	for i := range spans {
		for j := range spans {
			if i == j {
				continue
			}
			overlap := spans[i].lo < spans[j].hi && spans[j].lo < spans[i].hi
			assert.False(t, overlap, "region %d (%s) overlaps region %d (%s)", i, regions[i].Kind, j, regions[j].Kind)
		}
	}
}

func TestBuildAndReadRoundTrip(t *testing.T) {
	opts := smallImageOptions(t)
	plan, path := buildToTempFile(t, opts)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(plan.TotalSectors())*SectorSize, info.Size(), "file size must match the plan exactly")

	rd, err := OpenReader(f)
	require.NoError(t, err)

	root, err := rd.RootDirectory()
	require.NoError(t, err)
	assert.True(t, root.IsDir)

	entries, err := rd.ReadDir("/")
	require.NoError(t, err)
	names := map[string]*DirEntry{}
	for _, e := range entries {
		names[e.Name] = e
	}
	require.Contains(t, names, "README.TXT")
	require.Contains(t, names, "docs")
	assert.True(t, names["docs"].IsDir)

	r, err := rd.Open("/README.TXT")
	require.NoError(t, err)
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello hadris", string(content))

	nested, err := rd.Lookup("/docs/notes.txt")
	require.NoError(t, err)
	assert.False(t, nested.IsDir)
	assert.Equal(t, uint64(10), nested.Length)
}

func TestBuildDeterministicAcrossRuns(t *testing.T) {
	opts1 := smallImageOptions(t)
	opts1.timestamp = time.Unix(1700000000, 0).UTC()
	_, path1 := buildToTempFile(t, opts1)

	opts2 := smallImageOptions(t)
	opts2.timestamp = time.Unix(1700000000, 0).UTC()
	_, path2 := buildToTempFile(t, opts2)

	b1, err := os.ReadFile(path1)
	require.NoError(t, err)
	b2, err := os.ReadFile(path2)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(b1, b2), "two builds from identical options and a fixed clock must produce byte-identical images")
}

func TestBuildDeterministicAcrossRunsWithGPTPartitions(t *testing.T) {
	opts1 := smallImageOptions(t)
	opts1.timestamp = time.Unix(1700000000, 0).UTC()
	opts1.Strictness = StrictnessCompatible
	opts1.Partitions = PartitionGPT
	_, path1 := buildToTempFile(t, opts1)

	opts2 := smallImageOptions(t)
	opts2.timestamp = time.Unix(1700000000, 0).UTC()
	opts2.Strictness = StrictnessCompatible
	opts2.Partitions = PartitionGPT
	_, path2 := buildToTempFile(t, opts2)

	b1, err := os.ReadFile(path1)
	require.NoError(t, err)
	b2, err := os.ReadFile(path2)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(b1, b2), "the GPT disk/partition GUIDs must be derived deterministically, not drawn from uuid.New()")
}

func TestStrictModeRejectsOversizeFile(t *testing.T) {
	input := NewFileInput()
	input.Append(FileEntry{Path: "/huge.bin", Source: memFileSource{}, Length: maxSingleExtentFileSize + 1})

	opts := DefaultFormatOptions()
	opts.Files = input
	opts.Strictness = StrictnessStrict

	b, err := NewBuilder(opts)
	require.NoError(t, err)
	_, err = b.Plan()
	require.Error(t, err)
	var isoErr *Error
	require.ErrorAs(t, err, &isoErr)
	assert.Equal(t, KindInvalidInput, isoErr.Kind)
}
