package iso9660

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuspEntryEnvelope(t *testing.T) {
	e := suspEntry([2]byte{'N', 'M'}, 1, []byte{0x00, 'f', 'o', 'o'})
	require.Len(t, e, 8)
	assert.Equal(t, byte('N'), e[0])
	assert.Equal(t, byte('M'), e[1])
	assert.Equal(t, byte(8), e[2], "length byte includes the 4-byte SUSP envelope")
	assert.Equal(t, byte(1), e[3])
	assert.Equal(t, []byte{0x00, 'f', 'o', 'o'}, e[4:])
}

func TestComputeRockRidgeEntriesSetsInlineOnlyForShortName(t *testing.T) {
	n := &node{name: "short.txt", modTime: time.Unix(0, 0), mode: 0o100644}
	opts := DefaultFormatOptions()

	computeRockRidgeEntries(n, opts, false)

	require.NotEmpty(t, n.rrInline)
	assert.Empty(t, n.rrContinuation, "a short name's SUSP payload fits entirely inline")

	assert.Equal(t, byte('R'), n.rrInline[0])
	assert.Equal(t, byte('R'), n.rrInline[1])
}

func TestComputeRockRidgeEntriesIsIdempotent(t *testing.T) {
	n := &node{name: "short.txt", modTime: time.Unix(0, 0)}
	opts := DefaultFormatOptions()

	computeRockRidgeEntries(n, opts, false)
	first := append([]byte{}, n.rrInline...)

	computeRockRidgeEntries(n, opts, false)
	assert.Equal(t, first, n.rrInline, "calling twice must not recompute or duplicate entries")
}

func TestComputeRockRidgeEntriesSplitsLongNameToContinuation(t *testing.T) {
	longName := ""
	for i := 0; i < 150; i++ {
		longName += "x"
	}
	n := &node{name: longName, modTime: time.Unix(0, 0)}
	opts := DefaultFormatOptions()

	computeRockRidgeEntries(n, opts, false)

	assert.LessOrEqual(t, len(n.rrInline), rrContinuationBudget)
	assert.NotEmpty(t, n.rrContinuation, "a long NM payload should overflow into the continuation area")
}

func TestBuildRockRidgeEntriesAppendsCEWhenContinuationPresent(t *testing.T) {
	longName := ""
	for i := 0; i < 150; i++ {
		longName += "y"
	}
	n := &node{name: longName, modTime: time.Unix(0, 0), rrContinuationLBA: 99, rrContinuationOffset: 0}
	opts := DefaultFormatOptions()

	out := buildRockRidgeEntries(n, opts, false)
	require.Greater(t, len(out), len(n.rrInline))

	ce := out[len(out)-28:]
	assert.Equal(t, byte('C'), ce[0])
	assert.Equal(t, byte('E'), ce[1])
	assert.Equal(t, byte(28), ce[2])
}

func TestBuildSLPayloadEncodesDotAndDotDotSegments(t *testing.T) {
	out := buildSLPayload("../foo")
	require.NotEmpty(t, out)
	assert.Equal(t, byte(0x00), out[0], "SL flags byte has no continuation bit set")

	assert.Equal(t, byte(0x04), out[1], "first component is the reserved .. flag")
	assert.Equal(t, byte(0x00), out[2])

	assert.Equal(t, byte(0x00), out[3], "second component is a plain name, flags zero")
	assert.Equal(t, byte(3), out[4])
	assert.Equal(t, "foo", string(out[5:8]))
}

func TestComputeRockRidgeEntriesAddsPNForDeviceNode(t *testing.T) {
	n := &node{
		name:        "dev0",
		modTime:     time.Unix(0, 0),
		mode:        0o020644, // S_IFCHR
		deviceMajor: 5,
		deviceMinor: 1,
	}
	opts := DefaultFormatOptions()

	computeRockRidgeEntries(n, opts, false)
	require.Empty(t, n.rrContinuation, "this device node's SUSP payload fits inline")

	pnOffset := -1
	for i := 0; i+1 < len(n.rrInline); i++ {
		if n.rrInline[i] == 'P' && n.rrInline[i+1] == 'N' {
			pnOffset = i
			break
		}
	}
	require.NotEqual(t, -1, pnOffset, "expected a PN entry for a device node")

	require.GreaterOrEqual(t, len(n.rrInline), pnOffset+20)
	assert.Equal(t, byte(20), n.rrInline[pnOffset+2], "PN entry length is 20 bytes")

	payload := n.rrInline[pnOffset+4 : pnOffset+20]
	devHigh, okHigh := ParseBothEndianUint32(payload[0:8])
	devLow, okLow := ParseBothEndianUint32(payload[8:16])
	require.True(t, okHigh)
	require.True(t, okLow)
	assert.Equal(t, BothEndianUint32(0), devHigh)
	assert.Equal(t, BothEndianUint32((uint32(5)<<16)|1), devLow)
}

func TestComputeRockRidgeEntriesOmitsPNForRegularFile(t *testing.T) {
	n := &node{name: "plain.txt", modTime: time.Unix(0, 0), mode: 0o100644}
	opts := DefaultFormatOptions()

	computeRockRidgeEntries(n, opts, false)

	for i := 0; i+1 < len(n.rrInline); i++ {
		if n.rrInline[i] == 'P' && n.rrInline[i+1] == 'N' {
			t.Fatalf("unexpected PN entry for a regular file at offset %d", i)
		}
	}
}

func TestEstimateRockRidgeLenCoversSymlinkEntry(t *testing.T) {
	n := &node{name: "link", modTime: time.Unix(0, 0), mode: 0o120777, symlink: "../some/deeply/nested/target/file.txt"}
	opts := DefaultFormatOptions()

	estimate := estimateRockRidgeLen(n)

	actual := buildRockRidgeEntries(n, opts, false)
	assert.LessOrEqual(t, len(actual), estimate, "estimateRockRidgeLen must not undersize a symlink's directory record")
}

func TestSplitPathSegmentsDropsEmptyComponents(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitPathSegments("/a/b/"))
	assert.Equal(t, []string{".."}, splitPathSegments(".."))
}
