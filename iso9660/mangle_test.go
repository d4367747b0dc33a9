package iso9660

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMangleLevel1NameEnforces8Dot3(t *testing.T) {
	assert.Equal(t, "README.TXT", mangleLevel1Name("readme.txt", false))
	assert.Equal(t, "VERYLONG.TXT", mangleLevel1Name("verylongname.txt", false))
	assert.Equal(t, "SUBDIR", mangleLevel1Name("subdir", true))
}

func TestMangleLevel23NameAllowsLongerNames(t *testing.T) {
	got := mangleLevel23Name("a-reasonably-long-file-name.txt", false)
	assert.LessOrEqual(t, len(got), 30)
	assert.Contains(t, got, ".")
}

func TestDedupeISO9660NameOnCollision(t *testing.T) {
	used := map[string]bool{"FOO.TXT": true}
	got, err := dedupeISO9660Name("FOO.TXT", false, used, StrictnessDefault)
	require.NoError(t, err)
	assert.NotEqual(t, "FOO.TXT", got)
	assert.Contains(t, got, "000")
}

func TestDedupeISO9660NameStrictRejectsCollision(t *testing.T) {
	used := map[string]bool{"FOO.TXT": true}
	_, err := dedupeISO9660Name("FOO.TXT", false, used, StrictnessStrict)
	assert.Error(t, err)
}

func TestMangleChildrenDedupesSiblingsDeterministically(t *testing.T) {
	root := &node{name: "", path: "/", isDir: true, pathTableDirNum: 1}
	a := &node{name: "Report.TXT", path: "/Report.TXT", parent: root}
	b := &node{name: "REPORT.txt", path: "/REPORT.txt", parent: root}
	root.children = []*node{a, b}

	opts := DefaultFormatOptions()
	require.NoError(t, mangleChildren(root, opts))

	assert.NotEqual(t, a.iso9660Name, b.iso9660Name)
	assert.True(t, a.iso9660Name == "REPORT.TXT;1" || b.iso9660Name == "REPORT.TXT;1",
		"the name that sorts first keeps the unsuffixed form")
}

func TestMangleJolietNameTruncatesAndSubstitutes(t *testing.T) {
	got := mangleJolietName("weird:name*here")
	assert.Equal(t, "weird_name_here", got)

	long := ""
	for i := 0; i < 100; i++ {
		long += "x"
	}
	assert.LessOrEqual(t, len([]rune(mangleJolietName(long))), JolietMaxFilenameChars)
}
