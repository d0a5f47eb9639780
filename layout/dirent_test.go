package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/blockfs/layout"
)

func TestDirEntryRoundTrip(t *testing.T) {
	entry := layout.NewDirEntry(42, "report.txt")

	encoded := layout.EncodeDirEntry(entry)
	assert.Len(t, encoded, layout.DirEntrySize)

	decoded, err := layout.DecodeDirEntry(encoded)
	require.NoError(t, err)
	assert.Equal(t, entry, decoded)
	assert.Equal(t, "report.txt", decoded.NameString())
}

func TestDirEntryEmpty(t *testing.T) {
	var blank layout.DirEntry
	assert.True(t, blank.Empty())

	entry := layout.NewDirEntry(1, "x")
	assert.False(t, entry.Empty())
}

func TestDirEntriesPerBlockPacksExactly(t *testing.T) {
	assert.Equal(t, layout.BlockSize, layout.DirEntriesPerBlock*layout.DirEntrySize)
}

func TestMaxNameLengthFitsInEntry(t *testing.T) {
	name := make([]byte, layout.MaxNameLength)
	for i := range name {
		name[i] = 'a'
	}
	entry := layout.NewDirEntry(7, string(name))
	decoded, err := layout.DecodeDirEntry(layout.EncodeDirEntry(entry))
	require.NoError(t, err)
	assert.Equal(t, string(name), decoded.NameString())
}
