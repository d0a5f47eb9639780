package blockfs_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/dargueta/blockfs"
	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/layout"
)

func freshMount(t *testing.T) *blockfs.FileSystem {
	t.Helper()

	size := int64(device.TotalBlocks) * device.BlockSize
	stream := bytesextra.NewReadWriteSeeker(make([]byte, size))

	require.NoError(t, blockfs.FormatStream(stream))

	fs := blockfs.OpenStream(stream)
	require.NoError(t, fs.Mount())
	return fs
}

// S1: format-then-list.
func TestScenarioS1FormatThenList(t *testing.T) {
	fs := freshMount(t)

	names, err := fs.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	root, err := fs.ReadInode(layout.RootInodeIndex)
	require.NoError(t, err)
	assert.EqualValues(t, 2*layout.DirEntrySize, root.Size)
}

// S2: create-write-read.
func TestScenarioS2CreateWriteRead(t *testing.T) {
	fs := freshMount(t)

	ok, err := fs.Create("hello")
	require.NoError(t, err)
	require.True(t, ok)

	fd, err := fs.OpenFile("hello")
	require.NoError(t, err)
	require.Equal(t, 0, fd)

	n, err := fs.WriteFile(fd, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.True(t, fs.CloseFile(fd))

	fd2, err := fs.OpenFile("hello")
	require.NoError(t, err)
	require.Equal(t, 0, fd2)

	buf := make([]byte, 10)
	n, err = fs.ReadFile(fd2, buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "abc", string(buf[:3]))

	n, err = fs.ReadFile(fd2, buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

// S3: duplicate create.
func TestScenarioS3Duplicate(t *testing.T) {
	fs := freshMount(t)

	ok, err := fs.Create("hello")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = fs.Create("hello")
	require.NoError(t, err)
	assert.False(t, ok)

	names, err := fs.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, names)
}

// S4: boundary write across two direct blocks.
func TestScenarioS4BoundaryWrite(t *testing.T) {
	fs := freshMount(t)

	ok, err := fs.Create("big")
	require.NoError(t, err)
	require.True(t, ok)

	fd, err := fs.OpenFile("big")
	require.NoError(t, err)

	payload := bytes.Repeat([]byte{0x41}, device.BlockSize+1)
	n, err := fs.WriteFile(fd, payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	require.True(t, fs.CloseFile(fd))

	fd2, err := fs.OpenFile("big")
	require.NoError(t, err)

	buf := make([]byte, len(payload))
	n, err = fs.ReadFile(fd2, buf)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, buf)
}

// S5: write past the twelve-direct-block ceiling returns a short count.
func TestScenarioS5OverCeiling(t *testing.T) {
	fs := freshMount(t)

	ok, err := fs.Create("max")
	require.NoError(t, err)
	require.True(t, ok)

	fd, err := fs.OpenFile("max")
	require.NoError(t, err)

	ceiling := layout.DirectBlockCount * device.BlockSize
	payload := bytes.Repeat([]byte{0x42}, ceiling+5)

	n, err := fs.WriteFile(fd, payload)
	require.NoError(t, err)
	assert.Equal(t, ceiling, n)
	require.True(t, fs.CloseFile(fd))

	fd2, err := fs.OpenFile("max")
	require.NoError(t, err)

	buf := make([]byte, ceiling)
	n, err = fs.ReadFile(fd2, buf)
	require.NoError(t, err)
	assert.Equal(t, ceiling, n)
	assert.Equal(t, payload[:ceiling], buf)
}

// S6: delete while a descriptor is open is refused until the descriptor closes.
func TestScenarioS6DeleteInUse(t *testing.T) {
	fs := freshMount(t)

	ok, err := fs.Create("x")
	require.NoError(t, err)
	require.True(t, ok)

	fd, err := fs.OpenFile("x")
	require.NoError(t, err)

	ok, err = fs.Delete("x")
	require.NoError(t, err)
	assert.False(t, ok)

	require.True(t, fs.CloseFile(fd))

	ok, err = fs.Delete("x")
	require.NoError(t, err)
	assert.True(t, ok)

	fd2, err := fs.OpenFile("x")
	require.NoError(t, err)
	assert.Equal(t, -1, fd2)
}

// Invariant 1: a set inode-bitmap bit is exactly when read_inode succeeds.
func TestInvariantInodeBitmapMatchesReadability(t *testing.T) {
	fs := freshMount(t)

	_, err := fs.ReadInode(1)
	assert.Error(t, err)

	ok, err := fs.Create("a")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = fs.ReadInode(1)
	assert.NoError(t, err)
}

// Invariant 5: closing an already-closed descriptor fails, and the slot is
// reusable afterward.
func TestInvariantIdempotentClose(t *testing.T) {
	fs := freshMount(t)

	ok, err := fs.Create("a")
	require.NoError(t, err)
	require.True(t, ok)

	fd, err := fs.OpenFile("a")
	require.NoError(t, err)

	assert.True(t, fs.CloseFile(fd))
	assert.False(t, fs.CloseFile(fd))

	fd2, err := fs.OpenFile("a")
	require.NoError(t, err)
	assert.Equal(t, fd, fd2)
}

// Invariant 7: the second of two creates with the same name is rejected and
// exactly one live entry remains.
func TestInvariantDuplicateRejectionLeavesOneEntry(t *testing.T) {
	fs := freshMount(t)

	ok, err := fs.Create("only")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = fs.Create("only")
	require.NoError(t, err)
	assert.False(t, ok)

	names, err := fs.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, names)
}
