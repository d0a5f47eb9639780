package blockfs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/dargueta/blockfs/device"
)

func newTestFileSystem(t *testing.T) *FileSystem {
	t.Helper()

	size := int64(device.TotalBlocks) * device.BlockSize
	stream := bytesextra.NewReadWriteSeeker(make([]byte, size))

	require.NoError(t, FormatStream(stream))

	fs := OpenStream(stream)
	require.NoError(t, fs.Mount())
	return fs
}

// Invariant 2: after mkfs, the data bitmap's first FirstDataBlock+1 bits are
// set and the inode bitmap has only bit 0 set.
func TestInvariantPostFormatBitmapState(t *testing.T) {
	fs := newTestFileSystem(t)

	allocatedBlocks, err := fs.blocks.CountAllocated()
	require.NoError(t, err)
	assert.EqualValues(t, fs.super.FirstDataBlock+1, allocatedBlocks)

	allocatedInodes, err := fs.inodes.CountAllocated()
	require.NoError(t, err)
	assert.EqualValues(t, 1, allocatedInodes)
}

// Invariant 6: delete returns both bitmaps to their post-mkfs baseline.
func TestInvariantDeleteFreesBitmapsToBaseline(t *testing.T) {
	fs := newTestFileSystem(t)

	baselineInodes, err := fs.inodes.CountAllocated()
	require.NoError(t, err)
	baselineBlocks, err := fs.blocks.CountAllocated()
	require.NoError(t, err)

	ok, derr := fs.Create("transient")
	require.NoError(t, derr)
	require.True(t, ok)

	fd, derr := fs.OpenFile("transient")
	require.NoError(t, derr)
	_, derr = fs.WriteFile(fd, bytes.Repeat([]byte{1}, device.BlockSize*3))
	require.NoError(t, derr)
	require.True(t, fs.CloseFile(fd))

	ok, derr = fs.Delete("transient")
	require.NoError(t, derr)
	require.True(t, ok)

	afterInodes, err := fs.inodes.CountAllocated()
	require.NoError(t, err)
	afterBlocks, err := fs.blocks.CountAllocated()
	require.NoError(t, err)

	assert.Equal(t, baselineInodes, afterInodes)
	assert.Equal(t, baselineBlocks, afterBlocks)
}

// Invariant 3: every live inode's non-zero direct blocks have their
// data-bitmap bit set, and no two live inodes share a direct block.
func TestInvariantNoSharedDirectBlocks(t *testing.T) {
	fs := newTestFileSystem(t)

	for _, name := range []string{"a", "b", "c"} {
		ok, err := fs.Create(name)
		require.NoError(t, err)
		require.True(t, ok)

		fd, err := fs.OpenFile(name)
		require.NoError(t, err)
		_, err = fs.WriteFile(fd, bytes.Repeat([]byte{0xFF}, device.BlockSize*2))
		require.NoError(t, err)
		require.True(t, fs.CloseFile(fd))
	}

	owners := make(map[uint32]uint32)
	for i := uint32(0); i < fs.super.TotalInodes; i++ {
		inode, err := fs.ReadInode(i)
		if err != nil {
			continue
		}
		for _, db := range inode.DirectBlocks {
			if db == 0 {
				continue
			}
			allocated, err := fs.blocks.IsAllocated(db)
			require.NoError(t, err)
			assert.True(t, allocated)

			if prev, seen := owners[db]; seen {
				t.Fatalf("data block %d shared by inodes %d and %d", db, prev, i)
			}
			owners[db] = i
		}
	}
}
