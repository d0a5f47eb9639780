// Package blockfstest builds in-memory blockfs images for use in tests:
// *testing.T-scoped helpers that hand back a FileSystem over an in-memory
// backing store without touching disk.
package blockfstest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/dargueta/blockfs"
	"github.com/dargueta/blockfs/device"
)

// BlankImage returns an in-memory, all-zero backing store of exactly the
// fixed blockfs size. It is not formatted; callers that want a mountable
// image should use FormattedImage instead.
func BlankImage(t *testing.T) *blockfs.FileSystem {
	t.Helper()

	size := int64(device.TotalBlocks) * device.BlockSize
	stream := bytesextra.NewReadWriteSeeker(make([]byte, size))
	return blockfs.OpenStream(stream)
}

// FormattedImage returns a mounted FileSystem over a freshly formatted
// in-memory image: an empty root directory, ready for Create/Write/Read.
func FormattedImage(t *testing.T) *blockfs.FileSystem {
	t.Helper()

	size := int64(device.TotalBlocks) * device.BlockSize
	stream := bytesextra.NewReadWriteSeeker(make([]byte, size))

	if err := blockfs.FormatStream(stream); err != nil {
		require.NoError(t, err)
	}

	fs := blockfs.OpenStream(stream)
	if err := fs.Mount(); err != nil {
		require.NoError(t, err)
	}
	return fs
}
