package blockfs

import (
	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/errors"
	"github.com/dargueta/blockfs/layout"
)

// List enumerates every live entry in the root directory's direct blocks,
// in block/slot order, skipping "." and "..".
func (fs *FileSystem) List() ([]string, errors.DriverError) {
	if err := fs.requireMounted(); err != nil {
		return nil, err
	}

	root, err := fs.ReadInode(layout.RootInodeIndex)
	if err != nil {
		return nil, err
	}

	var names []string
	buf := make([]byte, device.BlockSize)

	for i := 0; i < layout.DirectBlockCount; i++ {
		blockNum := root.DirectBlocks[i]
		if blockNum == 0 {
			continue
		}

		if err := fs.dev.ReadBlock(blockNum, buf); err != nil {
			return nil, err
		}

		for j := uint32(0); j < layout.DirEntriesPerBlock; j++ {
			entry, err := layout.DecodeDirEntry(buf[j*layout.DirEntrySize : (j+1)*layout.DirEntrySize])
			if err != nil {
				return nil, err
			}
			if entry.Empty() {
				continue
			}

			name := entry.NameString()
			if name == "." || name == ".." {
				continue
			}
			names = append(names, name)
		}
	}

	return names, nil
}
