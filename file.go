package blockfs

import (
	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/errors"
	"github.com/dargueta/blockfs/layout"
)

// OpenFile looks up name in the root directory and, if found, claims the
// lowest-indexed free descriptor slot. It returns -1 (not -1 plus an
// error) if the name doesn't exist or no descriptor slot is free -- both
// are user-recoverable outcomes, not failures.
func (fs *FileSystem) OpenFile(name string) (int, errors.DriverError) {
	if err := fs.requireMounted(); err != nil {
		return -1, err
	}
	if name == "" {
		return -1, nil
	}

	root, err := fs.ReadInode(layout.RootInodeIndex)
	if err != nil {
		return -1, err
	}

	found, inodeIndex, _, err := fs.lookupInRoot(root, name)
	if err != nil {
		return -1, err
	}
	if !found {
		return -1, nil
	}

	for fd := range fs.fdTable {
		if !fs.fdTable[fd].InUse {
			fs.fdTable[fd] = fileDescriptor{InodeIndex: inodeIndex, Offset: 0, InUse: true}
			return fd, nil
		}
	}
	return -1, nil
}

// CloseFile marks fd's slot free. It's idempotent: closing an already-closed
// or out-of-range descriptor returns false, and the slot becomes available
// for reuse by a later OpenFile either way.
func (fs *FileSystem) CloseFile(fd int) bool {
	if fd < 0 || fd >= MaxOpenFiles || !fs.fdTable[fd].InUse {
		return false
	}

	fs.fdTable[fd] = fileDescriptor{}
	return true
}

// ReadFile reads into buf starting at fd's current offset, advancing it by
// the number of bytes actually read, and returns that count. It returns -1
// if fd is out of range, closed, or not a regular file; 0 at EOF.
func (fs *FileSystem) ReadFile(fd int, buf []byte) (int, errors.DriverError) {
	if err := fs.requireMounted(); err != nil {
		return -1, err
	}
	if fd < 0 || fd >= MaxOpenFiles || !fs.fdTable[fd].InUse {
		return -1, nil
	}

	desc := fs.fdTable[fd]
	inode, err := fs.ReadInode(desc.InodeIndex)
	if err != nil {
		return -1, err
	}
	if inode.Mode != layout.ModeRegular {
		return -1, nil
	}

	if desc.Offset >= inode.Size {
		return 0, nil
	}

	available := inode.Size - desc.Offset
	toRead := uint32(len(buf))
	if available < toRead {
		toRead = available
	}

	blockBuf := make([]byte, device.BlockSize)
	totalRead := uint32(0)

	for totalRead < toRead {
		currentOffset := desc.Offset + totalRead
		blockIndex := currentOffset / device.BlockSize
		blockOffset := currentOffset % device.BlockSize

		if blockIndex >= layout.DirectBlockCount {
			break
		}
		diskBlock := inode.DirectBlocks[blockIndex]
		if diskBlock == 0 {
			break
		}

		if err := fs.dev.ReadBlock(diskBlock, blockBuf); err != nil {
			return -1, err
		}

		remaining := toRead - totalRead
		fromBlock := device.BlockSize - blockOffset
		if remaining < fromBlock {
			fromBlock = remaining
		}

		copy(buf[totalRead:totalRead+fromBlock], blockBuf[blockOffset:blockOffset+fromBlock])
		totalRead += fromBlock
	}

	fs.fdTable[fd].Offset += totalRead
	return int(totalRead), nil
}

// WriteFile writes data at fd's current offset, allocating and zeroing new
// direct blocks on demand, and advances the descriptor's offset by the
// number of bytes actually written. A write that would cross the
// twelve-direct-block ceiling (12*4096 bytes) stops there and returns a
// short count rather than failing.
func (fs *FileSystem) WriteFile(fd int, data []byte) (int, errors.DriverError) {
	if err := fs.requireMounted(); err != nil {
		return -1, err
	}
	if fd < 0 || fd >= MaxOpenFiles || !fs.fdTable[fd].InUse {
		return -1, nil
	}

	desc := fs.fdTable[fd]
	inode, err := fs.ReadInode(desc.InodeIndex)
	if err != nil {
		return -1, err
	}
	if inode.Mode != layout.ModeRegular {
		return -1, nil
	}

	blockBuf := make([]byte, device.BlockSize)
	totalWritten := uint32(0)
	count := uint32(len(data))

	for totalWritten < count {
		currentOffset := desc.Offset + totalWritten
		blockIndex := currentOffset / device.BlockSize
		blockOffset := currentOffset % device.BlockSize

		if blockIndex >= layout.DirectBlockCount {
			break
		}

		if inode.DirectBlocks[blockIndex] == 0 {
			newBlock, err := fs.AllocateDataBlock()
			if err != nil {
				return -1, err
			}

			zero := make([]byte, device.BlockSize)
			if err := fs.dev.WriteBlock(newBlock, zero); err != nil {
				return -1, err
			}
			inode.DirectBlocks[blockIndex] = newBlock
		}

		diskBlock := inode.DirectBlocks[blockIndex]
		if err := fs.dev.ReadBlock(diskBlock, blockBuf); err != nil {
			return -1, err
		}

		remaining := count - totalWritten
		toBlock := device.BlockSize - blockOffset
		if remaining < toBlock {
			toBlock = remaining
		}

		copy(blockBuf[blockOffset:blockOffset+toBlock], data[totalWritten:totalWritten+toBlock])
		if err := fs.dev.WriteBlock(diskBlock, blockBuf); err != nil {
			return -1, err
		}

		totalWritten += toBlock
	}

	fs.fdTable[fd].Offset += totalWritten

	newEnd := desc.Offset + totalWritten
	if newEnd > inode.Size {
		inode.Size = newEnd
	}
	if err := fs.WriteInode(desc.InodeIndex, inode); err != nil {
		return -1, err
	}

	return int(totalWritten), nil
}
