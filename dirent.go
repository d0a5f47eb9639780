package blockfs

import (
	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/errors"
	"github.com/dargueta/blockfs/layout"
)

// dirSlot identifies one directory-entry slot: which of the root's twelve
// direct blocks it lives in, and the entry index within that block.
type dirSlot struct {
	blockNum   uint32
	entryIndex uint32
}

// lookupInRoot does a linear scan of root's direct blocks in order,
// returning the first live entry whose name matches exactly.
func (fs *FileSystem) lookupInRoot(root layout.Inode, name string) (found bool, inodeIndex uint32, slot dirSlot, err errors.DriverError) {
	buf := make([]byte, device.BlockSize)

	for i := 0; i < layout.DirectBlockCount; i++ {
		blockNum := root.DirectBlocks[i]
		if blockNum == 0 {
			continue
		}

		if e := fs.dev.ReadBlock(blockNum, buf); e != nil {
			return false, 0, dirSlot{}, e
		}

		for j := uint32(0); j < layout.DirEntriesPerBlock; j++ {
			entry, e := layout.DecodeDirEntry(buf[j*layout.DirEntrySize : (j+1)*layout.DirEntrySize])
			if e != nil {
				return false, 0, dirSlot{}, e
			}
			if entry.Empty() {
				continue
			}
			if entry.NameString() == name {
				return true, entry.Inode, dirSlot{blockNum: blockNum, entryIndex: j}, nil
			}
		}
	}

	return false, 0, dirSlot{}, nil
}

// Create makes a new, empty regular file named name in the root directory.
// It returns false (without error) for an empty or over-long name, or a
// duplicate name; any other failure (not mounted, no free inode, no free
// data block, root directory full) is returned as a DriverError.
func (fs *FileSystem) Create(name string) (bool, errors.DriverError) {
	if err := fs.requireMounted(); err != nil {
		return false, err
	}
	if len(name) == 0 || len(name) > layout.MaxNameLength {
		return false, nil
	}

	root, err := fs.ReadInode(layout.RootInodeIndex)
	if err != nil {
		return false, err
	}

	found, _, _, err := fs.lookupInRoot(root, name)
	if err != nil {
		return false, err
	}
	if found {
		return false, nil
	}

	// Allocate the inode before touching the directory, so capacity
	// exhaustion is detected before any side effect is committed.
	newInodeIndex, err := fs.AllocateInode()
	if err != nil {
		return false, err
	}

	newInode := layout.Inode{Mode: layout.ModeRegular, RefCount: 1}
	if err := fs.WriteInode(newInodeIndex, newInode); err != nil {
		return false, err
	}

	inserted := false
	buf := make([]byte, device.BlockSize)
	zero := make([]byte, device.BlockSize)

	for i := 0; i < layout.DirectBlockCount && !inserted; i++ {
		if root.DirectBlocks[i] == 0 {
			newBlock, err := fs.AllocateDataBlock()
			if err != nil {
				return false, err
			}
			if err := fs.dev.WriteBlock(newBlock, zero); err != nil {
				return false, err
			}
			root.DirectBlocks[i] = newBlock
		}

		blockNum := root.DirectBlocks[i]
		if err := fs.dev.ReadBlock(blockNum, buf); err != nil {
			return false, err
		}

		for j := uint32(0); j < layout.DirEntriesPerBlock; j++ {
			entry, err := layout.DecodeDirEntry(buf[j*layout.DirEntrySize : (j+1)*layout.DirEntrySize])
			if err != nil {
				return false, err
			}
			if !entry.Empty() {
				continue
			}

			newEntry := layout.NewDirEntry(newInodeIndex, name)
			copy(buf[j*layout.DirEntrySize:(j+1)*layout.DirEntrySize], layout.EncodeDirEntry(newEntry))
			if err := fs.dev.WriteBlock(blockNum, buf); err != nil {
				return false, err
			}

			root.Size += layout.DirEntrySize
			inserted = true
			break
		}
	}

	if !inserted {
		return false, errors.ErrRootDirectoryFull
	}

	if err := fs.WriteInode(layout.RootInodeIndex, root); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes name from the root directory, freeing its inode and every
// data block it owns. It returns false (without error) if name isn't
// found or if any descriptor still has it open; delete never partially
// succeeds in that case.
func (fs *FileSystem) Delete(name string) (bool, errors.DriverError) {
	if err := fs.requireMounted(); err != nil {
		return false, err
	}
	if len(name) == 0 {
		return false, nil
	}

	root, err := fs.ReadInode(layout.RootInodeIndex)
	if err != nil {
		return false, err
	}

	found, targetInode, slot, err := fs.lookupInRoot(root, name)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	for _, desc := range fs.fdTable {
		if desc.InUse && desc.InodeIndex == targetInode {
			return false, nil
		}
	}

	inode, err := fs.ReadInode(targetInode)
	if err != nil {
		return false, err
	}

	for i := 0; i < layout.DirectBlockCount; i++ {
		if inode.DirectBlocks[i] == 0 {
			continue
		}
		if err := fs.FreeDataBlock(inode.DirectBlocks[i]); err != nil {
			return false, err
		}
		inode.DirectBlocks[i] = 0
	}

	if err := fs.FreeInode(targetInode); err != nil {
		return false, err
	}

	buf := make([]byte, device.BlockSize)
	if err := fs.dev.ReadBlock(slot.blockNum, buf); err != nil {
		return false, err
	}
	clearedEntry := layout.DirEntry{}
	copy(buf[slot.entryIndex*layout.DirEntrySize:(slot.entryIndex+1)*layout.DirEntrySize], layout.EncodeDirEntry(clearedEntry))
	if err := fs.dev.WriteBlock(slot.blockNum, buf); err != nil {
		return false, err
	}

	root.Size -= layout.DirEntrySize
	if err := fs.WriteInode(layout.RootInodeIndex, root); err != nil {
		return false, err
	}
	return true, nil
}
