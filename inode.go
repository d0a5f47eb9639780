package blockfs

import (
	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/errors"
	"github.com/dargueta/blockfs/layout"
)

// inodeLocation returns the inode-table block holding inode index i and the
// byte offset within that block where its 128-byte record starts.
func inodeLocation(super layout.Superblock, index uint32) (block uint32, offset uint32) {
	block = super.InodeTableStart + index/layout.InodesPerBlock
	offset = (index % layout.InodesPerBlock) * layout.InodeSize
	return
}

// ReadInode reads inode index from the inode table. It fails if index is
// out of range or its inode-bitmap bit is clear.
func (fs *FileSystem) ReadInode(index uint32) (layout.Inode, errors.DriverError) {
	if err := fs.requireMounted(); err != nil {
		return layout.Inode{}, err
	}
	if index >= fs.super.TotalInodes {
		return layout.Inode{}, errors.ErrInvalidIndex.WithMessage("inode index out of range")
	}

	allocated, err := fs.inodes.IsAllocated(index)
	if err != nil {
		return layout.Inode{}, err
	}
	if !allocated {
		return layout.Inode{}, errors.ErrUnallocated.WithMessage("inode is unallocated")
	}

	block, offset := inodeLocation(fs.super, index)
	buf := make([]byte, device.BlockSize)
	if err := fs.dev.ReadBlock(block, buf); err != nil {
		return layout.Inode{}, err
	}

	return layout.DecodeInode(buf[offset : offset+layout.InodeSize])
}

// WriteInode writes inode to inode table slot index, flushing the modified
// inode-table block. It fails under the same conditions as ReadInode.
func (fs *FileSystem) WriteInode(index uint32, inode layout.Inode) errors.DriverError {
	if err := fs.requireMounted(); err != nil {
		return err
	}
	if index >= fs.super.TotalInodes {
		return errors.ErrInvalidIndex.WithMessage("inode index out of range")
	}

	allocated, err := fs.inodes.IsAllocated(index)
	if err != nil {
		return err
	}
	if !allocated {
		return errors.ErrUnallocated.WithMessage("inode is unallocated")
	}

	block, offset := inodeLocation(fs.super, index)
	buf := make([]byte, device.BlockSize)
	if err := fs.dev.ReadBlock(block, buf); err != nil {
		return err
	}

	copy(buf[offset:offset+layout.InodeSize], layout.EncodeInode(inode))
	return fs.dev.WriteBlock(block, buf)
}

// AllocateInode finds the first free inode-bitmap bit, sets it, initializes
// the table entry to a zeroed inode with ref_count 1, and returns its
// index.
func (fs *FileSystem) AllocateInode() (uint32, errors.DriverError) {
	if err := fs.requireMounted(); err != nil {
		return 0, err
	}

	index, err := fs.inodes.Allocate()
	if err != nil {
		return 0, err
	}

	if err := fs.WriteInode(index, layout.Inode{RefCount: 1}); err != nil {
		return 0, err
	}
	return index, nil
}

// AllocateDataBlock finds the first free data-bitmap bit, sets it, and
// returns its index. The caller is responsible for zeroing the block
// before use.
func (fs *FileSystem) AllocateDataBlock() (uint32, errors.DriverError) {
	if err := fs.requireMounted(); err != nil {
		return 0, err
	}
	return fs.blocks.Allocate()
}

// FreeDataBlock clears the data-bitmap bit for block index.
func (fs *FileSystem) FreeDataBlock(index uint32) errors.DriverError {
	if err := fs.requireMounted(); err != nil {
		return err
	}
	return fs.blocks.Release(index)
}

// FreeInode clears the inode-bitmap bit for inode index.
func (fs *FileSystem) FreeInode(index uint32) errors.DriverError {
	if err := fs.requireMounted(); err != nil {
		return err
	}
	return fs.inodes.Release(index)
}
