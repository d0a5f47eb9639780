package blockfs

import (
	"io"

	"github.com/boljen/go-bitmap"
	"github.com/sirupsen/logrus"

	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/errors"
	"github.com/dargueta/blockfs/layout"
)

// Format initializes a freshly zeroed image at path into a mountable,
// empty filesystem: it writes the superblock, zeros the inode bitmap,
// marks every metadata block and the root directory's first data block
// allocated in the data bitmap, marks the root inode allocated, and writes
// the root inode and its initial directory block with "." and ".."
// entries. The image file must already exist and be the right size; use
// CreateImage first if it doesn't.
func Format(path string) errors.DriverError {
	f, err := Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return formatFileSystem(f)
}

// FormatStream is the stream-based counterpart to Format, for backing
// stores that are already open (again, chiefly an in-memory image in a
// test) rather than addressed by a filesystem path.
func FormatStream(stream io.ReadWriteSeeker) errors.DriverError {
	return formatFileSystem(OpenStream(stream))
}

func formatFileSystem(f *FileSystem) errors.DriverError {
	if err := f.dev.ZeroFormat(); err != nil {
		return err
	}

	super := layout.NewSuperblock()
	buf := make([]byte, device.BlockSize)
	if err := super.Encode(buf); err != nil {
		return err
	}
	if err := f.dev.WriteBlock(layout.SuperblockBlock, buf); err != nil {
		return err
	}

	// Inode bitmap: zeroed (no inodes allocated yet).
	zero := make([]byte, device.BlockSize)
	for b := layout.InodeBitmapStart; b <= layout.InodeBitmapEnd; b++ {
		if err := f.dev.WriteBlock(b, zero); err != nil {
			return err
		}
	}

	// Data bitmap: bits 0..FirstDataBlock inclusive are pre-committed
	// (every metadata block plus the root directory's first data block).
	first := make([]byte, device.BlockSize)
	bm := bitmap.Bitmap(first)
	for i := uint32(0); i <= layout.FirstDataBlock; i++ {
		bm.Set(int(i), true)
	}
	if err := f.dev.WriteBlock(layout.DataBitmapStart, first); err != nil {
		return err
	}
	for b := layout.DataBitmapStart + 1; b <= layout.DataBitmapEnd; b++ {
		if err := f.dev.WriteBlock(b, zero); err != nil {
			return err
		}
	}

	// Inode bitmap bit 0: the root inode.
	rootBitmapBlock := make([]byte, device.BlockSize)
	bitmap.Bitmap(rootBitmapBlock).Set(0, true)
	if err := f.dev.WriteBlock(layout.InodeBitmapStart, rootBitmapBlock); err != nil {
		return err
	}

	// Root inode, at the start of the first inode-table block.
	root := layout.Inode{
		Mode:     layout.ModeDirectory,
		Size:     2 * layout.DirEntrySize,
		RefCount: 2,
	}
	root.DirectBlocks[0] = layout.FirstDataBlock

	inodeBlock := make([]byte, device.BlockSize)
	copy(inodeBlock, layout.EncodeInode(root))
	if err := f.dev.WriteBlock(layout.InodeTableStart, inodeBlock); err != nil {
		return err
	}

	// Root directory's first data block: "." and "..", both pointing at
	// the root inode itself.
	dirBlock := make([]byte, device.BlockSize)
	dot := layout.NewDirEntry(layout.RootInodeIndex, ".")
	dotdot := layout.NewDirEntry(layout.RootInodeIndex, "..")
	copy(dirBlock[0:layout.DirEntrySize], layout.EncodeDirEntry(dot))
	copy(dirBlock[layout.DirEntrySize:2*layout.DirEntrySize], layout.EncodeDirEntry(dotdot))
	if err := f.dev.WriteBlock(layout.FirstDataBlock, dirBlock); err != nil {
		return err
	}

	if f.Logger != nil {
		f.Logger.WithFields(logrus.Fields{"path": f.diskPath}).Info("blockfs: formatted image")
	}
	return nil
}
