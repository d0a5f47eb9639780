// Package blockfs implements a user-space virtual filesystem layered over a
// single fixed-size image file: a classic Unix-style on-disk layout
// (superblock, inode bitmap, data bitmap, inode table, data region) with a
// small POSIX-flavored API -- create, open, read, write, close, delete, and
// list -- against a single root directory. Subdirectories and paths are out
// of scope; see layout.Magic and the sibling packages for the on-disk
// format itself.
//
// A FileSystem is single-threaded cooperative: every operation runs to
// completion synchronously on the calling goroutine, there is no internal
// locking, and concurrent use from multiple goroutines is undefined.
package blockfs

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/dargueta/blockfs/alloc"
	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/errors"
	"github.com/dargueta/blockfs/layout"
)

// MaxOpenFiles is the fixed size of the in-memory open-file table. The
// table index handed back by OpenFile is the descriptor callers use for
// subsequent Read/Write/Close calls.
const MaxOpenFiles = 256

// fileDescriptor is one slot of the open-file table.
type fileDescriptor struct {
	InodeIndex uint32
	Offset     uint32
	InUse      bool
}

// FileSystem is the façade every operation in this package hangs off of. It
// owns the BlockDevice, the cached superblock, the two bitmap allocators,
// and the open-file table, and mutates them only through its own methods.
type FileSystem struct {
	dev      *device.BlockDevice
	mounted  bool
	super    layout.Superblock
	inodes   *alloc.Region
	blocks   *alloc.Region
	fdTable  [MaxOpenFiles]fileDescriptor
	Logger   *logrus.Logger
	diskPath string
}

// Open wraps an already-existing backing store file at path as an unmounted
// FileSystem, ready for Mount. It does not validate or read anything from
// the image yet -- that's Mount's job.
func Open(path string) (*FileSystem, errors.DriverError) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.ErrShortIO.WrapError(err)
	}

	return &FileSystem{
		dev:      device.New(f),
		Logger:   logrus.StandardLogger(),
		diskPath: path,
	}, nil
}

// OpenStream wraps an already-open stream as an unmounted FileSystem, the
// stream-based counterpart to Open for callers that already hold a
// ReadWriteSeeker instead of a path -- most commonly an in-memory backing
// store in a test.
func OpenStream(stream io.ReadWriteSeeker) *FileSystem {
	return &FileSystem{
		dev:    device.New(stream),
		Logger: logrus.StandardLogger(),
	}
}

// CreateImage creates (or truncates) the backing store file at path to
// exactly TotalBlocks*BlockSize bytes, ready for Format to write structure
// onto it. It does not format the image; call Format afterward.
func CreateImage(path string) errors.DriverError {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return errors.ErrShortIO.WrapError(err)
	}
	defer f.Close()

	size := int64(device.TotalBlocks) * device.BlockSize
	if err := f.Truncate(size); err != nil {
		return errors.ErrShortIO.WrapError(err)
	}
	return nil
}

// Mount opens path and mounts it in one step; equivalent to calling Open
// followed by (*FileSystem).Mount.
func Mount(path string) (*FileSystem, errors.DriverError) {
	fs, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := fs.Mount(); err != nil {
		fs.Close()
		return nil, err
	}
	return fs, nil
}

// Mount validates the superblock's magic, caches it in memory, builds the
// bitmap allocators, and marks the instance mounted. Any operation other
// than Mount on an unmounted instance is a fatal error.
func (fs *FileSystem) Mount() errors.DriverError {
	if fs.mounted {
		return errors.ErrAlreadyMounted
	}

	buf := make([]byte, device.BlockSize)
	if err := fs.dev.ReadBlock(layout.SuperblockBlock, buf); err != nil {
		return err
	}

	super, err := layout.DecodeSuperblock(buf)
	if err != nil {
		return err
	}
	if super.Magic != layout.Magic {
		return errors.ErrInvalidMagic.WithMessage(fs.diskPath)
	}

	fs.super = super
	fs.inodes = alloc.NewRegion(
		fs.dev, super.InodeBitmapStart, super.InodeBitmapCount, super.TotalInodes,
		"inode", errors.ErrNoFreeInode,
	)
	fs.blocks = alloc.NewRegion(
		fs.dev, super.DataBitmapStart, super.DataBitmapCount, super.TotalBlocks,
		"data block", errors.ErrNoFreeDataBlock,
	)
	fs.mounted = true

	if fs.Logger != nil {
		fs.Logger.WithField("path", fs.diskPath).Info("blockfs: mounted image")
	}
	return nil
}

// Unmount marks the instance unmounted. The BlockDevice's implicit flushes
// mean no explicit sync step is required here; outstanding descriptors are
// not implicitly closed.
func (fs *FileSystem) Unmount() errors.DriverError {
	if err := fs.requireMounted(); err != nil {
		return err
	}
	fs.mounted = false
	return nil
}

// Close releases the backing store's file handle. It does not unmount
// first; callers that want a clean shutdown should Unmount, then Close.
func (fs *FileSystem) Close() error {
	return fs.dev.Close()
}

// Mounted reports whether Mount has succeeded and Unmount has not since been
// called. Close does not change it.
func (fs *FileSystem) Mounted() bool {
	return fs.mounted
}

func (fs *FileSystem) requireMounted() errors.DriverError {
	if !fs.mounted {
		return errors.ErrNotMounted
	}
	return nil
}
