// Package device implements fixed-size block I/O over a backing store.
//
// A BlockDevice never does partial-block I/O: every read and write moves
// exactly one block (BlockSize bytes) at an offset that is a multiple of
// BlockSize. It is the lowest layer of blockfs -- everything above it
// (allocators, inode I/O, directory operations) works exclusively in terms
// of block indices and 4096-byte buffers.
package device

import (
	"fmt"
	"io"

	"github.com/dargueta/blockfs/errors"
	"github.com/dargueta/blockfs/layout"
)

// BlockSize is the fixed size, in bytes, of every block on a blockfs image.
const BlockSize = layout.BlockSize

// TotalBlocks is the fixed number of blocks in a blockfs image (512 MiB).
const TotalBlocks = layout.TotalBlocks

// Syncer is implemented by backing stores that can be flushed to stable
// storage, such as *os.File. Backing stores that don't need it (e.g. an
// in-memory buffer used in tests) simply don't implement it.
type Syncer interface {
	Sync() error
}

// BlockDevice is a block-aligned view over a ReadWriteSeeker. The device is
// opened (or otherwise constructed) and held for the lifetime of the
// component that owns it; BlockDevice itself never opens the underlying
// stream, and closes it only when Close is called.
type BlockDevice struct {
	stream      io.ReadWriteSeeker
	closer      io.Closer
	totalBlocks uint32
}

// New wraps an already-open stream as a BlockDevice with the fixed blockfs
// geometry (131072 blocks of 4096 bytes each).
func New(stream io.ReadWriteSeeker) *BlockDevice {
	return NewSized(stream, TotalBlocks)
}

// NewSized wraps a stream as a BlockDevice with an explicit block count.
// Production code always uses the fixed blockfs geometry (New); tests use
// this to exercise out-of-range behavior against smaller images.
func NewSized(stream io.ReadWriteSeeker, totalBlocks uint32) *BlockDevice {
	dev := &BlockDevice{stream: stream, totalBlocks: totalBlocks}
	if closer, ok := stream.(io.Closer); ok {
		dev.closer = closer
	}
	return dev
}

// TotalBlocks returns the number of blocks this device exposes.
func (dev *BlockDevice) TotalBlocks() uint32 {
	return dev.totalBlocks
}

func (dev *BlockDevice) checkBlockNumber(n uint32) errors.DriverError {
	if n >= dev.totalBlocks {
		msg := fmt.Sprintf("block %d not in range [0, %d)", n, dev.totalBlocks)
		return errors.ErrInvalidIndex.WithMessage(msg)
	}
	return nil
}

// ReadBlock reads block n into buf, which must be exactly BlockSize bytes
// long. It fails if n is out of range, the seek fails, or fewer than
// BlockSize bytes could be read.
func (dev *BlockDevice) ReadBlock(n uint32, buf []byte) errors.DriverError {
	if len(buf) != BlockSize {
		return errors.ErrBufferSize.WithMessage(fmt.Sprintf("got %d bytes", len(buf)))
	}
	if err := dev.checkBlockNumber(n); err != nil {
		return err
	}

	if _, err := dev.stream.Seek(int64(n)*BlockSize, io.SeekStart); err != nil {
		return errors.ErrShortIO.WrapError(err)
	}

	read, err := io.ReadFull(dev.stream, buf)
	if err != nil {
		return errors.ErrShortIO.WrapError(err)
	}
	if read != BlockSize {
		return errors.ErrShortIO.WithMessage(fmt.Sprintf("read %d of %d bytes", read, BlockSize))
	}
	return nil
}

// WriteBlock writes buf (exactly BlockSize bytes) to block n and, if the
// underlying stream implements Syncer, flushes it, so the on-disk state
// after a successful call is durable to the OS.
func (dev *BlockDevice) WriteBlock(n uint32, buf []byte) errors.DriverError {
	if len(buf) != BlockSize {
		return errors.ErrBufferSize.WithMessage(fmt.Sprintf("got %d bytes", len(buf)))
	}
	if err := dev.checkBlockNumber(n); err != nil {
		return err
	}

	if _, err := dev.stream.Seek(int64(n)*BlockSize, io.SeekStart); err != nil {
		return errors.ErrShortIO.WrapError(err)
	}

	written, err := dev.stream.Write(buf)
	if err != nil {
		return errors.ErrShortIO.WrapError(err)
	}
	if written != BlockSize {
		return errors.ErrShortIO.WithMessage(fmt.Sprintf("wrote %d of %d bytes", written, BlockSize))
	}

	if syncer, ok := dev.stream.(Syncer); ok {
		if err := syncer.Sync(); err != nil {
			return errors.ErrShortIO.WrapError(err)
		}
	}
	return nil
}

// ZeroFormat overwrites every block in the device with zeros. It is used
// only by the formatter, before it lays down the on-disk structure.
func (dev *BlockDevice) ZeroFormat() errors.DriverError {
	zero := make([]byte, BlockSize)
	for i := uint32(0); i < dev.totalBlocks; i++ {
		if err := dev.WriteBlock(i, zero); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying stream, if it supports closing. BlockDevice
// does not own the stream's lifetime beyond this -- callers that construct
// a BlockDevice over a stream they themselves opened are responsible for
// calling Close exactly once.
func (dev *BlockDevice) Close() error {
	if dev.closer == nil {
		return nil
	}
	return dev.closer.Close()
}
