// Package alloc implements the scan-and-set bitmap allocators for inodes
// and data blocks.
//
// Both allocators share one scan pattern: walk the bitmap region's blocks
// in order, and within each block walk bits LSB-first within each byte.
// The first clear bit below the region's logical limit wins. There is no
// free list, so allocation is always first-fit from the start of the
// region -- this keeps files packed near the front of the data region and
// makes test output deterministic.
package alloc

import (
	"fmt"

	"github.com/boljen/go-bitmap"

	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/errors"
)

// bitsPerBlock is the number of bitmap bits stored in a single block.
const bitsPerBlock = device.BlockSize * 8

// Region is a bitmap-backed allocator over a contiguous run of bitmap
// blocks on a BlockDevice. One Region manages the inode bitmap, a second
// manages the data bitmap; both are driven by the same first-fit scan.
type Region struct {
	dev          *device.BlockDevice
	startBlock   uint32
	blockCount   uint32
	limit        uint32 // total inodes, or total data blocks
	noun         string // used only in error messages ("inode", "data block")
	exhaustedErr errors.DriverError
}

// NewRegion builds an allocator over the bitmap blocks [startBlock,
// startBlock+blockCount), where bit i of the region corresponds to object
// i, and only indices below limit are ever handed out. exhaustedErr is
// returned verbatim when Allocate finds no clear bit.
func NewRegion(dev *device.BlockDevice, startBlock, blockCount, limit uint32, noun string, exhaustedErr errors.DriverError) *Region {
	return &Region{dev: dev, startBlock: startBlock, blockCount: blockCount, limit: limit, noun: noun, exhaustedErr: exhaustedErr}
}

// Allocate scans the region for the first clear bit, sets it, writes the
// owning bitmap block back to disk, and returns the bit's global index.
func (r *Region) Allocate() (uint32, errors.DriverError) {
	buf := make([]byte, device.BlockSize)

	for blockOffset := uint32(0); blockOffset < r.blockCount; blockOffset++ {
		blockNum := r.startBlock + blockOffset
		if err := r.dev.ReadBlock(blockNum, buf); err != nil {
			return 0, err
		}

		bm := bitmap.Bitmap(buf)
		base := blockOffset * bitsPerBlock

		for bit := uint32(0); bit < bitsPerBlock; bit++ {
			index := base + bit
			if index >= r.limit {
				break
			}
			if bm.Get(int(bit)) {
				continue
			}

			bm.Set(int(bit), true)
			if err := r.dev.WriteBlock(blockNum, buf); err != nil {
				return 0, err
			}
			return index, nil
		}
	}

	return 0, r.exhaustedErr
}

// IsAllocated reports whether the bit for index is set. It fails if index
// is out of the region's logical range.
func (r *Region) IsAllocated(index uint32) (bool, errors.DriverError) {
	if index >= r.limit {
		return false, errors.ErrInvalidIndex.WithMessage(fmt.Sprintf("%s index %d", r.noun, index))
	}

	blockNum := r.startBlock + index/bitsPerBlock
	bit := index % bitsPerBlock

	buf := make([]byte, device.BlockSize)
	if err := r.dev.ReadBlock(blockNum, buf); err != nil {
		return false, err
	}

	return bitmap.Bitmap(buf).Get(int(bit)), nil
}

// Release clears the bit for index. Releasing an index that's out of range
// is a precondition violation; releasing an already-clear bit is silently
// accepted (mirrors the core's deletion path, which never double-checks
// before clearing).
func (r *Region) Release(index uint32) errors.DriverError {
	if index >= r.limit {
		return errors.ErrInvalidIndex.WithMessage(fmt.Sprintf("%s index %d", r.noun, index))
	}

	blockNum := r.startBlock + index/bitsPerBlock
	bit := index % bitsPerBlock

	buf := make([]byte, device.BlockSize)
	if err := r.dev.ReadBlock(blockNum, buf); err != nil {
		return err
	}

	bitmap.Bitmap(buf).Set(int(bit), false)
	return r.dev.WriteBlock(blockNum, buf)
}

// CountAllocated scans the whole region and returns the number of set bits
// below the logical limit. Used by tests and by the fsck diagnostic, never
// on the core's hot path.
func (r *Region) CountAllocated() (uint32, errors.DriverError) {
	buf := make([]byte, device.BlockSize)
	count := uint32(0)

	for blockOffset := uint32(0); blockOffset < r.blockCount; blockOffset++ {
		blockNum := r.startBlock + blockOffset
		if err := r.dev.ReadBlock(blockNum, buf); err != nil {
			return 0, err
		}

		bm := bitmap.Bitmap(buf)
		base := blockOffset * bitsPerBlock
		for bit := uint32(0); bit < bitsPerBlock; bit++ {
			index := base + bit
			if index >= r.limit {
				break
			}
			if bm.Get(int(bit)) {
				count++
			}
		}
	}
	return count, nil
}
