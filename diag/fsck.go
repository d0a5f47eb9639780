// Package diag implements a read-only consistency walk over a blockfs
// image, reported as CSV rows -- the live counterpart to the invariants a
// test suite checks against an in-memory image.
//
// It deliberately does not go through blockfs.Mount: a corrupted image
// (bad magic, orphaned bitmap bits) must still produce a report, so the
// block device is opened and read directly.
package diag

import (
	"io"
	"os"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/dargueta/blockfs/alloc"
	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/errors"
	"github.com/dargueta/blockfs/layout"
)

// Finding is one row of the consistency report.
type Finding struct {
	Kind     string `csv:"kind"`
	Location string `csv:"location"`
	Detail   string `csv:"detail"`
}

// Report opens the image at path and returns every consistency finding it
// can detect: bad magic, inodes whose direct blocks fall outside the data
// region, have a clear data-bitmap bit, or are shared with another live
// inode, and free-space summaries.
func Report(path string) ([]Finding, errors.DriverError) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, errors.ErrShortIO.WrapError(err)
	}
	defer f.Close()

	// Opened O_RDONLY: any attempted Write would fail at the OS level,
	// which is all the read-only guarantee this diagnostic needs.
	dev := device.New(f)

	buf := make([]byte, device.BlockSize)
	if derr := dev.ReadBlock(layout.SuperblockBlock, buf); derr != nil {
		return nil, derr
	}
	super, derr := layout.DecodeSuperblock(buf)
	if derr != nil {
		return nil, derr
	}

	var findings []Finding

	if super.Magic != layout.Magic {
		findings = append(findings, Finding{
			Kind:     "bad-magic",
			Location: "block 0",
			Detail:   "superblock magic does not match layout.Magic",
		})
		return findings, nil
	}

	inodes := alloc.NewRegion(dev, super.InodeBitmapStart, super.InodeBitmapCount, super.TotalInodes, "inode", errors.ErrNoFreeInode)
	blocks := alloc.NewRegion(dev, super.DataBitmapStart, super.DataBitmapCount, super.TotalBlocks, "data block", errors.ErrNoFreeDataBlock)

	freeInodes, derr := countFree(inodes, super.TotalInodes)
	if derr != nil {
		return nil, derr
	}
	freeBlocks, derr := countFree(blocks, super.TotalBlocks)
	if derr != nil {
		return nil, derr
	}
	findings = append(findings,
		Finding{Kind: "free-inodes", Location: "-", Detail: strconv.Itoa(int(freeInodes))},
		Finding{Kind: "free-data-blocks", Location: "-", Detail: strconv.Itoa(int(freeBlocks))},
	)

	owner := make(map[uint32]uint32) // data block -> owning inode
	inodeBuf := make([]byte, device.BlockSize)

	for i := uint32(0); i < super.TotalInodes; i++ {
		allocated, derr := inodes.IsAllocated(i)
		if derr != nil {
			return nil, derr
		}
		if !allocated {
			continue
		}

		block := super.InodeTableStart + i/layout.InodesPerBlock
		offset := (i % layout.InodesPerBlock) * layout.InodeSize
		if derr := dev.ReadBlock(block, inodeBuf); derr != nil {
			return nil, derr
		}
		inode, derr := layout.DecodeInode(inodeBuf[offset : offset+layout.InodeSize])
		if derr != nil {
			return nil, derr
		}

		for _, db := range inode.DirectBlocks {
			if db == 0 {
				continue
			}
			if db < super.FirstDataBlock || db >= super.TotalBlocks {
				findings = append(findings, Finding{
					Kind:     "direct-block-out-of-region",
					Location: "inode " + strconv.Itoa(int(i)),
					Detail:   "block " + strconv.Itoa(int(db)) + " is outside the data region",
				})
				continue
			}

			allocatedBit, derr := blocks.IsAllocated(db)
			if derr != nil {
				return nil, derr
			}
			if !allocatedBit {
				findings = append(findings, Finding{
					Kind:     "unallocated-direct-block",
					Location: "inode " + strconv.Itoa(int(i)),
					Detail:   "block " + strconv.Itoa(int(db)) + " has a clear data-bitmap bit",
				})
			}

			if prevOwner, seen := owner[db]; seen {
				findings = append(findings, Finding{
					Kind:     "shared-direct-block",
					Location: "inode " + strconv.Itoa(int(i)),
					Detail:   "block " + strconv.Itoa(int(db)) + " is already owned by inode " + strconv.Itoa(int(prevOwner)),
				})
			} else {
				owner[db] = i
			}
		}
	}

	return findings, nil
}

// WriteCSV renders findings as CSV to w.
func WriteCSV(w io.Writer, findings []Finding) error {
	return gocsv.Marshal(findings, w)
}

func countFree(region *alloc.Region, total uint32) (uint32, errors.DriverError) {
	used, err := region.CountAllocated()
	if err != nil {
		return 0, err
	}
	return total - used, nil
}

