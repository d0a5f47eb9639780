package layout

import (
	"bytes"
	"encoding/binary"

	"github.com/dargueta/blockfs/errors"
)

// InodeSize is the on-disk size, in bytes, of a single Inode record. The
// core's block-level invariants (32 inodes per 4096-byte block) depend on
// this being exactly 128.
const InodeSize = 128

// rawInode is the exact wire layout of an Inode: fixed-width fields only,
// encoded/decoded as a single little-endian blob so its size never drifts
// with compiler padding choices.
type rawInode struct {
	Mode           uint16
	Size           uint32
	Timestamps     [3]uint64
	DirectBlocks   [DirectBlockCount]uint32
	IndirectBlocks [2]uint32
	RefCount       uint32
	Pad            [38]byte
}

// Inode describes one file or directory. Timestamps and IndirectBlocks are
// reserved: no operation in the core ever writes to them.
type Inode struct {
	Mode           uint16
	Size           uint32
	Timestamps     [3]uint64
	DirectBlocks   [DirectBlockCount]uint32
	IndirectBlocks [2]uint32
	RefCount       uint32
}

func (inode Inode) toRaw() rawInode {
	return rawInode{
		Mode:           inode.Mode,
		Size:           inode.Size,
		Timestamps:     inode.Timestamps,
		DirectBlocks:   inode.DirectBlocks,
		IndirectBlocks: inode.IndirectBlocks,
		RefCount:       inode.RefCount,
	}
}

func fromRaw(raw rawInode) Inode {
	return Inode{
		Mode:           raw.Mode,
		Size:           raw.Size,
		Timestamps:     raw.Timestamps,
		DirectBlocks:   raw.DirectBlocks,
		IndirectBlocks: raw.IndirectBlocks,
		RefCount:       raw.RefCount,
	}
}

// EncodeInode renders inode as InodeSize bytes of little-endian wire format.
func EncodeInode(inode Inode) []byte {
	var out bytes.Buffer
	// rawInode is fixed-width throughout, so this can never fail.
	_ = binary.Write(&out, binary.LittleEndian, inode.toRaw())
	return out.Bytes()
}

// DecodeInode parses InodeSize bytes of little-endian wire format back into
// an Inode.
func DecodeInode(data []byte) (Inode, errors.DriverError) {
	if len(data) != InodeSize {
		return Inode{}, errors.ErrBufferSize.WithMessage("inode record must be 128 bytes")
	}

	var raw rawInode
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &raw); err != nil {
		return Inode{}, errors.ErrShortIO.WrapError(err)
	}
	return fromRaw(raw), nil
}
