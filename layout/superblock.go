package layout

import (
	"bytes"
	"encoding/binary"

	"github.com/dargueta/blockfs/errors"
)

// Superblock is the in-memory form of the filesystem header written to
// block 0. Once mounted it is cached for the lifetime of the mount; no
// operation besides mount ever re-reads it from disk.
type Superblock struct {
	Magic            uint32
	BlockSize        uint32
	TotalBlocks      uint32
	TotalInodes      uint32
	DataBitmapStart  uint32
	DataBitmapCount  uint32
	InodeBitmapStart uint32
	InodeBitmapCount uint32
	InodeTableStart  uint32
	InodeTableCount  uint32
	FirstDataBlock   uint32
}

// NewSuperblock builds the superblock for a freshly formatted image, with
// the fixed geometry baked into this package's constants.
func NewSuperblock() Superblock {
	return Superblock{
		Magic:            Magic,
		BlockSize:        BlockSize,
		TotalBlocks:      TotalBlocks,
		TotalInodes:      TotalInodes,
		DataBitmapStart:  DataBitmapStart,
		DataBitmapCount:  DataBitmapEnd - DataBitmapStart + 1,
		InodeBitmapStart: InodeBitmapStart,
		InodeBitmapCount: InodeBitmapEnd - InodeBitmapStart + 1,
		InodeTableStart:  InodeTableStart,
		InodeTableCount:  InodeTableEnd - InodeTableStart + 1,
		FirstDataBlock:   FirstDataBlock,
	}
}

// Encode writes the superblock's fields into the first bytes of buf, which
// must be exactly one block (4096 bytes) long. The remainder of buf is left
// untouched by this call; callers format a fresh block of zeros first.
func (sb Superblock) Encode(buf []byte) errors.DriverError {
	if len(buf) != 4096 {
		return errors.ErrBufferSize.WithMessage("superblock buffer must be one block")
	}

	var out bytes.Buffer
	fields := []uint32{
		sb.Magic, sb.BlockSize, sb.TotalBlocks, sb.TotalInodes,
		sb.DataBitmapStart, sb.DataBitmapCount,
		sb.InodeBitmapStart, sb.InodeBitmapCount,
		sb.InodeTableStart, sb.InodeTableCount,
		sb.FirstDataBlock,
	}
	for _, f := range fields {
		if err := binary.Write(&out, binary.LittleEndian, f); err != nil {
			return errors.ErrShortIO.WrapError(err)
		}
	}
	copy(buf, out.Bytes())
	return nil
}

// DecodeSuperblock reads a superblock from the first bytes of buf (a single
// 4096-byte block). It does not validate the magic; callers check that
// themselves so they can report a dedicated "invalid magic" error.
func DecodeSuperblock(buf []byte) (Superblock, errors.DriverError) {
	if len(buf) != 4096 {
		return Superblock{}, errors.ErrBufferSize.WithMessage("superblock buffer must be one block")
	}

	reader := bytes.NewReader(buf)
	var values [11]uint32
	if err := binary.Read(reader, binary.LittleEndian, &values); err != nil {
		return Superblock{}, errors.ErrShortIO.WrapError(err)
	}

	return Superblock{
		Magic:            values[0],
		BlockSize:        values[1],
		TotalBlocks:      values[2],
		TotalInodes:      values[3],
		DataBitmapStart:  values[4],
		DataBitmapCount:  values[5],
		InodeBitmapStart: values[6],
		InodeBitmapCount: values[7],
		InodeTableStart:  values[8],
		InodeTableCount:  values[9],
		FirstDataBlock:   values[10],
	}, nil
}
