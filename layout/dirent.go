package layout

import (
	"bytes"
	"encoding/binary"

	"github.com/dargueta/blockfs/errors"
)

// DirEntrySize is the on-disk size, in bytes, of a single directory entry.
// The root directory's 768 slots (12 direct blocks x 64 entries per block)
// depend on this being exactly 64.
const DirEntrySize = 64

// rawDirEntry is the exact wire layout of a DirEntry.
type rawDirEntry struct {
	Inode   uint32
	NameLen uint16
	Name    [MaxNameLength]byte
	Pad     [6]byte
}

// DirEntry is one slot in a directory block. Inode == 0 marks an empty
// slot -- the root inode (index 0) is never referenced from a child slot.
// The "." and ".." entries written at format time also carry inode 0, so
// they read as empty too: lookups and List pass over them, and Create may
// reuse their slots.
type DirEntry struct {
	Inode   uint32
	NameLen uint16
	Name    [MaxNameLength]byte
}

// Empty reports whether this slot holds no entry.
func (d DirEntry) Empty() bool {
	return d.Inode == 0
}

// NameString returns the entry's name as a Go string, using only the first
// NameLen bytes of the fixed-size Name array.
func (d DirEntry) NameString() string {
	return string(d.Name[:d.NameLen])
}

// NewDirEntry builds a DirEntry for the given inode and name. The caller is
// responsible for checking that len(name) <= MaxNameLength beforehand.
func NewDirEntry(inodeIndex uint32, name string) DirEntry {
	var entry DirEntry
	entry.Inode = inodeIndex
	entry.NameLen = uint16(len(name))
	copy(entry.Name[:], name)
	return entry
}

// EncodeDirEntry renders entry as DirEntrySize bytes of little-endian wire
// format.
func EncodeDirEntry(entry DirEntry) []byte {
	raw := rawDirEntry{Inode: entry.Inode, NameLen: entry.NameLen, Name: entry.Name}
	var out bytes.Buffer
	_ = binary.Write(&out, binary.LittleEndian, raw)
	return out.Bytes()
}

// DecodeDirEntry parses DirEntrySize bytes of little-endian wire format back
// into a DirEntry.
func DecodeDirEntry(data []byte) (DirEntry, errors.DriverError) {
	if len(data) != DirEntrySize {
		return DirEntry{}, errors.ErrBufferSize.WithMessage("directory entry must be 64 bytes")
	}

	var raw rawDirEntry
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &raw); err != nil {
		return DirEntry{}, errors.ErrShortIO.WrapError(err)
	}
	return DirEntry{Inode: raw.Inode, NameLen: raw.NameLen, Name: raw.Name}, nil
}
