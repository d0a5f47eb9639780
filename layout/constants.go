// Package layout defines the on-disk region map and record formats shared by
// every component above the block device: the superblock, inode, and
// directory-entry wire structs, and the block indices that divide a blockfs
// image into its metadata and data regions.
//
// All multi-byte integer fields are encoded little-endian regardless of the
// host's byte order, so an image reads the same on hosts of either
// endianness.
package layout

// Magic identifies a block 0 as a valid blockfs superblock.
const Magic uint32 = 0x12345678

// BlockSize is the fixed size, in bytes, of every block on a blockfs image.
const BlockSize = 4096

// TotalBlocks is the fixed number of blocks in a blockfs image (512 MiB).
const TotalBlocks uint32 = 131072

const (
	// SuperblockBlock is the block holding the filesystem header.
	SuperblockBlock uint32 = 0

	// InodeBitmapStart/InodeBitmapEnd bound the inode allocation bitmap: one
	// bit per inode, bit set means allocated.
	InodeBitmapStart uint32 = 1
	InodeBitmapEnd   uint32 = 2

	// DataBitmapStart/DataBitmapEnd bound the data-block allocation bitmap.
	DataBitmapStart uint32 = 3
	DataBitmapEnd   uint32 = 6

	// InodeTableStart/InodeTableEnd bound the inode table: 32 inodes per
	// block, 2048 blocks, giving 65536 inodes total.
	InodeTableStart uint32 = 7
	InodeTableEnd   uint32 = 2054

	// FirstDataBlock is the first block of the data region, and is also the
	// root directory's initial data block, pre-allocated at format time.
	FirstDataBlock uint32 = 2055
)

// TotalInodes is the number of inodes the inode table can hold.
const TotalInodes uint32 = 65536

// InodesPerBlock is the number of 128-byte Inode records packed into a
// single 4096-byte inode-table block.
const InodesPerBlock = 4096 / InodeSize

// DirEntriesPerBlock is the number of 64-byte DirEntry records packed into a
// single 4096-byte directory block.
const DirEntriesPerBlock = 4096 / DirEntrySize

// DirectBlockCount is the number of direct block pointers an Inode carries.
const DirectBlockCount = 12

// RootInodeIndex is the fixed inode index of the root directory.
const RootInodeIndex uint32 = 0

// ModeDirectory and ModeRegular are the two values Inode.Mode takes.
const (
	ModeDirectory uint16 = 0
	ModeRegular   uint16 = 1
)

// MaxNameLength is the largest name, in bytes, a DirEntry can hold.
const MaxNameLength = 52

// MaxFileSize is the largest a regular file's Inode.Size can be: twelve
// direct blocks of 4096 bytes each, with no indirect-block support.
const MaxFileSize = DirectBlockCount * 4096
