// Sentinel error values for every fatal and capacity-exhaustion condition
// blockfs's core defines. Named after the condition rather than a POSIX
// errno, since this filesystem has no syscall-layer obligations.

package errors

import (
	"fmt"
)

type BlockfsError string

const ErrNotMounted = BlockfsError("filesystem is not mounted")
const ErrAlreadyMounted = BlockfsError("filesystem is already mounted")
const ErrInvalidMagic = BlockfsError("image has an invalid or missing superblock magic")
const ErrInvalidIndex = BlockfsError("index out of range")
const ErrUnallocated = BlockfsError("index is not allocated")
const ErrNoFreeInode = BlockfsError("no free inode")
const ErrNoFreeDataBlock = BlockfsError("no free data block")
const ErrRootDirectoryFull = BlockfsError("root directory is full")
const ErrWrongMode = BlockfsError("inode has the wrong mode for this operation")
const ErrShortIO = BlockfsError("short read or write against the backing store")
const ErrBufferSize = BlockfsError("buffer is not exactly one block in size")

func (e BlockfsError) Error() string {
	return string(e)
}

func (e BlockfsError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), message),
		originalError: e,
	}
}

func (e BlockfsError) WrapError(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: err,
	}
}
