package alloc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/dargueta/blockfs/alloc"
	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/errors"
)

func newRegion(t *testing.T, blockCount, limit uint32) *alloc.Region {
	t.Helper()
	size := int64(blockCount+1) * device.BlockSize
	stream := bytesextra.NewReadWriteSeeker(make([]byte, size))
	dev := device.NewSized(stream, blockCount+1)
	return alloc.NewRegion(dev, 0, blockCount, limit, "widget", errors.ErrNoFreeDataBlock)
}

func TestAllocateIsFirstFit(t *testing.T) {
	region := newRegion(t, 1, 10)

	first, err := region.Allocate()
	require.NoError(t, err)
	assert.EqualValues(t, 0, first)

	second, err := region.Allocate()
	require.NoError(t, err)
	assert.EqualValues(t, 1, second)
}

func TestAllocateReusesReleased(t *testing.T) {
	region := newRegion(t, 1, 10)

	a, err := region.Allocate()
	require.NoError(t, err)
	_, err = region.Allocate()
	require.NoError(t, err)

	require.NoError(t, region.Release(a))

	reallocated, err := region.Allocate()
	require.NoError(t, err)
	assert.Equal(t, a, reallocated)
}

func TestAllocateExhausted(t *testing.T) {
	region := newRegion(t, 1, 3)

	for i := 0; i < 3; i++ {
		_, err := region.Allocate()
		require.NoError(t, err)
	}

	_, err := region.Allocate()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoFreeDataBlock)
}

func TestIsAllocated(t *testing.T) {
	region := newRegion(t, 1, 10)

	allocated, err := region.IsAllocated(5)
	require.NoError(t, err)
	assert.False(t, allocated)

	index, err := region.Allocate()
	require.NoError(t, err)

	allocated, err = region.IsAllocated(index)
	require.NoError(t, err)
	assert.True(t, allocated)
}

func TestIsAllocatedOutOfRange(t *testing.T) {
	region := newRegion(t, 1, 10)
	_, err := region.IsAllocated(999)
	assert.Error(t, err)
}

func TestCountAllocated(t *testing.T) {
	region := newRegion(t, 1, 10)

	count, err := region.CountAllocated()
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	_, err = region.Allocate()
	require.NoError(t, err)
	_, err = region.Allocate()
	require.NoError(t, err)

	count, err = region.CountAllocated()
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestReleaseOutOfRange(t *testing.T) {
	region := newRegion(t, 1, 10)
	assert.Error(t, region.Release(999))
}

func TestAllocationCrossesBlockBoundary(t *testing.T) {
	// One bit per object, one full block's worth of bits plus one: forces
	// the scan across a block boundary.
	limit := uint32(device.BlockSize*8 + 1)
	region := newRegion(t, 2, limit)

	for i := uint32(0); i < uint32(device.BlockSize*8); i++ {
		_, err := region.Allocate()
		require.NoError(t, err)
	}

	last, err := region.Allocate()
	require.NoError(t, err)
	assert.EqualValues(t, device.BlockSize*8, last)
}
