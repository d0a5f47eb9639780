package device_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/dargueta/blockfs/device"
)

func newMemDevice(t *testing.T, totalBlocks uint32) *device.BlockDevice {
	t.Helper()
	size := int64(totalBlocks) * device.BlockSize
	stream := bytesextra.NewReadWriteSeeker(make([]byte, size))
	return device.NewSized(stream, totalBlocks)
}

func TestReadWriteBlockRoundTrip(t *testing.T) {
	dev := newMemDevice(t, 8)

	payload := make([]byte, device.BlockSize)
	for i := range payload {
		payload[i] = byte(i % 256)
	}
	require.NoError(t, dev.WriteBlock(3, payload))

	out := make([]byte, device.BlockSize)
	require.NoError(t, dev.ReadBlock(3, out))
	assert.Equal(t, payload, out)
}

func TestReadWriteBlockOutOfRange(t *testing.T) {
	dev := newMemDevice(t, 8)
	buf := make([]byte, device.BlockSize)

	assert.Error(t, dev.ReadBlock(8, buf))
	assert.Error(t, dev.WriteBlock(100, buf))
}

func TestReadWriteBlockWrongBufferSize(t *testing.T) {
	dev := newMemDevice(t, 8)
	assert.Error(t, dev.ReadBlock(0, make([]byte, 10)))
	assert.Error(t, dev.WriteBlock(0, make([]byte, 10)))
}

func TestZeroFormat(t *testing.T) {
	dev := newMemDevice(t, 4)

	payload := make([]byte, device.BlockSize)
	for i := range payload {
		payload[i] = 0xAB
	}
	require.NoError(t, dev.WriteBlock(1, payload))
	require.NoError(t, dev.ZeroFormat())

	out := make([]byte, device.BlockSize)
	require.NoError(t, dev.ReadBlock(1, out))
	assert.Equal(t, make([]byte, device.BlockSize), out)
}

func TestTotalBlocks(t *testing.T) {
	dev := newMemDevice(t, 42)
	assert.EqualValues(t, 42, dev.TotalBlocks())
}
