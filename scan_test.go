package marshal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scanForByte builds a ScanFunc that stops at the first occurrence of target.
func scanForByte(target byte) ScanFunc {
	return func(window []byte) int {
		if window[0] == target {
			return 0
		}
		for i, b := range window {
			if b == target {
				return i
			}
		}
		return len(window)
	}
}

func TestScanFindsMatch(t *testing.T) {
	ms := NewFixedBuffer(seq(10))

	res, err := ms.Scan(1, -1, scanForByte(10))
	require.NoError(t, err)
	assert.Equal(t, ScanResult{BytesRead: 9, IsPositiveMatch: true}, res)
	assert.EqualValues(t, 9, ms.Position())
}

func TestScanExhaustsStream(t *testing.T) {
	ms := NewFixedBuffer(seq(10))

	res, err := ms.Scan(1, -1, scanForByte(0xFF))
	require.NoError(t, err)
	assert.Equal(t, ScanResult{BytesRead: 10, IsEndOfStream: true}, res)
	assert.EqualValues(t, 10, ms.Position())
}

func TestScanStopsAtMaxBytes(t *testing.T) {
	ms := NewFixedBuffer(seq(10))

	res, err := ms.Scan(1, 4, scanForByte(0xFF))
	require.NoError(t, err)
	assert.Equal(t, ScanResult{BytesRead: 4}, res)
	assert.EqualValues(t, 4, ms.Position())
}

func TestScanSoftCeilingForWidePatterns(t *testing.T) {
	// With a 3-byte minimum window and a 4-byte cap, the final window is
	// still widened to 3 bytes so a boundary-spanning pattern stays
	// checkable; consumption may overshoot the cap by up to 2.
	ms := NewFixedBuffer(seq(10))

	res, err := ms.Scan(3, 4, func(window []byte) int {
		require.GreaterOrEqual(t, len(window), 3)
		return 3
	})
	require.NoError(t, err)
	assert.Equal(t, ScanResult{BytesRead: 6}, res)
}

func TestScanOnWrappedStream(t *testing.T) {
	ms, err := NewStreamSize(&memStore{data: seq(100)}, false, 16)
	require.NoError(t, err)

	res, err := ms.Scan(1, -1, scanForByte(77))
	require.NoError(t, err)
	assert.Equal(t, ScanResult{BytesRead: 76, IsPositiveMatch: true}, res)
	assert.EqualValues(t, 76, ms.Position())
}

func TestScanContractViolations(t *testing.T) {
	t.Run("ConsumesMoreThanWindow", func(t *testing.T) {
		ms := NewFixedBuffer(seq(10))
		_, err := ms.Scan(1, -1, func(window []byte) int { return len(window) + 1 })
		assert.ErrorIs(t, err, ErrScanConsumedOutOfRange)
	})

	t.Run("NegativeConsumption", func(t *testing.T) {
		ms := NewFixedBuffer(seq(10))
		_, err := ms.Scan(1, -1, func(window []byte) int { return -1 })
		assert.ErrorIs(t, err, ErrScanConsumedOutOfRange)
	})

	t.Run("WindowExceedsFixedBuffer", func(t *testing.T) {
		ms := NewFixedBuffer(seq(10))
		_, err := ms.Scan(11, -1, scanForByte(1))
		assert.ErrorIs(t, err, ErrExceedsBufferCapacity)
	})

	t.Run("WindowExceedsStreamBuffer", func(t *testing.T) {
		ms, err := NewStreamSize(&memStore{data: seq(100)}, false, 16)
		require.NoError(t, err)
		_, err = ms.Scan(17, -1, scanForByte(1))
		assert.ErrorIs(t, err, ErrExceedsBufferCapacity)
	})

	t.Run("ZeroMinimum", func(t *testing.T) {
		ms := NewFixedBuffer(seq(10))
		_, err := ms.Scan(0, -1, scanForByte(1))
		assert.ErrorIs(t, err, ErrExceedsBufferCapacity)
	})
}

func TestScanToCapturesConsumedBytes(t *testing.T) {
	ms := NewFixedBuffer([]byte("abcdef"))

	var dst bytes.Buffer
	res, err := ms.ScanTo(1, -1, scanForByte('d'), &dst)
	require.NoError(t, err)
	assert.True(t, res.IsPositiveMatch)
	assert.EqualValues(t, 3, res.BytesRead)
	assert.Equal(t, "abc", dst.String())

	// The match byte itself is not consumed.
	b, err := ms.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('d'), b)
}

func TestMatchEmptySequence(t *testing.T) {
	ms := NewFixedBuffer(seq(4))
	res, err := ms.Match(nil)
	require.NoError(t, err)
	assert.Equal(t, MatchResult{IsMatch: true}, res)
	assert.Zero(t, ms.Position())
}

func TestMatchFullSequence(t *testing.T) {
	ms := NewFixedBuffer([]byte("hello world"))
	res, err := ms.Match([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, MatchResult{IsMatch: true, BytesRead: 5}, res)
	assert.EqualValues(t, 5, ms.Position())
}

func TestMatchMismatchConsumesThroughMismatch(t *testing.T) {
	ms := NewFixedBuffer([]byte("hello"))
	res, err := ms.Match([]byte("help"))
	require.NoError(t, err)
	assert.Equal(t, MatchResult{BytesRead: 4}, res)
	assert.EqualValues(t, 4, ms.Position())
}

func TestMatchEndOfStream(t *testing.T) {
	ms := NewFixedBuffer([]byte("he"))
	res, err := ms.Match([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, MatchResult{BytesRead: 2, IsEndOfStream: true}, res)
}

func TestMatchToCapturesConsumedBytes(t *testing.T) {
	ms := NewFixedBuffer([]byte("hello"))
	var dst bytes.Buffer

	res, err := ms.MatchTo([]byte("help"), &dst)
	require.NoError(t, err)
	assert.False(t, res.IsMatch)
	assert.Equal(t, "hell", dst.String(), "consumed bytes include the mismatch")
}

func TestMatchAcrossBufferRefills(t *testing.T) {
	content := bytes.Repeat([]byte("abcd"), 20)
	ms, err := NewStreamSize(&memStore{data: content}, false, 16)
	require.NoError(t, err)

	res, err := ms.Match(content)
	require.NoError(t, err)
	assert.Equal(t, MatchResult{IsMatch: true, BytesRead: 80}, res)
}
