package core_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/0xRadioAc7iv/bitcask-core/core"
)

func TestRepairSegment(t *testing.T) {
	t.Run("intact segment is untouched", func(t *testing.T) {
		path := segmentPath(t)
		_, length := appendSample(t, path)

		removed, err := core.RepairSegment(path)
		require.NoError(t, err)
		assert.Zero(t, removed)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, length, info.Size())
	})

	t.Run("partial tail is truncated", func(t *testing.T) {
		path := segmentPath(t)
		_, length := appendSample(t, path)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
		require.NoError(t, err)
		_, err = f.Write([]byte{0, 0, 0, 0, 0, 0, 0, 1, 0, 0})
		require.NoError(t, err)
		require.NoError(t, f.Close())

		removed, err := core.RepairSegment(path, core.WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, int64(10), removed)

		r := openSegment(t, path, core.ModeRead)
		assert.Equal(t, length, r.Size())

		key, value, err := r.Read(0, length)
		require.NoError(t, err)
		assert.Equal(t, sampleKey, key)
		assert.Equal(t, sampleValue, value)

		// Appends after a repair stay reachable by scanning
		w := openSegment(t, path, core.ModeAppend)
		_, _, err = w.Append([]byte("next"), []byte("record"), 2)
		require.NoError(t, err)

		require.NoError(t, r.Close())
		require.NoError(t, r.Open())
		count := 0
		require.NoError(t, r.Scan(func(core.RecordInfo) error {
			count++
			return nil
		}))
		assert.Equal(t, 2, count)
	})

	t.Run("missing segment", func(t *testing.T) {
		_, err := core.RepairSegment(filepath.Join(t.TempDir(), "missing.data"))
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})
}
