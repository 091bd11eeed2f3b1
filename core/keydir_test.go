package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xRadioAc7iv/bitcask-core/core"
)

var testEntry = core.KeyDirEntry{FileID: 1, Offset: 100, Length: 10, Timestamp: 123456}

func assertEntry(t *testing.T, kd *core.KeyDir, key []byte, want core.KeyDirEntry, wantOK bool) {
	t.Helper()

	got, ok, err := kd.GetEntry(key)
	require.NoError(t, err)
	assert.Equal(t, wantOK, ok)
	assert.Equal(t, want, got)
}

func TestKeyDirAddAndGet(t *testing.T) {
	t.Run("new key", func(t *testing.T) {
		kd := core.NewKeyDir()
		require.NoError(t, kd.AddEntry([]byte("Test Key"), testEntry))
		assertEntry(t, kd, []byte("Test Key"), testEntry, true)
	})

	t.Run("update existing key", func(t *testing.T) {
		kd := core.NewKeyDir()
		updated := core.KeyDirEntry{FileID: 2, Offset: 200, Length: 20, Timestamp: 123457}

		require.NoError(t, kd.AddEntry([]byte("test_key"), testEntry))
		require.NoError(t, kd.AddEntry([]byte("test_key"), updated))
		assertEntry(t, kd, []byte("test_key"), updated, true)
	})

	t.Run("zero offset and length", func(t *testing.T) {
		kd := core.NewKeyDir()
		zero := core.KeyDirEntry{FileID: 1, Timestamp: 123456}

		require.NoError(t, kd.AddEntry([]byte("Zero Test"), zero))
		assertEntry(t, kd, []byte("Zero Test"), zero, true)
	})

	t.Run("nonexistent key", func(t *testing.T) {
		kd := core.NewKeyDir()
		assertEntry(t, kd, []byte("Non-Existent Key"), core.KeyDirEntry{}, false)
	})

	t.Run("repeated identical adds", func(t *testing.T) {
		kd := core.NewKeyDir()
		for i := 0; i < 3; i++ {
			require.NoError(t, kd.AddEntry([]byte("k"), testEntry))
		}
		assertEntry(t, kd, []byte("k"), testEntry, true)
	})

	t.Run("key bytes are copied", func(t *testing.T) {
		kd := core.NewKeyDir()
		key := []byte("mutable")
		require.NoError(t, kd.AddEntry(key, testEntry))

		key[0] = 'M'
		assertEntry(t, kd, []byte("mutable"), testEntry, true)
		assertEntry(t, kd, []byte("Mutable"), core.KeyDirEntry{}, false)
	})

	t.Run("zero value keydir", func(t *testing.T) {
		var kd core.KeyDir
		assertEntry(t, &kd, []byte("k"), core.KeyDirEntry{}, false)
		require.NoError(t, kd.AddEntry([]byte("k"), testEntry))
		assertEntry(t, &kd, []byte("k"), testEntry, true)
	})
}

func TestKeyDirInvalidArguments(t *testing.T) {
	kd := core.NewKeyDir()

	tests := []struct {
		name string
		call func() error
	}{
		{"add nil key", func() error { return kd.AddEntry(nil, testEntry) }},
		{"add empty key", func() error { return kd.AddEntry([]byte{}, testEntry) }},
		{"add negative offset", func() error {
			return kd.AddEntry([]byte("k"), core.KeyDirEntry{FileID: 1, Offset: -1, Length: 10})
		}},
		{"add negative length", func() error {
			return kd.AddEntry([]byte("k"), core.KeyDirEntry{FileID: 1, Offset: 10, Length: -10})
		}},
		{"get empty key", func() error {
			_, _, err := kd.GetEntry(nil)
			return err
		}},
		{"remove empty key", func() error { return kd.RemoveEntry([]byte{}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), core.ErrInvalidArgument)
		})
	}

	assertEntry(t, kd, []byte("k"), core.KeyDirEntry{}, false)
}

func TestKeyDirRemove(t *testing.T) {
	t.Run("removed key is absent", func(t *testing.T) {
		kd := core.NewKeyDir()
		require.NoError(t, kd.AddEntry([]byte("To Be Removed"), testEntry))
		assertEntry(t, kd, []byte("To Be Removed"), testEntry, true)

		require.NoError(t, kd.RemoveEntry([]byte("To Be Removed")))
		assertEntry(t, kd, []byte("To Be Removed"), core.KeyDirEntry{}, false)
	})

	t.Run("removing nonexistent key is a no-op", func(t *testing.T) {
		kd := core.NewKeyDir()
		require.NoError(t, kd.RemoveEntry([]byte("Non-Existent Key")))
		assertEntry(t, kd, []byte("Non-Existent Key"), core.KeyDirEntry{}, false)
	})

	t.Run("remove leaves other keys", func(t *testing.T) {
		kd := core.NewKeyDir()
		require.NoError(t, kd.AddEntry([]byte("a"), testEntry))
		require.NoError(t, kd.AddEntry([]byte("b"), testEntry))

		require.NoError(t, kd.RemoveEntry([]byte("a")))
		assertEntry(t, kd, []byte("b"), testEntry, true)
	})
}

func TestKeyDirMultipleKeys(t *testing.T) {
	kd := core.NewKeyDir()
	keys := [][]byte{[]byte("key1"), []byte("key2"), []byte("key3")}
	entries := make([]core.KeyDirEntry, len(keys))
	for i := range keys {
		n := i + 1
		entries[i] = core.KeyDirEntry{
			FileID:    uint32(n),
			Offset:    int64(n * 100),
			Length:    int64(n * 10),
			Timestamp: uint64(123456 + n),
		}
	}

	for i, key := range keys {
		require.NoError(t, kd.AddEntry(key, entries[i]))
	}
	for i, key := range keys {
		assertEntry(t, kd, key, entries[i], true)
	}
	for _, key := range keys {
		require.NoError(t, kd.RemoveEntry(key))
		assertEntry(t, kd, key, core.KeyDirEntry{}, false)
	}
}

func TestKeyDirLastWriteWins(t *testing.T) {
	kd := core.NewKeyDir()
	key := []byte("MultiOp Key")

	first := core.KeyDirEntry{FileID: 1, Offset: 100, Length: 10, Timestamp: 123456}
	updated := core.KeyDirEntry{FileID: 2, Offset: 200, Length: 20, Timestamp: 123457}
	second := core.KeyDirEntry{FileID: 3, Offset: 300, Length: 30, Timestamp: 123458}
	final := core.KeyDirEntry{FileID: 4, Offset: 400, Length: 40, Timestamp: 123459}

	require.NoError(t, kd.AddEntry(key, first))
	assertEntry(t, kd, key, first, true)

	require.NoError(t, kd.AddEntry(key, updated))
	assertEntry(t, kd, key, updated, true)

	require.NoError(t, kd.RemoveEntry(key))
	assertEntry(t, kd, key, core.KeyDirEntry{}, false)

	require.NoError(t, kd.AddEntry(key, second))
	assertEntry(t, kd, key, second, true)

	// Timestamps are not compared; the latest call wins even with an older one
	older := core.KeyDirEntry{FileID: 5, Offset: 500, Length: 50, Timestamp: 1}
	require.NoError(t, kd.AddEntry(key, final))
	require.NoError(t, kd.AddEntry(key, older))
	assertEntry(t, kd, key, older, true)
}

func TestKeyDirSampleScenario(t *testing.T) {
	kd := core.NewKeyDir()
	want := core.KeyDirEntry{FileID: 1, Offset: 0, Length: 38, Timestamp: 1122334455}

	require.NoError(t, kd.AddEntry([]byte("k"), want))
	assertEntry(t, kd, []byte("k"), want, true)

	require.NoError(t, kd.RemoveEntry([]byte("k")))
	assertEntry(t, kd, []byte("k"), core.KeyDirEntry{}, false)
}
