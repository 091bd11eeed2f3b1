package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/0xRadioAc7iv/bitcask-core/internal/config"
	"github.com/0xRadioAc7iv/bitcask-core/internal/shell"
)

func TestRepl(t *testing.T) {
	cfg := config.Config{SegmentPath: filepath.Join(t.TempDir(), "bk_0.data")}
	sh, err := shell.New(cfg, zaptest.NewLogger(t), nil, nil)
	require.NoError(t, err)
	defer sh.Close()

	in := strings.NewReader("set k v\n\nget k\nbogus\nexit\nget k\n")
	var out bytes.Buffer

	require.NoError(t, repl(context.Background(), sh, in, &out))

	got := out.String()
	assert.Contains(t, got, "OK offset=0 length=18")
	assert.Contains(t, got, "> v\n")
	assert.Contains(t, got, `error: unknown command "bogus"`)
	assert.Equal(t, 1, strings.Count(got, "> v\n"), "commands after exit must not run")
}

func TestReplEndOfInput(t *testing.T) {
	cfg := config.Config{SegmentPath: filepath.Join(t.TempDir(), "bk_0.data")}
	sh, err := shell.New(cfg, zaptest.NewLogger(t), nil, nil)
	require.NoError(t, err)
	defer sh.Close()

	var out bytes.Buffer
	require.NoError(t, repl(context.Background(), sh, strings.NewReader("size"), &out))
	assert.Contains(t, out.String(), "> 0\n")
}

func TestReplCancelled(t *testing.T) {
	cfg := config.Config{SegmentPath: filepath.Join(t.TempDir(), "bk_0.data")}
	sh, err := shell.New(cfg, zaptest.NewLogger(t), nil, nil)
	require.NoError(t, err)
	defer sh.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	require.NoError(t, repl(ctx, sh, strings.NewReader(""), &out))
}
