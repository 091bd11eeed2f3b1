package core

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/bitcask-core/internal/utils"
)

// RepairSegment scans the segment at path and truncates it at the start of
// the first record that cannot be decoded, dropping the partial tail a crash
// mid-append leaves behind. It returns the number of bytes removed.
//
// The segment must not be open for appending while it is repaired.
func RepairSegment(path string, opts ...Option) (removed int64, err error) {
	cfg := defaultSegmentConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	seg := NewSegment(path, ModeRead, opts...)
	if err := seg.Open(); err != nil {
		return 0, err
	}

	var end int64
	scanErr := seg.Scan(func(info RecordInfo) error {
		end = info.Offset + info.Length
		return nil
	})
	size := seg.Size()

	if err := seg.Close(); err != nil {
		return 0, err
	}
	if scanErr == nil {
		return 0, nil
	}
	if !errors.Is(scanErr, ErrCorruptRecord) {
		return 0, scanErr
	}

	if err := utils.TruncateFileAt(path, end); err != nil {
		return 0, fmt.Errorf("failed to truncate segment %s at %d: %w", path, end, err)
	}

	cfg.logger.Warn("truncated corrupt segment tail",
		zap.String("segment", path),
		zap.Int64("offset", end),
		zap.Int64("removed", size-end),
		zap.NamedError("cause", scanErr))

	return size - end, nil
}
