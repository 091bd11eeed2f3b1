package core

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/bitcask-core/internal/record"
)

// Mode is fixed when a Segment is created and holds for its whole lifetime.
type Mode int

const (
	ModeAppend Mode = iota // write-only, every write lands at the end of the file
	ModeRead               // read-only, random access by offset
)

func (m Mode) String() string {
	switch m {
	case ModeAppend:
		return "append"
	case ModeRead:
		return "read"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Segment is a single append-only datafile.
//
// A Segment in ModeAppend is the only writer of its file; any number of
// ModeRead segments may be open on the same path. Segment does no locking:
// callers that share one across goroutines must serialize access.
type Segment struct {
	path    string
	mode    Mode
	file    *os.File
	size    int64 // end-of-file offset as of open or the last append
	logger  *zap.Logger
	metrics *Metrics
}

// RecordInfo describes one record found by Scan. The value itself is not read.
type RecordInfo struct {
	Offset    int64
	Length    int64
	Timestamp uint64
	Key       []byte
	ValueSize uint32
}

func NewSegment(path string, mode Mode, opts ...Option) *Segment {
	cfg := defaultSegmentConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Segment{
		path:    path,
		mode:    mode,
		logger:  cfg.logger.With(zap.String("segment", path), zap.Stringer("mode", mode)),
		metrics: cfg.metrics,
	}
}

func (s *Segment) Path() string { return s.path }
func (s *Segment) Mode() Mode   { return s.mode }
func (s *Segment) IsOpen() bool { return s.file != nil }

// Size returns the known end-of-file offset. It does not touch the disk.
func (s *Segment) Size() int64 {
	return s.size
}

// Open acquires the file handle. The file is created in append mode if it
// does not exist; the parent directory must exist.
func (s *Segment) Open() error {
	if s.file != nil {
		return fmt.Errorf("open %s: %w", s.path, ErrSegmentOpen)
	}
	if s.path == "" {
		return fmt.Errorf("%w: segment path cannot be empty", ErrInvalidArgument)
	}

	var f *os.File
	var err error

	switch s.mode {
	case ModeAppend:
		f, err = os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, DefaultFileMode)
	case ModeRead:
		f, err = os.Open(s.path)
	default:
		return fmt.Errorf("%w: unknown segment mode %v", ErrInvalidArgument, s.mode)
	}
	if err != nil {
		return fmt.Errorf("failed to open segment: %w", err)
	}

	// Sets the size to the end of the file
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to seek to end of segment %s: %w", s.path, err)
	}

	s.file = f
	s.size = size

	s.logger.Debug("segment opened", zap.Int64("size", size))
	return nil
}

// Append writes one record at the end of the segment and syncs it to stable
// storage. It returns the offset the record starts at and its encoded length;
// together they address the record for Read.
func (s *Segment) Append(key, value []byte, timestamp uint64) (offset, length int64, err error) {
	if err := s.checkState(ModeAppend); err != nil {
		return 0, 0, err
	}

	r, err := record.CreateRecord(key, value, timestamp)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	encoded, err := record.EncodeRecordToBytes(&r)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	offset = s.size

	n, err := s.file.Write(encoded)
	if err != nil {
		// A short write may have left bytes behind; re-derive the end offset
		if end, serr := s.file.Seek(0, io.SeekEnd); serr == nil {
			s.size = end
		}
		return 0, 0, fmt.Errorf("failed to append record to %s: %w", s.path, err)
	}
	s.size += int64(n)

	if err := s.file.Sync(); err != nil {
		return 0, 0, fmt.Errorf("failed to sync segment %s: %w", s.path, err)
	}

	s.metrics.recordAppend(int64(n))
	return offset, int64(n), nil
}

// Read decodes the record spanning [offset, offset+length). The range is
// checked against Size, not a fresh stat of the file.
func (s *Segment) Read(offset, length int64) (key, value []byte, err error) {
	if err := s.checkState(ModeRead); err != nil {
		return nil, nil, err
	}

	if offset < 0 || length < 0 {
		return nil, nil, fmt.Errorf("%w: offset and length must be non-negative (offset=%d, length=%d)",
			ErrInvalidArgument, offset, length)
	}

	if offset > s.size || length > s.size-offset {
		s.metrics.recordReadError(readErrorBounds)
		return nil, nil, fmt.Errorf("%w: offset=%d length=%d size=%d", ErrOutOfBounds, offset, length, s.size)
	}

	buf := make([]byte, length)
	n, err := s.file.ReadAt(buf, offset)
	if n < len(buf) {
		if err == nil || errors.Is(err, io.EOF) {
			s.metrics.recordReadError(readErrorCorrupt)
			s.logger.Warn("segment shorter than expected", zap.Int64("offset", offset),
				zap.Int64("length", length), zap.Int("read", n))
			return nil, nil, fmt.Errorf("%w at offset %d: read %d of %d bytes", ErrCorruptRecord, offset, n, length)
		}
		s.metrics.recordReadError(readErrorIO)
		return nil, nil, fmt.Errorf("failed to read segment %s: %w", s.path, err)
	}

	r, err := record.DecodeRecordFromBytes(buf)
	if err != nil {
		s.metrics.recordReadError(readErrorCorrupt)
		s.logger.Warn("failed to decode record", zap.Int64("offset", offset),
			zap.Int64("length", length), zap.Error(err))
		return nil, nil, fmt.Errorf("%w at offset %d: %w", ErrCorruptRecord, offset, err)
	}

	s.metrics.recordRead()
	return r.Key, r.Value, nil
}

// Scan walks every record from the start of the segment up to Size, calling
// fn with each record's address and key. Values are not read. It stops at the
// first error returned by fn. A record running past Size is reported as
// ErrCorruptRecord; records before it have already been passed to fn.
func (s *Segment) Scan(fn func(RecordInfo) error) error {
	if err := s.checkState(ModeRead); err != nil {
		return err
	}

	header := make([]byte, HeaderSize)
	var offset int64

	for offset < s.size {
		if s.size-offset < HeaderSize {
			return fmt.Errorf("%w at offset %d: truncated header", ErrCorruptRecord, offset)
		}

		if _, err := s.file.ReadAt(header, offset); err != nil {
			return s.scanReadError(offset, err)
		}

		h, err := record.DecodeHeader(header)
		if err != nil {
			return fmt.Errorf("%w at offset %d: %w", ErrCorruptRecord, offset, err)
		}
		if h.KeySize == 0 {
			return fmt.Errorf("%w at offset %d: %w", ErrCorruptRecord, offset, record.ErrEmptyKey)
		}

		length := record.RecordSize(h.KeySize, h.ValueSize)
		if length > s.size-offset {
			return fmt.Errorf("%w at offset %d: record of %d bytes runs past end of segment (%d)",
				ErrCorruptRecord, offset, length, s.size)
		}

		key := make([]byte, h.KeySize)
		if _, err := s.file.ReadAt(key, offset+HeaderSize); err != nil {
			return s.scanReadError(offset, err)
		}

		err = fn(RecordInfo{
			Offset:    offset,
			Length:    length,
			Timestamp: h.Timestamp,
			Key:       key,
			ValueSize: h.ValueSize,
		})
		if err != nil {
			return err
		}

		offset += length
	}

	return nil
}

func (s *Segment) scanReadError(offset int64, err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w at offset %d: segment truncated", ErrCorruptRecord, offset)
	}
	return fmt.Errorf("failed to read segment %s: %w", s.path, err)
}

// Close releases the file handle. Closing a closed or never-opened segment is
// a no-op. The segment can be opened again afterwards.
func (s *Segment) Close() error {
	if s.file == nil {
		return nil
	}

	err := s.file.Close()
	s.file = nil
	s.size = 0

	if err != nil {
		return fmt.Errorf("failed to close segment %s: %w", s.path, err)
	}

	s.logger.Debug("segment closed")
	return nil
}

func (s *Segment) checkState(want Mode) error {
	if s.file == nil {
		return fmt.Errorf("%s: %w", s.path, ErrSegmentClosed)
	}
	if s.mode != want {
		return fmt.Errorf("%w: %s is open in %s mode, operation needs %s mode", ErrWrongMode, s.path, s.mode, want)
	}
	return nil
}
