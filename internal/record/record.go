package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Header is the fixed-width prefix of every record on disk.
type Header struct {
	Timestamp uint64 // Operation time
	KeySize   uint32 // Length of Key in Bytes
	ValueSize uint32 // Length of Value in Bytes
}

type Record struct {
	Header
	Key   []byte
	Value []byte
}

// Timestamp (8) + KeySize (4) + ValueSize (4)
const HeaderSizeBytes = 16

var (
	ErrEmptyKey      = errors.New("record key cannot be empty")
	ErrShortHeader   = errors.New("record data doesn't include header")
	ErrShortBody     = errors.New("record data doesn't include full key-value pair")
	ErrSizeMismatch  = errors.New("record header sizes don't match key/value lengths")
	ErrFieldTooLarge = errors.New("record key or value exceeds 4GiB")
)

// RecordSize returns the total encoded length of a record with the given body sizes.
func RecordSize(keySize, valueSize uint32) int64 {
	return HeaderSizeBytes + int64(keySize) + int64(valueSize)
}

func CreateRecord(key, value []byte, timestamp uint64) (Record, error) {
	if len(key) == 0 {
		return Record{}, ErrEmptyKey
	}
	if uint64(len(key)) > math.MaxUint32 || uint64(len(value)) > math.MaxUint32 {
		return Record{}, ErrFieldTooLarge
	}

	return Record{
		Header: Header{
			Timestamp: timestamp,
			KeySize:   uint32(len(key)),
			ValueSize: uint32(len(value)),
		},
		Key:   key,
		Value: value,
	}, nil
}

// Size is the number of bytes the record occupies on disk.
func (r *Record) Size() int64 {
	return RecordSize(r.KeySize, r.ValueSize)
}

// Encode writes the header in network byte order.
func (h *Header) Encode(buf *bytes.Buffer) error {
	return binary.Write(buf, binary.BigEndian, h)
}

// DecodeHeader reads a header from the first HeaderSizeBytes of data.
func DecodeHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < HeaderSizeBytes {
		return h, fmt.Errorf("%w: got %d bytes, need %d", ErrShortHeader, len(data), HeaderSizeBytes)
	}

	h.Timestamp = binary.BigEndian.Uint64(data[0:8])
	h.KeySize = binary.BigEndian.Uint32(data[8:12])
	h.ValueSize = binary.BigEndian.Uint32(data[12:16])
	return h, nil
}

func EncodeRecordToBytes(record *Record) ([]byte, error) {
	if len(record.Key) == 0 {
		return nil, ErrEmptyKey
	}
	if int64(record.KeySize) != int64(len(record.Key)) || int64(record.ValueSize) != int64(len(record.Value)) {
		return nil, ErrSizeMismatch
	}

	buf := bytes.NewBuffer(make([]byte, 0, record.Size()))

	if err := record.Header.Encode(buf); err != nil {
		return nil, err
	}
	if _, err := buf.Write(record.Key); err != nil {
		return nil, err
	}
	if _, err := buf.Write(record.Value); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecodeRecordFromBytes decodes one record from the start of data. Bytes past
// the end of the record are ignored. Key and Value alias data.
func DecodeRecordFromBytes(data []byte) (*Record, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}

	if h.KeySize == 0 {
		return nil, ErrEmptyKey
	}

	end := RecordSize(h.KeySize, h.ValueSize)
	if end > int64(len(data)) {
		return nil, fmt.Errorf("%w: header declares %d bytes, got %d", ErrShortBody, end, len(data))
	}

	keyEnd := HeaderSizeBytes + int64(h.KeySize)

	return &Record{
		Header: h,
		Key:    data[HeaderSizeBytes:keyEnd],
		Value:  data[keyEnd:end],
	}, nil
}
