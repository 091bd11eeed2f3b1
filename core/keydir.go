package core

import "fmt"

// KeyDirEntry locates the latest record for a key.
//
// Offset and Length address the whole record (header included) inside the
// segment identified by FileID, so the entry can be passed straight to
// Segment.Read. The value's own position and size come from decoding the
// record header.
type KeyDirEntry struct {
	FileID    uint32 // Segment containing the record
	Offset    int64  // Byte offset in the segment where the record starts
	Length    int64  // Total size of the record on disk (header + key + value)
	Timestamp uint64 // Timestamp of the record
}

// KeyDir is the in-memory index mapping keys to their latest on-disk record.
//
// It trusts the caller to keep it consistent with the log and has no locking
// of its own.
type KeyDir struct {
	entries map[string]KeyDirEntry
}

func NewKeyDir() *KeyDir {
	return &KeyDir{entries: make(map[string]KeyDirEntry)}
}

// AddEntry inserts entry for key, replacing any previous entry.
func (kd *KeyDir) AddEntry(key []byte, entry KeyDirEntry) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if entry.Offset < 0 || entry.Length < 0 {
		return fmt.Errorf("%w: offset and length must be non-negative (offset=%d, length=%d)",
			ErrInvalidArgument, entry.Offset, entry.Length)
	}

	if kd.entries == nil {
		kd.entries = make(map[string]KeyDirEntry)
	}
	kd.entries[string(key)] = entry
	return nil
}

// GetEntry reports the entry for key and whether one exists.
func (kd *KeyDir) GetEntry(key []byte) (KeyDirEntry, bool, error) {
	if err := validateKey(key); err != nil {
		return KeyDirEntry{}, false, err
	}

	entry, ok := kd.entries[string(key)]
	return entry, ok, nil
}

// RemoveEntry drops key from the directory. Removing an absent key is a no-op.
func (kd *KeyDir) RemoveEntry(key []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	delete(kd.entries, string(key))
	return nil
}

func validateKey(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidArgument)
	}
	return nil
}
