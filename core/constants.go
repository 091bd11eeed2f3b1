package core

import "github.com/0xRadioAc7iv/bitcask-core/internal/record"

const (
	OneKilobyte = 1024
	OneMegabyte = 1024 * OneKilobyte // 1024 (1KB) * 1024 => 1MB

	// Permissions for newly created segment files
	DefaultFileMode = 0644

	DataFileExt = ".data"

	// Size of the fixed record header; a record is HeaderSize + key + value bytes
	HeaderSize = record.HeaderSizeBytes
)
