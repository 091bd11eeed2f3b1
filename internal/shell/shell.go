// Package shell implements the commands of the interactive segment CLI.
package shell

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/bitcask-core/core"
	"github.com/0xRadioAc7iv/bitcask-core/internal/config"
	"github.com/0xRadioAc7iv/bitcask-core/internal/utils"
)

// ErrExit is returned by Execute when the user asks to leave.
var ErrExit = errors.New("exit")

const helpText = `Commands:
  set <key> <value>        append a record and index it
  get <key>                read the latest value of key
  delete <key>             drop key from the index (the log is untouched)
  read <offset> <length>   decode the record at offset
  inspect <key>            dump the index entry and record of key
  size                     print the segment size in bytes
  scan                     rebuild the index from the segment
  stats                    print segment counters
  help                     show this message
  exit                     quit`

// Shell owns one segment opened twice, once for appending and once for
// reading, plus the keydir built over it. It is not safe for concurrent use.
type Shell struct {
	writer   *core.Segment
	reader   *core.Segment
	keydir   *core.KeyDir
	fileID   uint32
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	now      func() uint64
}

// New opens the configured segment, repairing a corrupt tail first, and
// indexes its records.
func New(cfg config.Config, logger *zap.Logger, metrics *core.Metrics, gatherer prometheus.Gatherer) (*Shell, error) {
	opts := []core.Option{core.WithLogger(logger), core.WithMetrics(metrics)}

	if utils.PathExists(cfg.SegmentPath) {
		if _, err := core.RepairSegment(cfg.SegmentPath, opts...); err != nil {
			return nil, err
		}
	}

	sh := &Shell{
		writer:   core.NewSegment(cfg.SegmentPath, core.ModeAppend, opts...),
		reader:   core.NewSegment(cfg.SegmentPath, core.ModeRead, opts...),
		keydir:   core.NewKeyDir(),
		fileID:   cfg.FileID,
		gatherer: gatherer,
		logger:   logger,
		now:      func() uint64 { return uint64(time.Now().Unix()) },
	}

	// The writer creates the file, so it has to be opened before the reader
	if err := sh.writer.Open(); err != nil {
		return nil, err
	}
	if err := sh.reader.Open(); err != nil {
		sh.writer.Close()
		return nil, err
	}

	if _, err := sh.rebuild(); err != nil {
		sh.Close()
		return nil, err
	}

	return sh, nil
}

func (sh *Shell) Close() error {
	return errors.Join(sh.writer.Close(), sh.reader.Close())
}

// Execute runs one command line and returns what should be printed.
func (sh *Shell) Execute(line string) (string, error) {
	cmd, args, err := utils.SplitStringIntoCommandAndArguments(line)
	if err != nil {
		return "", err
	}

	switch cmd {
	case "set":
		if err := expectArgs(cmd, args, 2); err != nil {
			return "", err
		}
		return sh.set([]byte(args[0]), []byte(args[1]))
	case "get":
		if err := expectArgs(cmd, args, 1); err != nil {
			return "", err
		}
		return sh.get([]byte(args[0]))
	case "delete":
		if err := expectArgs(cmd, args, 1); err != nil {
			return "", err
		}
		if err := sh.keydir.RemoveEntry([]byte(args[0])); err != nil {
			return "", err
		}
		return "OK", nil
	case "read":
		if err := expectArgs(cmd, args, 2); err != nil {
			return "", err
		}
		return sh.read(args[0], args[1])
	case "inspect":
		if err := expectArgs(cmd, args, 1); err != nil {
			return "", err
		}
		return sh.inspect([]byte(args[0]))
	case "size":
		return strconv.FormatInt(sh.writer.Size(), 10), nil
	case "scan":
		n, err := sh.rebuild()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("indexed %d records", n), nil
	case "stats":
		return sh.stats()
	case "help":
		return helpText, nil
	case "exit", "quit":
		return "", ErrExit
	default:
		return "", fmt.Errorf("unknown command %q, type 'help' for a list", cmd)
	}
}

func (sh *Shell) set(key, value []byte) (string, error) {
	timestamp := sh.now()

	offset, length, err := sh.writer.Append(key, value, timestamp)
	if err != nil {
		return "", err
	}

	entry := core.KeyDirEntry{FileID: sh.fileID, Offset: offset, Length: length, Timestamp: timestamp}
	if err := sh.keydir.AddEntry(key, entry); err != nil {
		return "", err
	}

	return fmt.Sprintf("OK offset=%d length=%d", offset, length), nil
}

func (sh *Shell) get(key []byte) (string, error) {
	entry, ok, err := sh.keydir.GetEntry(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "(nil)", nil
	}

	_, value, err := sh.readEntry(entry)
	if err != nil {
		return "", err
	}
	return string(value), nil
}

func (sh *Shell) read(offsetArg, lengthArg string) (string, error) {
	offset, err := strconv.ParseInt(offsetArg, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: offset %q is not a number", core.ErrInvalidArgument, offsetArg)
	}
	length, err := strconv.ParseInt(lengthArg, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: length %q is not a number", core.ErrInvalidArgument, lengthArg)
	}

	key, value, err := sh.readEntry(core.KeyDirEntry{Offset: offset, Length: length})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("key=%q value=%q", key, value), nil
}

func (sh *Shell) inspect(key []byte) (string, error) {
	entry, ok, err := sh.keydir.GetEntry(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "(nil)", nil
	}

	k, v, err := sh.readEntry(entry)
	if err != nil {
		return "", err
	}

	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
	return strings.TrimRight(cfg.Sdump(entry, k, v), "\n"), nil
}

// readEntry reads through the reader segment, reopening it first when the
// record lies past the size the reader saw at open.
func (sh *Shell) readEntry(entry core.KeyDirEntry) ([]byte, []byte, error) {
	if entry.Offset >= 0 && entry.Length >= 0 && entry.Offset+entry.Length > sh.reader.Size() {
		if err := sh.refreshReader(); err != nil {
			return nil, nil, err
		}
	}
	return sh.reader.Read(entry.Offset, entry.Length)
}

func (sh *Shell) refreshReader() error {
	if err := sh.reader.Close(); err != nil {
		return err
	}
	return sh.reader.Open()
}

// rebuild replaces the keydir with one built by scanning the segment and
// returns the number of records seen.
func (sh *Shell) rebuild() (int, error) {
	if err := sh.refreshReader(); err != nil {
		return 0, err
	}

	keydir := core.NewKeyDir()
	count := 0

	err := sh.reader.Scan(func(info core.RecordInfo) error {
		count++
		return keydir.AddEntry(info.Key, core.KeyDirEntry{
			FileID:    sh.fileID,
			Offset:    info.Offset,
			Length:    info.Length,
			Timestamp: info.Timestamp,
		})
	})
	if err != nil {
		return 0, err
	}

	sh.keydir = keydir
	sh.logger.Debug("keydir rebuilt", zap.Int("records", count), zap.Int64("size", sh.reader.Size()))
	return count, nil
}

func (sh *Shell) stats() (string, error) {
	if sh.gatherer == nil {
		return "metrics disabled", nil
	}

	families, err := sh.gatherer.Gather()
	if err != nil {
		return "", err
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			if labels := m.GetLabel(); len(labels) > 0 {
				pairs := make([]string, 0, len(labels))
				for _, l := range labels {
					pairs = append(pairs, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
				}
				name += "{" + strings.Join(pairs, ",") + "}"
			}

			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			default:
				continue
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, value))
		}
	}

	if len(lines) == 0 {
		return "no metrics recorded", nil
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}

func expectArgs(cmd string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: %s takes %d argument(s), got %d", core.ErrInvalidArgument, cmd, n, len(args))
	}
	return nil
}
