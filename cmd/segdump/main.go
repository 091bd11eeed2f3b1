package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/bitcask-core/core"
	"github.com/0xRadioAc7iv/bitcask-core/internal/config"
)

func main() {
	var repair bool
	cfg, err := config.Load(os.Args[0], os.Args[1:], config.DefaultEnvFile, func(fs *flag.FlagSet) {
		fs.BoolVar(&repair, "repair", false, "Truncate a corrupt tail before dumping")
	})
	if err != nil {
		os.Exit(config.ReportLoadError(os.Stderr, err))
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error while starting:", err)
		os.Exit(2)
	}
	defer logger.Sync()

	if err := run(cfg, repair, logger, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, repair bool, logger *zap.Logger, out io.Writer) error {
	if repair {
		removed, err := core.RepairSegment(cfg.SegmentPath, core.WithLogger(logger))
		if err != nil {
			return err
		}
		if removed > 0 {
			fmt.Fprintf(out, "repaired: removed %d trailing bytes\n", removed)
		}
	}

	seg := core.NewSegment(cfg.SegmentPath, core.ModeRead, core.WithLogger(logger))
	if err := seg.Open(); err != nil {
		return err
	}
	defer seg.Close()

	return dump(seg, cfg.FileID, out)
}

// dump prints one line per record in seg. Records before a corrupt one are
// printed before the error is returned.
func dump(seg *core.Segment, fileID uint32, out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tOFFSET\tLENGTH\tTIMESTAMP\tKEY\tVALUE SIZE")

	var records, end int64
	err := seg.Scan(func(info core.RecordInfo) error {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%q\t%d\n",
			fileID, info.Offset, info.Length, info.Timestamp, info.Key, info.ValueSize)
		records++
		end = info.Offset + info.Length
		return nil
	})

	if ferr := tw.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return fmt.Errorf("stopped after %d records at offset %d: %w", records, end, err)
	}

	fmt.Fprintf(out, "%d records, %d bytes\n", records, seg.Size())
	return nil
}
