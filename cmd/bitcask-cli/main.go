package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/bitcask-core/core"
	"github.com/0xRadioAc7iv/bitcask-core/internal/config"
	"github.com/0xRadioAc7iv/bitcask-core/internal/shell"
	"github.com/0xRadioAc7iv/bitcask-core/internal/utils"
)

func main() {
	cfg, err := config.Load(os.Args[0], os.Args[1:], config.DefaultEnvFile)
	if err != nil {
		os.Exit(config.ReportLoadError(os.Stderr, err))
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := utils.ListenForProcessInterruptOrKill(context.Background())
	defer stop()

	container := dig.New()
	constructors := []interface{}{
		func() config.Config { return cfg },
		newLogger,
		prometheus.NewRegistry,
		gatherer,
		newMetrics,
		shell.New,
	}
	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return err
		}
	}

	return container.Invoke(func(cfg config.Config, sh *shell.Shell, logger *zap.Logger) error {
		defer logger.Sync()
		defer func() {
			if err := sh.Close(); err != nil {
				logger.Error("failed to close segment", zap.Error(err))
			}
		}()

		fmt.Printf("Opened %v (file id %d)\n", cfg.SegmentPath, cfg.FileID)
		fmt.Println("Type commands. 'help' for information or 'exit' to quit.")

		return repl(ctx, sh, os.Stdin, os.Stdout)
	})
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("component", "bitcask-cli")), nil
}

func gatherer(reg *prometheus.Registry) prometheus.Gatherer {
	return reg
}

func newMetrics(reg *prometheus.Registry) (*core.Metrics, error) {
	return core.NewMetrics(reg)
}

// repl reads commands until exit, end of input or ctx is cancelled.
func repl(ctx context.Context, sh *shell.Shell, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		reader := bufio.NewReader(in)
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr <- err
				}
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "> ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return fmt.Errorf("input error: %w", err)
				default:
					return nil
				}
			}
			line = strings.TrimSpace(l)
		}

		if line == "" {
			continue
		}

		resp, err := sh.Execute(line)
		if errors.Is(err, shell.ErrExit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(out, "error:", err)
			continue
		}

		fmt.Fprintln(out, resp)
	}
}
