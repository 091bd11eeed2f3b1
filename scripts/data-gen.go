/*
	Basic Script that appends random records to a segment and verifies every one reads back.
*/

package main

import (
	"bytes"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/0xRadioAc7iv/bitcask-core/core"
	"github.com/0xRadioAc7iv/bitcask-core/internal/config"
)

const (
	// Fixed universe
	totalKeys   = 100
	totalValues = 100

	progressEvery = 5000
)

type write struct {
	key   []byte
	value []byte
}

type written struct {
	write
	offset, length int64
	timestamp      uint64
}

func main() {
	var concurrency, recordsPerWorker int
	cfg, err := config.Load(os.Args[0], os.Args[1:], config.DefaultEnvFile, func(fs *flag.FlagSet) {
		fs.IntVar(&concurrency, "workers", 6, "Number of producer goroutines")
		fs.IntVar(&recordsPerWorker, "records", 5000, "Records generated per producer")
	})
	if err != nil {
		os.Exit(config.ReportLoadError(os.Stderr, err))
	}

	start := time.Now()
	fmt.Printf("Starting segment load generator on %v\n", cfg.SegmentPath)

	keys := makeKeys(totalKeys)
	values := makeValues(totalValues)

	writes := make(chan write, concurrency*2)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runProducer(id, recordsPerWorker, keys, values, writes)
		}(i)
	}

	go func() {
		wg.Wait()
		close(writes)
	}()

	// A segment has a single writer, so every producer funnels through here
	log, err := runWriter(cfg.SegmentPath, writes)
	if err != nil {
		fmt.Println("writer error:", err)
		os.Exit(1)
	}
	fmt.Printf("Appended %d records in %v\n", len(log), time.Since(start))

	if err := verify(cfg, log); err != nil {
		fmt.Println("verify error:", err)
		os.Exit(1)
	}
	fmt.Printf("Verified %d records in %v\n", len(log), time.Since(start))
}

func runProducer(id, n int, keys, values [][]byte, out chan<- write) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	for i := 0; i < n; i++ {
		out <- write{
			key:   keys[rng.Intn(len(keys))],
			value: values[rng.Intn(len(values))],
		}
	}
}

func runWriter(path string, in <-chan write) ([]written, error) {
	seg := core.NewSegment(path, core.ModeAppend)
	if err := seg.Open(); err != nil {
		return nil, err
	}
	defer seg.Close()

	var log []written
	for w := range in {
		timestamp := uint64(time.Now().Unix())
		offset, length, err := seg.Append(w.key, w.value, timestamp)
		if err != nil {
			// Drain so producers can exit
			for range in {
			}
			return log, err
		}

		log = append(log, written{write: w, offset: offset, length: length, timestamp: timestamp})
		if len(log)%progressEvery == 0 {
			fmt.Printf("[writer] appended %d records, segment at %d bytes\n", len(log), seg.Size())
		}
	}

	return log, nil
}

// verify reads every appended record back and checks the keydir built by
// scanning the segment agrees with the last write of each key.
func verify(cfg config.Config, log []written) error {
	seg := core.NewSegment(cfg.SegmentPath, core.ModeRead)
	if err := seg.Open(); err != nil {
		return err
	}
	defer seg.Close()

	for _, w := range log {
		key, value, err := seg.Read(w.offset, w.length)
		if err != nil {
			return err
		}
		if !bytes.Equal(key, w.key) || !bytes.Equal(value, w.value) {
			return fmt.Errorf("record at offset %d does not match what was written", w.offset)
		}
	}

	keydir := core.NewKeyDir()
	err := seg.Scan(func(info core.RecordInfo) error {
		return keydir.AddEntry(info.Key, core.KeyDirEntry{
			FileID:    cfg.FileID,
			Offset:    info.Offset,
			Length:    info.Length,
			Timestamp: info.Timestamp,
		})
	})
	if err != nil {
		return err
	}

	latest := make(map[string]written)
	for _, w := range log {
		latest[string(w.key)] = w
	}
	for key, w := range latest {
		entry, ok, err := keydir.GetEntry([]byte(key))
		if err != nil {
			return err
		}
		if !ok || entry.Offset != w.offset {
			return fmt.Errorf("keydir entry for %q does not point at its last write (offset %d)", key, w.offset)
		}
	}

	return nil
}

func makeKeys(n int) [][]byte {
	keys := make([][]byte, n)
	for i := 0; i < n; i++ {
		keys[i] = []byte(fmt.Sprintf("key-%03d", i))
	}
	return keys
}

func makeValues(n int) [][]byte {
	values := make([][]byte, n)
	for i := 0; i < n; i++ {
		values[i] = []byte(fmt.Sprintf("value-%03d-xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx", i))
	}
	return values
}
