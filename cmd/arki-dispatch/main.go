// Command arki-dispatch scans input files and runs each resulting
// record through a Dispatcher built from a configured pool, printing
// the post-dispatch metadata stream to stdout (spec §4.6, §6).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/arkimet-go/arkimet/internal/cliutil"
	"github.com/arkimet-go/arkimet/internal/dataset"
	"github.com/arkimet-go/arkimet/internal/dispatch"
	"github.com/arkimet-go/arkimet/internal/segment"
	"github.com/arkimet-go/arkimet/pkg/metadata"
	"github.com/arkimet-go/arkimet/pkg/wire"
)

var (
	flagConfig, flagAliases, flagFormat string
)

func cliInit() {
	flag.StringVar(&flagConfig, "C", "", "Path to the dataset-pool config file (overrides $ARKI_CONFIG)")
	flag.StringVar(&flagAliases, "aliases", "", "Path to the alias database (overrides $ARKI_ALIASES)")
	flag.StringVar(&flagFormat, "format", "", "Data format to scan (overrides $ARKI_SCAN_FORMAT)")
	flag.Parse()
}

func main() {
	cliInit()
	cliutil.InitLogging()

	configPath := cliutil.ConfigPath(flagConfig)
	format := flagFormat
	if format == "" {
		format = os.Getenv("ARKI_SCAN_FORMAT")
	}
	if configPath == "" || format == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: arki-dispatch -C <config> -format <format> <file>...")
		os.Exit(cliutil.ExitUsage)
	}

	pool, routes, err := cliutil.LoadPool(configPath, cliutil.AliasesPath(flagAliases))
	if err != nil {
		cliutil.Fatalf(cliutil.ExitBackendFail, "arki-dispatch: %v", err)
	}
	disp := dispatch.New(pool, routes)

	scan, err := dataset.ScannerFor(format)
	if err != nil {
		cliutil.Fatalf(cliutil.ExitUsage, "arki-dispatch: %v", err)
	}

	failed := false
	for _, path := range flag.Args() {
		if err := dispatchOne(disp, scan, path, format); err != nil {
			fmt.Fprintf(os.Stderr, "arki-dispatch: %s: %v\n", path, err)
			failed = true
		}
	}
	if err := disp.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "arki-dispatch: flush: %v\n", err)
		failed = true
	}
	if failed {
		os.Exit(cliutil.ExitPartial)
	}
}

func dispatchOne(disp *dispatch.Dispatcher, scan segment.Scanner, path, format string) error {
	declared, err := scan(path)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for _, rec := range declared {
		end := rec.Offset + rec.Size
		if end > uint64(len(raw)) {
			end = uint64(len(raw))
		}
		payload := raw[rec.Offset:end]

		pending, err := disp.Dispatch(rec.Metadata, payload)
		if err != nil {
			return err
		}
		if err := pending.Commit(); err != nil {
			return err
		}
		rec.Metadata.SetSource(metadata.SourceInline{DataFormat: format, Size: uint64(len(payload))})
		if err := wire.WriteMetadataInline(os.Stdout, rec.Metadata, payload, wire.MaxVersion); err != nil {
			return err
		}
	}
	return nil
}
