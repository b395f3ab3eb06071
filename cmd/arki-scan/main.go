// Command arki-scan scans standalone files with the format's
// registered segment.Scanner and writes the resulting metadata stream
// to stdout, without storing anything (spec §6's /inbound/scan done
// from the command line instead of over HTTP).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/arkimet-go/arkimet/internal/cliutil"
	"github.com/arkimet-go/arkimet/internal/dataset"
	"github.com/arkimet-go/arkimet/internal/segment"
	"github.com/arkimet-go/arkimet/pkg/metadata"
	"github.com/arkimet-go/arkimet/pkg/wire"
)

var flagFormat string

func cliInit() {
	flag.StringVar(&flagFormat, "format", "", "Data format to scan (overrides $ARKI_SCAN_FORMAT); one file arg per format registered via its scanner")
	flag.Parse()
}

func main() {
	cliInit()
	cliutil.InitLogging()

	format := flagFormat
	if format == "" {
		format = os.Getenv("ARKI_SCAN_FORMAT")
	}
	if format == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: arki-scan -format <format> <file>...")
		os.Exit(cliutil.ExitUsage)
	}

	scan, err := dataset.ScannerFor(format)
	if err != nil {
		cliutil.Fatalf(cliutil.ExitUsage, "arki-scan: %v", err)
	}

	failed := false
	for _, path := range flag.Args() {
		if err := scanOne(scan, path, format); err != nil {
			fmt.Fprintf(os.Stderr, "arki-scan: %s: %v\n", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(cliutil.ExitPartial)
	}
}

func scanOne(scan segment.Scanner, path, format string) error {
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
		datum := raw[rec.Offset:end]
		rec.Metadata.SetSource(metadata.SourceInline{DataFormat: format, Size: uint64(len(datum))})
		if err := wire.WriteMetadataInline(os.Stdout, rec.Metadata, datum, wire.MaxVersion); err != nil {
			return err
		}
	}
	return nil
}
