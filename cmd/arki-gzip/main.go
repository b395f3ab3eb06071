// Command arki-gzip compresses a segment's data file in place into
// arkimet's block-gzip format with a seek index (spec §4.4,
// internal/segment/compress.go). Maintenance agents never compress
// segments; this command is the only caller of the compressor.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/arkimet-go/arkimet/internal/cliutil"
	"github.com/arkimet-go/arkimet/internal/segment"
)

func main() {
	flag.Parse()
	cliutil.InitLogging()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: arki-gzip <segment-data-file>...")
		os.Exit(cliutil.ExitUsage)
	}

	failed := false
	for _, path := range flag.Args() {
		if err := segment.CompressSegment(path); err != nil {
			fmt.Fprintf(os.Stderr, "arki-gzip: %s: %v\n", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(cliutil.ExitPartial)
	}
}
