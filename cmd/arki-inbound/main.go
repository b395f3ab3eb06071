// Command arki-inbound sweeps a directory of not-yet-dispatched files
// (spec §6's ARKI_INBOUND), dispatching each into a configured pool and
// removing it on success — the directory-sweeping counterpart of
// arki-dispatch, which takes its file list on the command line instead.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arkimet-go/arkimet/internal/cliutil"
	"github.com/arkimet-go/arkimet/internal/dataset"
	"github.com/arkimet-go/arkimet/internal/dispatch"
	"github.com/arkimet-go/arkimet/pkg/log"
)

var (
	flagConfig, flagAliases, flagDir string
)

func cliInit() {
	flag.StringVar(&flagConfig, "C", "", "Path to the dataset-pool config file (overrides $ARKI_CONFIG)")
	flag.StringVar(&flagAliases, "aliases", "", "Path to the alias database (overrides $ARKI_ALIASES)")
	flag.StringVar(&flagDir, "dir", "", "Inbound directory to sweep (overrides $ARKI_INBOUND)")
	flag.Parse()
}

// formatOf guesses a file's data format from its extension, the way
// arkimet's own inbound sweep keys scanner selection off the file
// suffix rather than requiring one -format flag per file.
func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".grib", ".grib1", ".grib2":
		return "grib"
	case ".bufr":
		return "bufr"
	case ".h5", ".odim", ".odimh5":
		return "odimh5"
	case ".vm2":
		return "vm2"
	default:
		return ""
	}
}

func main() {
	cliInit()
	cliutil.InitLogging()

	configPath := cliutil.ConfigPath(flagConfig)
	dir := flagDir
	if dir == "" {
		dir = os.Getenv("ARKI_INBOUND")
	}
	if configPath == "" || dir == "" {
		fmt.Fprintln(os.Stderr, "usage: arki-inbound -C <config> -dir <inbound-dir>")
		os.Exit(cliutil.ExitUsage)
	}

	pool, routes, err := cliutil.LoadPool(configPath, cliutil.AliasesPath(flagAliases))
	if err != nil {
		cliutil.Fatalf(cliutil.ExitBackendFail, "arki-inbound: %v", err)
	}
	disp := dispatch.New(pool, routes)

	entries, err := os.ReadDir(dir)
	if err != nil {
		cliutil.Fatalf(cliutil.ExitBackendFail, "arki-inbound: %v", err)
	}

	failed := false
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		format := formatOf(path)
		if format == "" {
			log.Warnf("arki-inbound: skipping %s: unrecognized format", path)
			continue
		}
		if err := sweepOne(disp, path, format); err != nil {
			fmt.Fprintf(os.Stderr, "arki-inbound: %s: %v\n", path, err)
			failed = true
			continue
		}
		if err := os.Remove(path); err != nil {
			fmt.Fprintf(os.Stderr, "arki-inbound: %s: removing after dispatch: %v\n", path, err)
			failed = true
		}
	}
	if err := disp.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "arki-inbound: flush: %v\n", err)
		failed = true
	}
	if failed {
		os.Exit(cliutil.ExitPartial)
	}
}

func sweepOne(disp *dispatch.Dispatcher, path, format string) error {
	scan, err := dataset.ScannerFor(format)
	if err != nil {
		return err
	}
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
		pending, err := disp.Dispatch(rec.Metadata, raw[rec.Offset:end])
		if err != nil {
			return err
		}
		if err := pending.Commit(); err != nil {
			return err
		}
	}
	return nil
}
