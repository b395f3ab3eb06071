// Command arki-xargs reads a metadata wire stream from stdin, writes
// each item (or batch of -n items) to a temp file, and runs a given
// command against it — mirroring arkimet's arki-xargs, the bridge
// between a query's output and an external per-datum tool.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"

	"github.com/arkimet-go/arkimet/internal/cliutil"
	"github.com/arkimet-go/arkimet/pkg/wire"
)

var flagBatch int

func cliInit() {
	flag.IntVar(&flagBatch, "n", 1, "Number of metadata items per command invocation")
	flag.Parse()
}

func main() {
	cliInit()
	cliutil.InitLogging()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: arki-xargs -n <batch-size> <command> [args...]")
		os.Exit(cliutil.ExitUsage)
	}
	if flagBatch < 1 {
		flagBatch = 1
	}

	tmpdir := os.Getenv("ARKI_TMPDIR")
	if tmpdir == "" {
		tmpdir = os.TempDir()
	}

	reader := wire.NewReader(os.Stdin)
	failed := false
	batch := 0

	tmp, err := os.CreateTemp(tmpdir, "arki-xargs-*")
	if err != nil {
		cliutil.Fatalf(cliutil.ExitBackendFail, "arki-xargs: %v", err)
	}
	defer os.Remove(tmp.Name())

	flush := func() {
		if batch == 0 {
			return
		}
		tmp.Close()
		if err := runCommand(tmp.Name()); err != nil {
			fmt.Fprintf(os.Stderr, "arki-xargs: %v\n", err)
			failed = true
		}
		batch = 0
		tmp, err = os.OpenFile(tmp.Name(), os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			cliutil.Fatalf(cliutil.ExitBackendFail, "arki-xargs: reopening batch file: %v", err)
		}
	}

	for reader.Next() {
		rec := reader.Record()
		if err := wire.WriteRecord(tmp, rec.Magic, rec.Version, rec.Body); err != nil {
			cliutil.Fatalf(cliutil.ExitBackendFail, "arki-xargs: %v", err)
		}
		batch++
		if batch >= flagBatch {
			flush()
		}
	}
	if err := reader.Err(); err != nil {
		cliutil.Fatalf(cliutil.ExitBackendFail, "arki-xargs: reading metadata stream: %v", err)
	}
	flush()
	tmp.Close()

	if failed {
		os.Exit(cliutil.ExitPartial)
	}
}

func runCommand(path string) error {
	name := flag.Arg(0)
	args := append(append([]string{}, flag.Args()[1:]...), path)
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
