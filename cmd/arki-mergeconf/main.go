// Command arki-mergeconf merges several dataset-pool config files (or
// directories holding a "config" file each) into one, on stdout, the
// way arkimet's own arki-mergeconf assembles one server's config from
// several dataset directories.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arkimet-go/arkimet/internal/cliutil"
	"github.com/arkimet-go/arkimet/internal/config"
	"github.com/arkimet-go/arkimet/internal/dataset"
)

func main() {
	flag.Parse()
	cliutil.InitLogging()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: arki-mergeconf <config-file-or-dataset-dir>...")
		os.Exit(cliutil.ExitUsage)
	}

	var merged []dataset.Config
	seen := make(map[string]bool)
	failed := false

	for _, arg := range flag.Args() {
		cfgs, err := loadOne(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "arki-mergeconf: %s: %v\n", arg, err)
			failed = true
			continue
		}
		for _, cfg := range cfgs {
			if seen[cfg.Name] {
				fmt.Fprintf(os.Stderr, "arki-mergeconf: duplicate dataset name %q, skipping\n", cfg.Name)
				failed = true
				continue
			}
			seen[cfg.Name] = true
			merged = append(merged, cfg)
		}
	}

	for _, cfg := range merged {
		if err := config.WriteDatasetConfig(os.Stdout, cfg); err != nil {
			cliutil.Fatalf(cliutil.ExitBackendFail, "arki-mergeconf: writing output: %v", err)
		}
		fmt.Println()
	}

	if failed {
		os.Exit(cliutil.ExitPartial)
	}
}

// loadOne reads arg directly if it's a regular file, or arg/config if
// arg is a directory (arkimet's dataset-directory convention: a
// "config" file alongside the dataset's data segments).
func loadOne(arg string) ([]dataset.Config, error) {
	info, err := os.Stat(arg)
	if err != nil {
		return nil, err
	}
	path := arg
	if info.IsDir() {
		path = filepath.Join(arg, "config")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return config.ParseDatasetConfigs(f)
}
