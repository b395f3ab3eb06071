// Command arki-check runs a maintenance pass over a pool's datasets
// (spec §4.7): a dry-run state report by default, -fix to repack and
// archive/delete segments in place, -repack to limit the pass to
// repack-equivalent actions (spec §6, ARKI_REPORT).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/arkimet-go/arkimet/internal/cliutil"
	"github.com/arkimet-go/arkimet/internal/dataset"
	"github.com/arkimet-go/arkimet/internal/maintenance"
)

var (
	flagConfig, flagAliases, flagDataset string
	flagFix, flagRepack                 bool
)

func cliInit() {
	flag.StringVar(&flagConfig, "C", "", "Path to the dataset-pool config file (overrides $ARKI_CONFIG)")
	flag.StringVar(&flagAliases, "aliases", "", "Path to the alias database (overrides $ARKI_ALIASES)")
	flag.StringVar(&flagDataset, "dataset", "", "Restrict the sweep to one dataset (default: every dataset in the pool)")
	flag.BoolVar(&flagFix, "fix", false, "Apply maintenance actions instead of only reporting them")
	flag.BoolVar(&flagRepack, "repack", false, "Run the repack agent instead of the full-maintenance agent")
	flag.Parse()
}

func main() {
	cliInit()
	cliutil.InitLogging()

	configPath := cliutil.ConfigPath(flagConfig)
	if configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: arki-check -C <config> [-dataset <name>] [-repack] [-fix]")
		os.Exit(cliutil.ExitUsage)
	}

	pool, _, err := cliutil.LoadPool(configPath, cliutil.AliasesPath(flagAliases))
	if err != nil {
		cliutil.Fatalf(cliutil.ExitBackendFail, "arki-check: %v", err)
	}

	names := pool.Names()
	if flagDataset != "" {
		names = []string{flagDataset}
	}

	agent := pickAgent(flagRepack, flagFix)

	failed := false
	for _, name := range names {
		ds, err := pool.Get(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "arki-check: %s: %v\n", name, err)
			failed = true
			continue
		}
		m, ok := dataset.AsMaintainable(ds)
		if !ok {
			continue
		}
		report, err := maintenance.Run(m, agent)
		if err != nil {
			fmt.Fprintf(os.Stderr, "arki-check: %s: %v\n", name, err)
			failed = true
			continue
		}
		fmt.Print(report.String())
		if report.Counts()["error"] > 0 {
			failed = true
		}
	}
	if failed {
		os.Exit(cliutil.ExitPartial)
	}
}

func pickAgent(repack, fix bool) maintenance.Agent {
	switch {
	case repack && fix:
		return maintenance.FullRepack()
	case repack:
		return maintenance.RepackReport()
	case fix:
		return maintenance.FullMaintenance()
	default:
		return maintenance.MaintenanceReport()
	}
}
