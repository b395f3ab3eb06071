// Command arki-query runs a matcher query against one dataset of a
// configured pool and writes the result to stdout in the requested
// wire style (spec §6/§7), grounded on cc-backend/cmd/cc-backend's
// cliInit() flag style.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/arkimet-go/arkimet/internal/cliutil"
	"github.com/arkimet-go/arkimet/internal/dataset"
	"github.com/arkimet-go/arkimet/pkg/matcher"
	"github.com/arkimet-go/arkimet/pkg/metadata"
	"github.com/arkimet-go/arkimet/pkg/wire"
)

var (
	flagConfig, flagAliases, flagDataset, flagStyle string
)

func cliInit() {
	flag.StringVar(&flagConfig, "C", "", "Path to the dataset-pool config file (overrides $ARKI_CONFIG)")
	flag.StringVar(&flagAliases, "aliases", "", "Path to the alias database (overrides $ARKI_ALIASES)")
	flag.StringVar(&flagDataset, "dataset", "", "Name of the dataset section to query")
	flag.StringVar(&flagStyle, "style", "data", "Output style: `data`, `summary`, or `bytes`")
	flag.Parse()
}

func main() {
	cliInit()
	cliutil.InitLogging()

	configPath := cliutil.ConfigPath(flagConfig)
	if configPath == "" || flagDataset == "" || flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: arki-query -C <config> -dataset <name> [-style data|summary|bytes] <query>")
		os.Exit(cliutil.ExitUsage)
	}
	query := flag.Arg(0)

	pool, _, err := cliutil.LoadPool(configPath, cliutil.AliasesPath(flagAliases))
	if err != nil {
		cliutil.Fatalf(cliutil.ExitBackendFail, "arki-query: %v", err)
	}
	ds, err := pool.Get(flagDataset)
	if err != nil {
		cliutil.Fatalf(cliutil.ExitBackendFail, "arki-query: %v", err)
	}
	aliasDB, err := cliutil.LoadAliasDB(cliutil.AliasesPath(flagAliases))
	if err != nil {
		cliutil.Fatalf(cliutil.ExitBackendFail, "arki-query: %v", err)
	}
	mtr, err := matcher.Parse(query, aliasDB)
	if err != nil {
		cliutil.Fatalf(cliutil.ExitUsage, "arki-query: invalid query: %v", err)
	}

	if err := run(ds, mtr, flagStyle); err != nil {
		cliutil.Fatalf(cliutil.ExitBackendFail, "arki-query: %v", err)
	}
}

func run(ds dataset.Dataset, mtr *matcher.Matcher, style string) error {
	switch style {
	case "summary":
		summary, err := ds.QuerySummary(mtr)
		if err != nil {
			return err
		}
		return wire.WriteSummary(os.Stdout, summary, wire.MaxVersion)
	case "bytes":
		items, err := ds.Query(mtr)
		if err != nil {
			return err
		}
		for _, md := range items {
			data, err := ds.ReadData(md)
			if err != nil {
				return err
			}
			if _, err := os.Stdout.Write(data); err != nil {
				return err
			}
		}
		return nil
	case "data", "":
		items, err := ds.Query(mtr)
		if err != nil {
			return err
		}
		return writeData(items, ds)
	default:
		return fmt.Errorf("unknown style %q", style)
	}
}

func writeData(items []*metadata.Metadata, ds dataset.Dataset) error {
	for _, md := range items {
		data, err := ds.ReadData(md)
		if err != nil {
			return err
		}
		md.SetSource(metadata.SourceInline{DataFormat: md.Source().Format(), Size: uint64(len(data))})
		if err := wire.WriteMetadataInline(os.Stdout, md, data, wire.MaxVersion); err != nil {
			return err
		}
	}
	return nil
}
