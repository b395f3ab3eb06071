// Package cliutil holds the config/pool bootstrap shared by every
// cmd/arki-* binary, factored out of what would otherwise be repeated
// cliInit()-style flag handling in each main.go (spec §6 CLI surface).
package cliutil

import (
	"fmt"
	"os"

	"github.com/arkimet-go/arkimet/internal/config"
	"github.com/arkimet-go/arkimet/internal/dataset"
	"github.com/arkimet-go/arkimet/internal/dispatch"
	"github.com/arkimet-go/arkimet/pkg/log"
	"github.com/arkimet-go/arkimet/pkg/matcher"
)

// Exit codes (spec §6): 0 success, 1 usage/parse error, 2 partial
// success with at least one failure, 3 I/O or backend error.
const (
	ExitOK          = 0
	ExitUsage       = 1
	ExitPartial     = 2
	ExitBackendFail = 3
)

// ConfigPath resolves the dataset-pool config path: the -C flag if
// set, else $ARKI_CONFIG, else "".
func ConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("ARKI_CONFIG")
}

// AliasesPath resolves the alias database path the same way via
// $ARKI_ALIASES.
func AliasesPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("ARKI_ALIASES")
}

// LoadAliasDB loads path's alias database, or an empty one if path is
// "" (no alias file configured).
func LoadAliasDB(path string) (*matcher.AliasDB, error) {
	if path == "" {
		return matcher.NewAliasDB(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return config.ParseAliases(f)
}

// LoadPool opens configPath's dataset sections into a dataset.Pool and
// the dispatch.Routes derived from their "filter" keys, expanding
// aliases from aliasesPath.
func LoadPool(configPath, aliasesPath string) (*dataset.Pool, []dispatch.Route, error) {
	f, err := os.Open(configPath)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	cfgs, err := config.ParseDatasetConfigs(f)
	if err != nil {
		return nil, nil, err
	}
	aliasDB, err := LoadAliasDB(aliasesPath)
	if err != nil {
		return nil, nil, err
	}
	return config.BuildPool(cfgs, aliasDB)
}

// Fatalf prints a single diagnostic line (spec §7: "commands print a
// single diagnostic line per failure") and exits with code.
func Fatalf(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}

// InitLogging sets the process log level from $ARKI_LOGLEVEL, falling
// back to "warn" the way cc-backend's -loglevel flag default does.
func InitLogging() {
	lvl := os.Getenv("ARKI_LOGLEVEL")
	if lvl == "" {
		lvl = "warn"
	}
	log.SetLogLevel(lvl)
}
