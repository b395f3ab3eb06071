package dataset

import (
	"sync"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/internal/segment"
)

// scannerRegistry maps a data format name ("grib1", "bufr", …) to the
// segment.Scanner that decodes it, so a "file" dataset can scan an
// arbitrary format on open without this package depending on any
// specific format decoder. Concrete scanners register themselves via
// RegisterScanner from their own package's init().
var scannerRegistry sync.Map // map[string]segment.Scanner

// RegisterScanner associates format with scan; a later call for the
// same format replaces the previous registration.
func RegisterScanner(format string, scan segment.Scanner) {
	scannerRegistry.Store(format, scan)
}

func scannerFor(format string) (segment.Scanner, error) {
	v, ok := scannerRegistry.Load(format)
	if !ok {
		return nil, arkierr.Format("no scanner registered for format %q", format)
	}
	return v.(segment.Scanner), nil
}

// ScannerFor is scannerFor's exported form, for callers outside this
// package that need to scan a standalone file not bound to any
// configured dataset (httpwire's /inbound/scan, arki-scan).
func ScannerFor(format string) (segment.Scanner, error) {
	return scannerFor(format)
}
