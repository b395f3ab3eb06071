// Package types implements the sum-typed metadata items of the arkimet
// core (spec §4.1): each item kind has a fixed type code, a small set
// of style variants, and three equivalent serialisations (canonical
// binary envelope, canonical string form, canonical structured form).
package types

import "fmt"

// Code identifies a metadata item kind (spec §3).
type Code uint8

const (
	CodeInvalid Code = iota
	CodeOrigin
	CodeProduct
	CodeLevel
	CodeTimerange
	CodeReftime
	CodeArea
	CodeProddef
	CodeRun
	CodeBBox
	CodeQuantity
	CodeTask
	CodeValue
	CodeNote
	CodeSource
	CodeAssignedDataset
)

var codeNames = map[Code]string{
	CodeOrigin:          "origin",
	CodeProduct:         "product",
	CodeLevel:           "level",
	CodeTimerange:       "timerange",
	CodeReftime:         "reftime",
	CodeArea:            "area",
	CodeProddef:         "proddef",
	CodeRun:             "run",
	CodeBBox:            "bbox",
	CodeQuantity:        "quantity",
	CodeTask:            "task",
	CodeValue:           "value",
	CodeNote:            "note",
	CodeSource:          "source",
	CodeAssignedDataset: "assigneddataset",
}

var namesToCode = func() map[string]Code {
	m := make(map[string]Code, len(codeNames))
	for c, n := range codeNames {
		m[n] = c
	}
	return m
}()

func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("code(%d)", uint8(c))
}

// ParseCode resolves a type name (as used before ':' in matcher syntax,
// or as a structured-form "s" disambiguator) to its Code.
func ParseCode(name string) (Code, bool) {
	c, ok := namesToCode[name]
	return c, ok
}

// Repeated reports whether a code may appear more than once in one
// Metadata (only NOTE may, per spec §3 invariants).
func (c Code) Repeated() bool { return c == CodeNote }
