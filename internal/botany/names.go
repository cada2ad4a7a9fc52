// Package botany derives canonical forms of scientific names.
package botany

import (
	"strings"
	"sync"

	"github.com/gnames/gnparser"
	"github.com/gnames/gnuuid"
)

// Name is the canonical form of a scientific name.
type Name struct {
	Canonical string
	ID        string
	Parsed    bool
}

// Parsers are not safe for concurrent use, so each request borrows one.
var parserPool = sync.Pool{
	New: func() any {
		return gnparser.New(gnparser.NewConfig())
	},
}

// Canonicalize parses a scientific name. Names the parser rejects keep the
// trimmed input as canonical form and are reported with Parsed=false.
func Canonicalize(scientificName string) Name {
	trimmed := strings.Join(strings.Fields(scientificName), " ")
	if trimmed == "" {
		return Name{}
	}

	prs := parserPool.Get().(gnparser.GNparser)
	parsed := prs.ParseName(trimmed)
	parserPool.Put(prs)

	if !parsed.Parsed || parsed.Canonical == nil || parsed.Canonical.Simple == "" {
		return Name{Canonical: trimmed, ID: gnuuid.New(trimmed).String()}
	}
	return Name{
		Canonical: parsed.Canonical.Simple,
		ID:        gnuuid.New(parsed.Canonical.Simple).String(),
		Parsed:    true,
	}
}
