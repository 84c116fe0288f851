// Package signature identifies binary container formats by their
// magic-byte prefixes. The table is fixed at build time: binary
// detection must not be weakened by end-user configuration.
package signature

import (
	"bytes"

	"github.com/varlog/logsift/internal/errx"
)

// Signature is one magic-byte prefix and the format it identifies.
type Signature struct {
	Magic  []byte
	Format string
}

// Table is an immutable set of signatures. Lookup is prefix-exact and
// the longest matching magic wins.
type Table struct {
	// sorted longest magic first so the first hit is the longest match
	sigs []Signature
}

// builtins covers the container formats the original gate knew about.
// The MP3 frame-sync prefix (FF FB) doubles as the JPEG marker prefix
// (FF D8 FF), which is longer and therefore checked first.
var builtins = []Signature{
	{Magic: []byte{0xFF, 0xD8, 0xFF}, Format: "JPEG"},
	{Magic: []byte{0x89, 0x50, 0x4E, 0x47}, Format: "PNG"},
	{Magic: []byte{0x47, 0x49, 0x46}, Format: "GIF"},
	{Magic: []byte{0x42, 0x4D}, Format: "BMP"},
	{Magic: []byte{0x49, 0x49, 0x2A, 0x00}, Format: "TIFF"},
	{Magic: []byte{0x00, 0x00, 0x00, 0x18, 0x66, 0x74, 0x79, 0x70}, Format: "MP4"},
	{Magic: []byte{0x1A, 0x45, 0xDF, 0xA3}, Format: "MKV"},
	{Magic: []byte{0x49, 0x44, 0x33}, Format: "MP3"},
	{Magic: []byte{0xFF, 0xFB}, Format: "MP3"},
	{Magic: []byte{0x52, 0x49, 0x46, 0x46}, Format: "WAV/AVI"},
	{Magic: []byte{0x25, 0x50, 0x44, 0x46}, Format: "PDF"},
	{Magic: []byte{0x4D, 0x5A}, Format: "EXE"},
	{Magic: []byte{0x7F, 0x45, 0x4C, 0x46}, Format: "ELF"},
	{Magic: []byte{0xFE, 0xED, 0xFA, 0xCF}, Format: "Mach-O"},
	{Magic: []byte{0x50, 0x4B, 0x03, 0x04}, Format: "ZIP"},
	{Magic: []byte{0x1F, 0x8B}, Format: "GZIP"},
}

// NewTable builds a table from the built-in signature set.
func NewTable() *Table {
	t, err := NewTableWith(builtins)
	if err != nil {
		// the built-in set is validated by tests; a conflict here is a
		// programming error, not a runtime condition
		panic(err)
	}
	return t
}

// NewTableWith builds a table from an explicit signature set. Two
// entries with identical magic bytes are a construction error, never a
// runtime ambiguity.
func NewTableWith(sigs []Signature) (*Table, error) {
	sorted := make([]Signature, 0, len(sigs))
	for _, s := range sigs {
		if len(s.Magic) == 0 {
			return nil, errx.With(ErrEmptyMagic, ": format %s", s.Format)
		}
		sorted = append(sorted, Signature{
			Magic:  bytes.Clone(s.Magic),
			Format: s.Format,
		})
	}

	// stable longest-first order; equal-length duplicates collide below
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && len(sorted[j].Magic) > len(sorted[j-1].Magic); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	for i := 1; i < len(sorted); i++ {
		for j := 0; j < i; j++ {
			if bytes.Equal(sorted[i].Magic, sorted[j].Magic) {
				return nil, errx.With(ErrDuplicateMagic, ": % X (%s vs %s)",
					sorted[i].Magic, sorted[j].Format, sorted[i].Format)
			}
		}
	}

	return &Table{sigs: sorted}, nil
}

// Identify returns the longest signature whose magic bytes are an exact
// prefix of sample. A sample shorter than a magic cannot match it, so
// an empty or truncated sample simply falls through to the next layer.
func (t *Table) Identify(sample []byte) (Signature, bool) {
	for _, s := range t.sigs {
		if len(sample) >= len(s.Magic) && bytes.Equal(sample[:len(s.Magic)], s.Magic) {
			return s, true
		}
	}
	return Signature{}, false
}

// Len reports the number of registered signatures.
func (t *Table) Len() int {
	return len(t.sigs)
}

// MaxMagicLen reports the longest registered magic; callers should
// sample at least this many bytes to give every signature a chance.
func (t *Table) MaxMagicLen() int {
	if len(t.sigs) == 0 {
		return 0
	}
	return len(t.sigs[0].Magic)
}
