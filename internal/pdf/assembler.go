package pdf

import (
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
)

// Assembler writes a new PDF whose pages follow a given permutation of the
// source pages. It relies on pdfcpu's collect operation, which emits the
// selected pages in the exact order given.
type Assembler struct{}

// NewAssembler creates a new pdfcpu-based assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble writes outPath containing the pages of inPath in the order given by
// perm (0-based original indices). perm must be a valid permutation of all
// source page indices; callers guarantee validity before calling.
func (a *Assembler) Assemble(inPath, outPath string, perm []int) error {
	if err := ValidatePermutation(perm, len(perm)); err != nil {
		return fmt.Errorf("invalid page permutation: %w", err)
	}

	// pdfcpu page selection is 1-based
	pages := make([]string, len(perm))
	for i, p := range perm {
		pages[i] = strconv.Itoa(p + 1)
	}

	if err := api.CollectFile(inPath, outPath, pages, nil); err != nil {
		return fmt.Errorf("pdf assembly failed: %w", err)
	}

	log.Debug().Str("out", outPath).Ints("order", perm).Msg("assembled reordered PDF")
	return nil
}

// ValidatePermutation checks that perm is a bijective reordering of [0, n).
func ValidatePermutation(perm []int, n int) error {
	if len(perm) != n {
		return fmt.Errorf("length %d, want %d", len(perm), n)
	}
	seen := make([]bool, n)
	for _, p := range perm {
		if p < 0 || p >= n {
			return fmt.Errorf("index %d out of range [0,%d)", p, n)
		}
		if seen[p] {
			return fmt.Errorf("index %d appears more than once", p)
		}
		seen[p] = true
	}
	return nil
}
