package reorder

import (
	"strings"

	"github.com/local/pdfreorder/internal/pdf"
)

// DefaultBlankThreshold is the trimmed text length below which a page counts
// as blank.
const DefaultBlankThreshold = 50

// DetectBlanks returns the original indices of pages whose trimmed text is
// shorter than threshold, in original page order.
func DetectBlanks(pages []pdf.Page, threshold int) []int {
	var blanks []int
	for _, p := range pages {
		if len(strings.TrimSpace(p.Text)) < threshold {
			blanks = append(blanks, p.OriginalIndex)
		}
	}
	return blanks
}

// MoveBlanksLast removes the blank page indices from order and appends them
// as a suffix in their original relative order. order must be a permutation
// covering every page, blanks included.
func MoveBlanksLast(order []int, blanks []int) []int {
	if len(blanks) == 0 {
		return order
	}
	blank := make(map[int]bool, len(blanks))
	for _, b := range blanks {
		blank[b] = true
	}
	out := make([]int, 0, len(order))
	for _, v := range order {
		if !blank[v] {
			out = append(out, v)
		}
	}
	return append(out, blanks...)
}
