package reorder

import "time"

// Result reports the outcome of a single reorder run. Page orders use
// 1-based page numbers, matching what callers see in response headers and
// the CLI summary.
type Result struct {
	Success        bool          `json:"success"`
	InputPath      string        `json:"input_path"`
	OutputPath     string        `json:"output_path,omitempty"`
	PageCount      int           `json:"page_count"`
	OriginalOrder  []int         `json:"original_order,omitempty"`
	NewOrder       []int         `json:"new_order,omitempty"`
	IsScanned      bool          `json:"is_scanned"`
	BlankPages     []int         `json:"blank_pages,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
	Error          string        `json:"error,omitempty"`
}

// Reordered reports whether the run changed the page order.
func (r *Result) Reordered() bool {
	for i, v := range r.NewOrder {
		if v != i+1 {
			return true
		}
	}
	return false
}
