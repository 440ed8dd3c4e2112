package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/local/pdfreorder/internal/pdf"
)

type scriptedCompleter struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedCompleter) Name() string { return "scripted" }

func (s *scriptedCompleter) Complete(ctx context.Context, prompt string, _ Sampling) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func testPages(n int) []pdf.Page {
	pages := make([]pdf.Page, n)
	for i := range pages {
		pages[i] = pdf.Page{OriginalIndex: i, Text: fmt.Sprintf("page %d content", i+1)}
	}
	return pages
}

func newTestClient(c Completer) *Client {
	return New(c, Options{Attempts: 3, RetryDelay: time.Millisecond})
}

func TestDetermineOrderSuccess(t *testing.T) {
	c := &scriptedCompleter{responses: []string{"[3, 1, 2]"}}
	order := newTestClient(c).DetermineOrder(context.Background(), testPages(3))
	assert.Equal(t, []int{2, 0, 1}, order)
	assert.Equal(t, 1, c.calls)
}

func TestDetermineOrderRetriesThenSucceeds(t *testing.T) {
	c := &scriptedCompleter{
		responses: []string{"no usable answer here", "[2, 1]"},
	}
	order := newTestClient(c).DetermineOrder(context.Background(), testPages(2))
	assert.Equal(t, []int{1, 0}, order)
	assert.Equal(t, 2, c.calls)
}

func TestDetermineOrderIdentityCountsAsFailure(t *testing.T) {
	c := &scriptedCompleter{
		responses: []string{"[1, 2, 3]", "[1, 2, 3]", "[3, 2, 1]"},
	}
	order := newTestClient(c).DetermineOrder(context.Background(), testPages(3))
	assert.Equal(t, []int{2, 1, 0}, order)
	assert.Equal(t, 3, c.calls)
}

func TestDetermineOrderExhaustionFallsBackToIdentity(t *testing.T) {
	c := &scriptedCompleter{
		errs: []error{errors.New("boom"), errors.New("boom"), errors.New("boom")},
	}
	order := newTestClient(c).DetermineOrder(context.Background(), testPages(4))
	assert.Equal(t, []int{0, 1, 2, 3}, order)
	assert.Equal(t, 3, c.calls)
}

func TestDetermineOrderShortDocumentsSkipOracle(t *testing.T) {
	c := &scriptedCompleter{}

	assert.Equal(t, []int{0}, newTestClient(c).DetermineOrder(context.Background(), testPages(1)))
	assert.Empty(t, newTestClient(c).DetermineOrder(context.Background(), nil))
	assert.Equal(t, 0, c.calls)
}

func TestDetermineOrderAlwaysPermutation(t *testing.T) {
	// garbage answers of every flavor must still yield a valid permutation
	responses := []string{"", "[9, 8, 7]", "[1, 1, 2]", "not even close"}
	for _, resp := range responses {
		c := &scriptedCompleter{responses: []string{resp, resp, resp}}
		order := newTestClient(c).DetermineOrder(context.Background(), testPages(3))

		seen := map[int]bool{}
		for _, v := range order {
			assert.GreaterOrEqual(t, v, 0)
			assert.Less(t, v, 3)
			assert.False(t, seen[v], "duplicate index in order for response %q", resp)
			seen[v] = true
		}
		assert.Len(t, order, 3)
	}
}

func TestBuildOrderingPromptContainsPages(t *testing.T) {
	pages := []pdf.Page{
		{OriginalIndex: 0, Text: "WHEREAS the parties agree"},
		{OriginalIndex: 1, Text: "IN WITNESS WHEREOF"},
	}
	prompt := buildOrderingPrompt(pages)

	assert.Contains(t, prompt, `"page_id": 1`)
	assert.Contains(t, prompt, `"page_id": 2`)
	assert.Contains(t, prompt, "WHEREAS the parties agree")
	assert.Contains(t, prompt, "ALL 2 pages")
	assert.True(t, strings.Contains(prompt, "JSON array"))
}
