package oracle

import (
    "encoding/json"
    "fmt"
    "regexp"
    "strconv"
)

var (
    arrayRe = regexp.MustCompile(`\[[\d,\s]+\]`)
    digitRe = regexp.MustCompile(`\d+`)
)

// ParseOrder extracts a page order from a completion response. The response
// is expected to contain a JSON array of 1-based page ids; markdown fences
// and surrounding prose are tolerated. As a fallback every integer in the
// response is collected in appearance order. The result is converted to
// 0-based indices and rejected unless it is exactly a permutation of
// [0, n).
func ParseOrder(response string, n int) ([]int, error) {
    if m := arrayRe.FindString(response); m != "" {
        var raw []int
        if err := json.Unmarshal([]byte(m), &raw); err == nil {
            if order, err := toPermutation(raw, n); err == nil {
                return order, nil
            }
        }
    }

    // fallback: pick every integer out of the text
    var raw []int
    for _, d := range digitRe.FindAllString(response, -1) {
        v, err := strconv.Atoi(d)
        if err != nil {
            continue
        }
        raw = append(raw, v)
    }
    return toPermutation(raw, n)
}

func toPermutation(raw []int, n int) ([]int, error) {
    order := make([]int, 0, n)
    for _, v := range raw {
        if v >= 1 && v <= n {
            order = append(order, v-1)
        }
    }
    if len(order) != n {
        return nil, fmt.Errorf("expected %d page ids, got %d", n, len(order))
    }
    seen := make([]bool, n)
    for _, v := range order {
        if seen[v] {
            return nil, fmt.Errorf("duplicate page id %d", v+1)
        }
        seen[v] = true
    }
    return order, nil
}
