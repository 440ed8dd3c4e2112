package classify

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDoc struct {
	texts  []string
	errs   map[int]error
	closed bool
	probed []int
}

func (d *fakeDoc) NumPage() int { return len(d.texts) }

func (d *fakeDoc) PageText(i int) (string, error) {
	d.probed = append(d.probed, i)
	if err := d.errs[i]; err != nil {
		return "", err
	}
	return d.texts[i], nil
}

func (d *fakeDoc) Close() error {
	d.closed = true
	return nil
}

type fakeOpener struct {
	doc *fakeDoc
	err error
}

func (o fakeOpener) Open(path string) (Doc, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.doc, nil
}

func dense(n int) string { return strings.Repeat("x", n) }

func TestClassifyDigital(t *testing.T) {
	doc := &fakeDoc{texts: []string{dense(500), dense(500), dense(500)}}
	c := New(fakeOpener{doc: doc}, 0, 0)

	kind, diag, err := c.Classify("doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, Digital, kind)
	assert.Equal(t, Digital, diag.Kind)
	assert.True(t, doc.closed)
	// first dense page is enough, remaining pages are not probed
	assert.Equal(t, []int{0}, doc.probed)
}

func TestClassifyScanned(t *testing.T) {
	doc := &fakeDoc{texts: []string{"", " ", "a few words", dense(5000)}}
	c := New(fakeOpener{doc: doc}, 3, 100)

	kind, diag, err := c.Classify("scan.pdf")
	require.NoError(t, err)
	// the dense page sits outside the sampling window
	assert.Equal(t, Scanned, kind)
	assert.Equal(t, []int{0, 1, 2}, doc.probed)
	assert.Equal(t, 3, diag.SampledPages)
	assert.Equal(t, 4, diag.TotalPages)
}

func TestClassifyThresholdIsStrict(t *testing.T) {
	// exactly threshold chars is not enough
	doc := &fakeDoc{texts: []string{dense(100)}}
	kind, _, err := New(fakeOpener{doc: doc}, 3, 100).Classify("edge.pdf")
	require.NoError(t, err)
	assert.Equal(t, Scanned, kind)

	doc2 := &fakeDoc{texts: []string{dense(101)}}
	kind2, _, err := New(fakeOpener{doc: doc2}, 3, 100).Classify("edge.pdf")
	require.NoError(t, err)
	assert.Equal(t, Digital, kind2)
}

func TestClassifyWhitespaceDoesNotCount(t *testing.T) {
	doc := &fakeDoc{texts: []string{strings.Repeat(" \n\t", 200)}}
	kind, _, err := New(fakeOpener{doc: doc}, 3, 100).Classify("ws.pdf")
	require.NoError(t, err)
	assert.Equal(t, Scanned, kind)
}

func TestClassifyShortDocument(t *testing.T) {
	doc := &fakeDoc{texts: []string{dense(10)}}
	kind, diag, err := New(fakeOpener{doc: doc}, 3, 100).Classify("one.pdf")
	require.NoError(t, err)
	assert.Equal(t, Scanned, kind)
	assert.Equal(t, 1, diag.SampledPages)
}

func TestClassifyPageErrorTreatedAsNoText(t *testing.T) {
	doc := &fakeDoc{
		texts: []string{"", "", dense(500)},
		errs:  map[int]error{0: errors.New("render failed")},
	}
	kind, diag, err := New(fakeOpener{doc: doc}, 3, 100).Classify("partial.pdf")
	require.NoError(t, err)
	assert.Equal(t, Digital, kind)
	assert.Equal(t, "render failed", diag.Probes[0].Err)
}

func TestClassifyOpenError(t *testing.T) {
	_, _, err := New(fakeOpener{err: errors.New("not a pdf")}, 3, 100).Classify("bad.pdf")
	assert.Error(t, err)
}

func TestClassifyDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		doc := &fakeDoc{texts: []string{dense(40), dense(300)}}
		kind, _, err := New(fakeOpener{doc: doc}, 3, 100).Classify("same.pdf")
		require.NoError(t, err)
		assert.Equal(t, Digital, kind)
	}
}
