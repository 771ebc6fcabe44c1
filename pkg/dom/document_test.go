package dom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const page = `<!DOCTYPE html><html><head></head><body>
<div id="app" class="live main" data-count="1" data-user-name="ada">
	<p id="greeting">Hello World!</p>
	<ul id="list"><li>a</li><li>b</li></ul>
</div>
<span class="live" id="side"></span>
</body></html>`

func mustParse(t *testing.T, s string, opts ...Option) *Document {
	t.Helper()
	d, err := ParseString(s, opts...)
	require.NoError(t, err)
	return d
}

func TestQuerySelectorAll(t *testing.T) {
	d := mustParse(t, page)

	nodes, err := d.QuerySelectorAll("#list li")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "a", TextContent(nodes[0]))
	assert.Equal(t, "b", TextContent(nodes[1]))

	first, err := d.QuerySelector(".live")
	require.NoError(t, err)
	assert.Equal(t, "app", ID(first))

	_, err = d.QuerySelectorAll("##bad[")
	assert.True(t, errors.Is(err, ErrInvalidSelector), "err = %v", err)
}

func TestGetElementByIDAndContains(t *testing.T) {
	d := mustParse(t, page)

	greeting := d.GetElementByID("greeting")
	require.NotNil(t, greeting)
	assert.True(t, d.Contains(greeting))
	assert.Nil(t, d.GetElementByID("missing"))
	assert.Nil(t, d.GetElementByID(""))

	d.Remove(greeting)
	assert.False(t, d.Contains(greeting))
	assert.Nil(t, d.GetElementByID("greeting"))
}

func TestElementsByClassName(t *testing.T) {
	d := mustParse(t, page)

	var ids []string
	for _, n := range d.ElementsByClassName("live") {
		ids = append(ids, ID(n))
	}
	assert.Equal(t, []string{"app", "side"}, ids)
}

func TestDataset(t *testing.T) {
	d := mustParse(t, page)

	got := Dataset(d.GetElementByID("app"))
	assert.Equal(t, map[string]string{"count": "1", "userName": "ada"}, got)
	assert.Empty(t, Dataset(d.GetElementByID("side")))
}

func TestInnerHTMLRoundTrip(t *testing.T) {
	d := mustParse(t, page)
	p := d.GetElementByID("greeting")

	require.NoError(t, d.SetInnerHTML(p, "<b>Goodbye</b> World!"))
	assert.Equal(t, "<b>Goodbye</b> World!", InnerHTML(p))
	assert.Equal(t, "Goodbye World!", TextContent(p))
	assert.Equal(t, `<p id="greeting"><b>Goodbye</b> World!</p>`, OuterHTML(p))
}

func TestCloneIsDetachedAndDeep(t *testing.T) {
	d := mustParse(t, page)
	list := d.GetElementByID("list")

	c := Clone(list)
	assert.Nil(t, c.Parent)
	assert.Equal(t, OuterHTML(list), OuterHTML(c))

	c.FirstChild.FirstChild.Data = "changed"
	assert.Equal(t, "a", TextContent(list.FirstChild))
}

func TestParseFragmentDetached(t *testing.T) {
	nodes, err := ParseFragment(`<li>1</li><li>2</li>`)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	for _, n := range nodes {
		assert.Nil(t, n.Parent)
	}
}

func TestMutationRecords(t *testing.T) {
	d := mustParse(t, page)
	var got [][]MutationRecord
	stop := d.Observe(func(records []MutationRecord) {
		got = append(got, records)
	})

	list := d.GetElementByID("list")
	item := &html.Node{Type: html.ElementNode, Data: "li"}
	d.Append(list, item)

	require.Len(t, got, 1)
	require.Len(t, got[0], 1)
	assert.Equal(t, ChildList, got[0][0].Type)
	assert.Equal(t, list, got[0][0].Target)
	assert.Equal(t, []*html.Node{item}, got[0][0].Added)

	d.SetAttribute(list, "class", "x")
	require.Len(t, got, 2)
	rec := got[1][0]
	assert.Equal(t, Attributes, rec.Type)
	assert.Equal(t, "class", rec.AttributeName)
	assert.False(t, rec.HadOld)

	d.SetAttribute(list, "class", "y")
	assert.Equal(t, "x", got[2][0].OldValue)

	stop()
	d.Remove(item)
	assert.Len(t, got, 3)
}

func TestBatchDeliversOnce(t *testing.T) {
	d := mustParse(t, page)
	calls := 0
	var records []MutationRecord
	d.Observe(func(r []MutationRecord) {
		calls++
		records = r
	})

	list := d.GetElementByID("list")
	d.Batch(func() {
		d.Batch(func() {
			d.Remove(list.FirstChild)
		})
		d.Append(list, &html.Node{Type: html.ElementNode, Data: "li"})
		assert.Equal(t, 0, calls)
	})

	assert.Equal(t, 1, calls)
	assert.Len(t, records, 2)
}

func TestMoveProducesRemoveThenAdd(t *testing.T) {
	d := mustParse(t, page)
	var records []MutationRecord
	d.Observe(func(r []MutationRecord) { records = append(records, r...) })

	app := d.GetElementByID("app")
	greeting := d.GetElementByID("greeting")
	d.Append(app, greeting)

	require.Len(t, records, 2)
	assert.Equal(t, []*html.Node{greeting}, records[0].Removed)
	assert.Equal(t, []*html.Node{greeting}, records[1].Added)
	assert.Equal(t, greeting, app.LastChild)
}

func TestPrependOrder(t *testing.T) {
	d := mustParse(t, page)
	list := d.GetElementByID("list")

	nodes, err := ParseFragment(`<li>y</li><li>z</li>`)
	require.NoError(t, err)
	d.Prepend(list, nodes...)

	assert.Equal(t, "<li>y</li><li>z</li><li>a</li><li>b</li>", InnerHTML(list))
}

func TestReplaceWith(t *testing.T) {
	d := mustParse(t, page)
	list := d.GetElementByID("list")

	nodes, err := ParseFragment(`<p>1</p><p>2</p>`)
	require.NoError(t, err)
	require.NoError(t, d.ReplaceWith(list.FirstChild, nodes...))
	assert.Equal(t, "<p>1</p><p>2</p><li>b</li>", InnerHTML(list))

	assert.ErrorIs(t, d.ReplaceWith(&html.Node{Type: html.ElementNode, Data: "i"}), ErrNoParent)
}

func TestClasses(t *testing.T) {
	d := mustParse(t, page)
	side := d.GetElementByID("side")

	d.AddClass(side, "active")
	assert.Equal(t, []string{"live", "active"}, Classes(side))
	d.RemoveClass(side, "live")
	assert.False(t, HasClass(side, "live"))
	assert.True(t, HasClass(side, "active"))
}
