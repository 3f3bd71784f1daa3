package memhost

import (
	"errors"
	"testing"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAppendRemove(t *testing.T) {
	h := New()
	root := h.NewContainer("root")

	a, err := h.CreateNode("div")
	require.NoError(t, err)
	b, err := h.CreateNode("span")
	require.NoError(t, err)

	require.NoError(t, h.Append(root, a))
	require.NoError(t, h.Append(root, b))
	assert.Equal(t, "<root><div></div><span></span></root>", h.Markup(root))

	require.NoError(t, h.Remove(root, a))
	assert.Equal(t, "<root><span></span></root>", h.Markup(root))
	assert.Nil(t, a.(*Node).Parent)

	assert.ErrorIs(t, h.Remove(root, a), ErrNotChild)
	assert.Equal(t, 2, h.CountOps(OpCreate))
}

func TestInsertBefore(t *testing.T) {
	h := New()
	root := h.NewContainer("root")
	a, _ := h.CreateNode("a")
	c, _ := h.CreateNode("c")
	b, _ := h.CreateNode("b")

	require.NoError(t, h.Append(root, a))
	require.NoError(t, h.Append(root, c))
	require.NoError(t, h.InsertBefore(root, b, c))
	assert.Equal(t, "<root><a></a><b></b><c></c></root>", h.Markup(root))

	d, _ := h.CreateNode("d")
	require.NoError(t, h.InsertBefore(root, d, nil))
	assert.Equal(t, "<root><a></a><b></b><c></c><d></d></root>", h.Markup(root))
}

func TestAppendMovesNode(t *testing.T) {
	h := New()
	p1 := h.NewContainer("p1")
	p2 := h.NewContainer("p2")
	n, _ := h.CreateNode("n")

	require.NoError(t, h.Append(p1, n))
	require.NoError(t, h.Append(p2, n))
	assert.Empty(t, p1.Children)
	assert.Same(t, p2, n.(*Node).Parent)
}

func TestAttributesAndText(t *testing.T) {
	h := New()
	root := h.NewContainer("root")
	text, _ := h.CreateNode(string(core.TextKind))
	require.NoError(t, h.SetAttribute(text, core.NodeValue, "hi"))
	require.NoError(t, h.Append(root, text))
	require.NoError(t, h.SetAttribute(root, "id", "x"))

	assert.Equal(t, "hi", root.Text())
	assert.Equal(t, `<root id="x">hi</root>`, h.Markup(root))

	require.NoError(t, h.ClearAttribute(root, "id"))
	assert.NotContains(t, root.Attrs, "id")
}

func TestListenersAndDispatch(t *testing.T) {
	h := New()
	n := h.NewContainer("button")
	clicks := 0
	l := core.On(func(ev core.Event) {
		clicks++
		assert.Equal(t, "click", ev.Type)
	})

	require.NoError(t, h.AddListener(n, "click", l))
	assert.Equal(t, 1, h.Dispatch(n, "click", nil))
	assert.Equal(t, 1, clicks)

	require.NoError(t, h.RemoveListener(n, "click", l))
	assert.Equal(t, 0, h.Dispatch(n, "click", nil))
	assert.Empty(t, n.Listeners)
}

func TestFailOn(t *testing.T) {
	h := New()
	boom := errors.New("boom")
	h.FailOn(OpCreate, boom)
	_, err := h.CreateNode("div")
	assert.ErrorIs(t, err, boom)

	h.FailOn(OpCreate, nil)
	_, err = h.CreateNode("div")
	assert.NoError(t, err)
}

func TestForeignHandle(t *testing.T) {
	h := New()
	assert.ErrorIs(t, h.SetAttribute("nope", "k", 1), ErrForeignHandle)
}

func TestSnapshotAndFind(t *testing.T) {
	h := New()
	root := h.NewContainer("root")
	div, _ := h.CreateNode("div")
	require.NoError(t, h.SetAttribute(div, "id", "target"))
	require.NoError(t, h.AddListener(div, "click", core.On(nil)))
	require.NoError(t, h.Append(root, div))

	snap := h.Snapshot(root)
	require.Len(t, snap.Children, 1)
	assert.Equal(t, "div", snap.Children[0].Kind)
	assert.Equal(t, []string{"click"}, snap.Children[0].Listeners)

	found := h.Find(root, ByAttr("id", "target"))
	assert.Same(t, div.(*Node), found)
	assert.Nil(t, h.Find(root, ByKind("span")))
}
