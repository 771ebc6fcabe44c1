package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchEventBubbles(t *testing.T) {
	d := mustParse(t, page)
	app := d.GetElementByID("app")
	greeting := d.GetElementByID("greeting")

	var order []string
	d.AddEventListener(greeting, "ping", func(e *Event) {
		order = append(order, "greeting")
		assert.Equal(t, greeting, e.Target)
		assert.Equal(t, greeting, e.CurrentTarget)
	})
	d.AddEventListener(app, "ping", func(e *Event) {
		order = append(order, "app")
		assert.Equal(t, greeting, e.Target)
		assert.Equal(t, app, e.CurrentTarget)
	})
	d.AddEventListener(app, "other", func(*Event) {
		order = append(order, "other")
	})

	ok := d.DispatchEvent(greeting, NewEvent("ping"))
	assert.True(t, ok)
	assert.Equal(t, []string{"greeting", "app"}, order)

	order = nil
	d.DispatchEvent(greeting, &Event{Type: "ping"})
	assert.Equal(t, []string{"greeting"}, order)
}

func TestStopPropagationAndPreventDefault(t *testing.T) {
	d := mustParse(t, page)
	app := d.GetElementByID("app")
	greeting := d.GetElementByID("greeting")

	reached := false
	d.AddEventListener(app, "click", func(*Event) { reached = true })
	d.AddEventListener(greeting, "click", func(e *Event) {
		e.PreventDefault()
		e.StopPropagation()
	})

	ok := d.DispatchEvent(greeting, NewEvent("click"))
	assert.False(t, ok)
	assert.False(t, reached)

	ev := &Event{Type: "click"}
	ev.PreventDefault()
	assert.False(t, ev.DefaultPrevented(), "non-cancelable event")
}

func TestRemoveEventListener(t *testing.T) {
	d := mustParse(t, page)
	app := d.GetElementByID("app")

	calls := 0
	remove := d.AddEventListener(app, "x", func(*Event) { calls++ })
	assert.Equal(t, 1, d.ListenerCount(app))

	d.DispatchEvent(app, NewEvent("x"))
	remove()
	d.DispatchEvent(app, NewEvent("x"))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, d.ListenerCount(app))
}

func TestVisibility(t *testing.T) {
	d := mustParse(t, page)
	require.False(t, d.Hidden())

	var seen []bool
	d.OnVisibilityChange(func(hidden bool) { seen = append(seen, hidden) })

	d.SetHidden(true)
	d.SetHidden(true)
	d.SetHidden(false)

	assert.Equal(t, []bool{true, false}, seen)
}

func TestOnContentLoaded(t *testing.T) {
	d := mustParse(t, page, WithReadyState(Loading))

	calls := 0
	d.OnContentLoaded(func() { calls++ })
	assert.Equal(t, 0, calls)

	d.SetReadyState(Interactive)
	assert.Equal(t, 1, calls)
	d.SetReadyState(Complete)
	assert.Equal(t, 1, calls)

	d.OnContentLoaded(func() { calls++ })
	assert.Equal(t, 2, calls)
}

func TestOnContentLoadedCancel(t *testing.T) {
	d := mustParse(t, page, WithReadyState(Loading))

	called := false
	cancel := d.OnContentLoaded(func() { called = true })
	cancel()
	d.SetReadyState(Complete)
	assert.False(t, called)
}

func TestFormData(t *testing.T) {
	d := mustParse(t, `<html><body>
<form id="f">
	<input name="name" value="ada">
	<input name="agree" type="checkbox" checked>
	<input name="skip" type="checkbox">
	<input name="pick" type="radio" value="b" checked>
	<input name="gone" value="x" disabled>
	<input type="submit" name="go" value="Go">
	<textarea name="bio">hi</textarea>
	<select name="color"><option>red</option><option value="g" selected>green</option></select>
	<button id="btn">send</button>
</form>
</body></html>`)

	btn := d.GetElementByID("btn")
	form := d.Form(btn)
	require.NotNil(t, form)
	assert.Equal(t, "f", ID(form))

	assert.Equal(t, [][2]string{
		{"name", "ada"},
		{"agree", "on"},
		{"pick", "b"},
		{"bio", "hi"},
		{"color", "g"},
	}, FormData(form))
}
