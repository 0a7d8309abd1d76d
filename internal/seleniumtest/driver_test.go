// internal/seleniumtest/driver_test.go
package seleniumtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebeka/selenium"
)

const page = `<html><head><title> Fake </title></head><body>
<div id="menu" class="nav main"><a href="/next" name="go">Next page</a></div>
<p id="hidden" style="display: none">secret</p>
<my-card id="card"><template shadowrootmode="open"><button class="inner">Inner</button></template></my-card>
</body></html>`

func TestDriver_FindAndNavigate(t *testing.T) {
	d := NewDriver()
	d.AddPage("/next", `<html><head><title>Next</title></head><body><h1>Done</h1></body></html>`)
	require.NoError(t, d.LoadHTML("/start", page))

	title, err := d.Title()
	require.NoError(t, err)
	assert.Equal(t, "Fake", title)

	link, err := d.FindElement(selenium.ByLinkText, "Next page")
	require.NoError(t, err)
	byName, err := d.FindElement(selenium.ByName, "go")
	require.NoError(t, err)
	assert.Same(t, link, byName)

	require.NoError(t, link.Click())
	url, _ := d.CurrentURL()
	assert.Equal(t, "/next", url)

	_, err = link.Text()
	assert.ErrorIs(t, err, ErrStale)

	require.NoError(t, d.Back())
	url, _ = d.CurrentURL()
	assert.Equal(t, "/start", url)
}

func TestDriver_Visibility(t *testing.T) {
	d := NewDriver()
	require.NoError(t, d.LoadHTML("/start", page))

	el, err := d.FindElement(selenium.ByID, "hidden")
	require.NoError(t, err)
	displayed, err := el.IsDisplayed()
	require.NoError(t, err)
	assert.False(t, displayed)
	assert.ErrorIs(t, el.Click(), ErrNotInteractable)

	d.SetAttribute("#hidden", "style", "")
	displayed, _ = el.IsDisplayed()
	assert.True(t, displayed)
}

func TestDriver_ShadowScope(t *testing.T) {
	d := NewDriver()
	require.NoError(t, d.LoadHTML("/start", page))

	_, err := d.FindElement(selenium.ByCSSSelector, "button.inner")
	assert.ErrorIs(t, err, ErrNoSuchElement)

	host := d.Element("#card")
	require.NotNil(t, host)
	found, err := ShadowQuery(d, []interface{}{host, "button.inner"})
	require.NoError(t, err)
	require.NotNil(t, found)
	text, err := found.(*Element).Text()
	require.NoError(t, err)
	assert.Equal(t, "Inner", text)

	raw, err := d.ExecuteScriptRaw("shadow", []interface{}{host})
	assert.Error(t, err)
	assert.Nil(t, raw)
}

func TestDriver_ScriptElementsRoundTrip(t *testing.T) {
	d := NewDriver()
	require.NoError(t, d.LoadHTML("/start", page))
	d.HandleScript("menu", func(d *Driver, args []interface{}) (interface{}, error) {
		return d.Element("#menu"), nil
	})

	raw, err := d.ExecuteScriptRaw("menu", nil)
	require.NoError(t, err)
	el, err := d.DecodeElement(raw)
	require.NoError(t, err)
	assert.Same(t, d.Element("#menu"), el)
	assert.Equal(t, []string{"menu"}, d.ExecutedScripts())
}
