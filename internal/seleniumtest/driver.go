// internal/seleniumtest/driver.go

// Package seleniumtest provides an in-memory selenium.WebDriver for tests.
// Pages are plain HTML parsed with goquery; elements hidden with the hidden
// attribute or display:none are not displayed, and a
// <template shadowrootmode="open"> child makes its parent a shadow host.
// Loading a page marks every element of the previous page stale.
package seleniumtest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tebeka/selenium"
	slog "github.com/tebeka/selenium/log"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
)

const webElementKey = "element-6066-11e4-a52e-4f735466cecf"

// ScriptFunc answers ExecuteScript for one script text.
type ScriptFunc func(d *Driver, args []interface{}) (interface{}, error)

// Driver is a fake selenium.WebDriver. Methods outside the ones overridden
// here panic.
type Driver struct {
	selenium.WebDriver

	mu sync.Mutex

	pages   map[string]string
	doc     *html.Node
	url     string
	history []string
	pos     int

	handles    []string
	current    string
	nextHandle int
	sizes      map[string]selenium.Size
	maximized  map[string]bool

	nextID   int
	elements map[*html.Node]*Element
	byID     map[string]*Element

	clickErrs  map[*html.Node]error
	keyErrs    map[*html.Node]error
	clickHooks map[string]func(*Driver)
	scripts    map[string]ScriptFunc
	executed   []string
	hovered    *Element

	logs map[slog.Type][]slog.Message
	caps selenium.Capabilities

	implicitWait    time.Duration
	pageLoadTimeout time.Duration
	scriptTimeout   time.Duration
	quits           int
	// ended is set once the last window closes; chromedriver drops the
	// session at that point.
	ended bool
}

// NewDriver returns a driver showing an empty about:blank page in one window.
func NewDriver() *Driver {
	d := &Driver{
		pages:      map[string]string{"about:blank": "<html><head></head><body></body></html>"},
		sizes:      make(map[string]selenium.Size),
		maximized:  make(map[string]bool),
		clickErrs:  make(map[*html.Node]error),
		keyErrs:    make(map[*html.Node]error),
		clickHooks: make(map[string]func(*Driver)),
		scripts:    make(map[string]ScriptFunc),
		logs:       make(map[slog.Type][]slog.Message),
		caps:       selenium.Capabilities{"browserName": "chrome"},
	}
	d.current = d.newHandle()
	if err := d.Get("about:blank"); err != nil {
		panic(err)
	}
	return d
}

// AddPage registers html under url for later navigation.
func (d *Driver) AddPage(url, source string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pages[url] = source
}

// LoadHTML registers html under url and navigates to it.
func (d *Driver) LoadHTML(url, source string) error {
	d.AddPage(url, source)
	return d.Get(url)
}

// Element returns the first element matching css anywhere on the page,
// shadow trees included, or nil.
func (d *Driver) Element(css string) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	nodes := d.query(css)
	if len(nodes) == 0 {
		return nil
	}
	return d.wrap(nodes[0])
}

// SetVisible shows or hides every element matching css.
func (d *Driver) SetVisible(css string, visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.query(css) {
		if visible {
			removeAttr(n, "hidden")
		} else {
			setAttr(n, "hidden", "")
		}
	}
}

// SetAttribute sets an attribute on every element matching css.
func (d *Driver) SetAttribute(css, name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.query(css) {
		setAttr(n, name, value)
	}
}

// SetText replaces the children of every element matching css with text.
func (d *Driver) SetText(css, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.query(css) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

// Remove detaches every element matching css; existing references go stale.
func (d *Driver) Remove(css string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.query(css) {
		if el, ok := d.elements[n]; ok {
			el.stale = true
		}
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

// FailClick makes clicks on elements matching css return err.
func (d *Driver) FailClick(css string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.query(css) {
		d.clickErrs[n] = err
	}
}

// FailKeys makes SendKeys on elements matching css return err.
func (d *Driver) FailKeys(css string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.query(css) {
		d.keyErrs[n] = err
	}
}

// OnClick runs fn after a successful click on the element with id.
func (d *Driver) OnClick(id string, fn func(*Driver)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clickHooks[id] = fn
}

// HandleScript answers ExecuteScript calls whose text equals script.
func (d *Driver) HandleScript(script string, fn ScriptFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scripts[script] = fn
}

// ExecutedScripts lists every script run so far.
func (d *Driver) ExecutedScripts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.executed...)
}

// Hovered returns the element the mouse was last moved to.
func (d *Driver) Hovered() *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hovered
}

// AddLog makes typ available and appends messages to it.
func (d *Driver) AddLog(typ slog.Type, messages ...slog.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logs[typ] = append(d.logs[typ], messages...)
}

// SetCapabilities replaces the session capabilities.
func (d *Driver) SetCapabilities(caps selenium.Capabilities) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.caps = caps
}

// Timeouts returns the implicit wait, page load and script timeouts.
func (d *Driver) Timeouts() (implicit, pageLoad, script time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.implicitWait, d.pageLoadTimeout, d.scriptTimeout
}

// QuitCount returns how many times Quit was called.
func (d *Driver) QuitCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quits
}

// WindowSize returns the last size set for handle.
func (d *Driver) WindowSize(handle string) selenium.Size {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sizes[handle]
}

// Maximized reports whether handle was maximized.
func (d *Driver) Maximized(handle string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maximized[handle]
}

// OpenWindow adds a window and returns its handle without switching to it.
func (d *Driver) OpenWindow() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.newHandle()
}

func (d *Driver) newHandle() string {
	d.nextHandle++
	h := fmt.Sprintf("CDwindow-%d", d.nextHandle)
	d.handles = append(d.handles, h)
	d.sizes[h] = selenium.Size{Width: 1024, Height: 768}
	return h
}

func (d *Driver) query(css string) []*html.Node {
	return goquery.NewDocumentFromNode(d.doc).Find(css).Nodes
}

func (d *Driver) wrap(n *html.Node) *Element {
	if el, ok := d.elements[n]; ok {
		return el
	}
	d.nextID++
	el := &Element{d: d, id: fmt.Sprintf("el-%d", d.nextID), node: n}
	d.elements[n] = el
	d.byID[el.id] = el
	return el
}

func (d *Driver) findOne(root *html.Node, by, value string) (selenium.WebElement, error) {
	nodes, err := find(root, by, value)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: {\"method\":%q,\"selector\":%q}", ErrNoSuchElement, by, value)
	}
	return d.wrap(nodes[0]), nil
}

func (d *Driver) findAll(root *html.Node, by, value string) ([]selenium.WebElement, error) {
	nodes, err := find(root, by, value)
	if err != nil {
		return nil, err
	}
	out := make([]selenium.WebElement, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, d.wrap(n))
	}
	return out, nil
}

// load parses the page for url; the caller holds mu.
func (d *Driver) load(url string) error {
	source, ok := d.pages[url]
	if !ok {
		return fmt.Errorf("unknown error: net::ERR_NAME_NOT_RESOLVED (%s)", url)
	}
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return err
	}

	for _, el := range d.elements {
		el.stale = true
	}
	d.elements = make(map[*html.Node]*Element)
	d.byID = make(map[string]*Element)
	d.clickErrs = make(map[*html.Node]error)
	d.keyErrs = make(map[*html.Node]error)
	d.hovered = nil
	d.doc = doc
	d.url = url
	return nil
}

func (d *Driver) Get(url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.load(url); err != nil {
		return err
	}
	if len(d.history) > 0 {
		d.history = d.history[:d.pos+1]
	}
	d.history = append(d.history, url)
	d.pos = len(d.history) - 1
	return nil
}

func (d *Driver) Back() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pos == 0 {
		return nil
	}
	d.pos--
	return d.load(d.history[d.pos])
}

func (d *Driver) Forward() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pos >= len(d.history)-1 {
		return nil
	}
	d.pos++
	return d.load(d.history[d.pos])
}

func (d *Driver) Refresh() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load(d.url)
}

func (d *Driver) CurrentURL() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ended {
		return "", ErrInvalidSession
	}
	return d.url, nil
}

func (d *Driver) Title() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.TrimSpace(goquery.NewDocumentFromNode(d.doc).Find("title").First().Text()), nil
}

func (d *Driver) PageSource() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var buf bytes.Buffer
	if err := html.Render(&buf, d.doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (d *Driver) FindElement(by, value string) (selenium.WebElement, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.findOne(d.doc, by, value)
}

func (d *Driver) FindElements(by, value string) ([]selenium.WebElement, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.findAll(d.doc, by, value)
}

func (d *Driver) ExecuteScript(script string, args []interface{}) (interface{}, error) {
	result, err := d.runScript(script, args)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

func (d *Driver) ExecuteScriptRaw(script string, args []interface{}) ([]byte, error) {
	result, err := d.runScript(script, args)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]interface{}{"value": result})
}

func (d *Driver) runScript(script string, args []interface{}) (interface{}, error) {
	d.mu.Lock()
	fn, ok := d.scripts[script]
	d.executed = append(d.executed, script)
	d.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("javascript error: no handler for script %q", script)
	}
	return fn(d, args)
}

func (d *Driver) DecodeElement(data []byte) (selenium.WebElement, error) {
	value := gjson.GetBytes(data, "value")
	el := d.lookup(value)
	if el == nil {
		return nil, fmt.Errorf("invalid element returned: %s", value.Raw)
	}
	return el, nil
}

func (d *Driver) DecodeElements(data []byte) ([]selenium.WebElement, error) {
	var out []selenium.WebElement
	for _, value := range gjson.GetBytes(data, "value").Array() {
		el := d.lookup(value)
		if el == nil {
			return nil, fmt.Errorf("invalid element returned: %s", value.Raw)
		}
		out = append(out, el)
	}
	return out, nil
}

func (d *Driver) lookup(value gjson.Result) *Element {
	id := value.Get(webElementKey).String()
	if id == "" {
		id = value.Get("ELEMENT").String()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.byID[id]
}

func (d *Driver) WaitWithTimeoutAndInterval(condition selenium.Condition, timeout, interval time.Duration) error {
	start := time.Now()
	for {
		done, err := condition(d)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if elapsed := time.Since(start); elapsed > timeout {
			return fmt.Errorf("timeout after %v", elapsed)
		}
		time.Sleep(interval)
	}
}

func (d *Driver) WaitWithTimeout(condition selenium.Condition, timeout time.Duration) error {
	return d.WaitWithTimeoutAndInterval(condition, timeout, 100*time.Millisecond)
}

func (d *Driver) Wait(condition selenium.Condition) error {
	return d.WaitWithTimeout(condition, 60*time.Second)
}

func (d *Driver) CurrentWindowHandle() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == "" {
		return "", fmt.Errorf("no such window")
	}
	return d.current, nil
}

func (d *Driver) WindowHandles() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.handles...), nil
}

func (d *Driver) SwitchWindow(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range d.handles {
		if h == name {
			d.current = h
			return nil
		}
	}
	return fmt.Errorf("no such window: %s", name)
}

func (d *Driver) CloseWindow(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, h := range d.handles {
		if h == name {
			d.handles = append(d.handles[:i], d.handles[i+1:]...)
			if d.current == name {
				d.current = ""
			}
			if len(d.handles) == 0 {
				d.ended = true
			}
			return nil
		}
	}
	return fmt.Errorf("no such window: %s", name)
}

func (d *Driver) Close() error {
	d.mu.Lock()
	current := d.current
	d.mu.Unlock()
	return d.CloseWindow(current)
}

func (d *Driver) MaximizeWindow(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if name == "" {
		name = d.current
	}
	d.maximized[name] = true
	d.sizes[name] = selenium.Size{Width: 1920, Height: 1080}
	return nil
}

func (d *Driver) ResizeWindow(name string, width, height int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if name == "" {
		name = d.current
	}
	d.maximized[name] = false
	d.sizes[name] = selenium.Size{Width: width, Height: height}
	return nil
}

func (d *Driver) SetImplicitWaitTimeout(timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.implicitWait = timeout
	return nil
}

func (d *Driver) SetPageLoadTimeout(timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pageLoadTimeout = timeout
	return nil
}

func (d *Driver) SetAsyncScriptTimeout(timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scriptTimeout = timeout
	return nil
}

func (d *Driver) Log(typ slog.Type) ([]slog.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	messages, ok := d.logs[typ]
	if !ok {
		return nil, fmt.Errorf("invalid argument: log type '%s' not found", typ)
	}
	return append([]slog.Message(nil), messages...), nil
}

func (d *Driver) Capabilities() (selenium.Capabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(selenium.Capabilities, len(d.caps))
	for k, v := range d.caps {
		out[k] = v
	}
	return out, nil
}

func (d *Driver) Screenshot() ([]byte, error) {
	return []byte("\x89PNG page"), nil
}

func (d *Driver) SessionID() string {
	return "fake-session"
}

func (d *Driver) Quit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ended {
		return ErrInvalidSession
	}
	d.quits++
	return nil
}
