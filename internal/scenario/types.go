// internal/scenario/types.go

// Package scenario loads YAML test scenarios and runs their steps against a
// ratdriver.RatDriver, timing every step.
package scenario

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/valpere/ratdriver/internal/config"
	"github.com/valpere/ratdriver/pkg/ratdriver"
)

// Action names a step kind
type Action string

const (
	ActionNavigate        Action = "navigate"
	ActionClick           Action = "click"
	ActionClickAndWait    Action = "click_and_wait"
	ActionWaitVisible     Action = "wait_visible"
	ActionWaitClickable   Action = "wait_clickable"
	ActionWaitInvisible   Action = "wait_invisible"
	ActionTextContains    Action = "text_contains"
	ActionAttributeEquals Action = "attribute_equals"
	ActionCSSEquals       Action = "css_equals"
	ActionURLContains     Action = "url_contains"
	ActionTitleContains   Action = "title_contains"
	ActionSourceContains  Action = "source_contains"
	ActionShadowClick     Action = "shadow_click"
	ActionScreenshot      Action = "screenshot"
	ActionHover           Action = "hover"
	ActionType            Action = "type"
	ActionBack            Action = "back"
	ActionRefresh         Action = "refresh"
)

// Actions returns every supported step kind
func Actions() []Action {
	return []Action{
		ActionNavigate, ActionClick, ActionClickAndWait, ActionWaitVisible,
		ActionWaitClickable, ActionWaitInvisible, ActionTextContains,
		ActionAttributeEquals, ActionCSSEquals, ActionURLContains,
		ActionTitleContains, ActionSourceContains, ActionShadowClick,
		ActionScreenshot, ActionHover, ActionType, ActionBack, ActionRefresh,
	}
}

// Scenario is an ordered list of steps run in one browser session
type Scenario struct {
	Name            string `yaml:"name" json:"name"`
	BaseURL         string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	ContinueOnError bool   `yaml:"continue_on_error,omitempty" json:"continue_on_error,omitempty"`
	Steps           []Step `yaml:"steps" json:"steps"`
}

// Step is one action. Which fields apply depends on Action.
type Step struct {
	Name      string          `yaml:"name,omitempty" json:"name,omitempty"`
	Action    Action          `yaml:"action" json:"action"`
	URL       string          `yaml:"url,omitempty" json:"url,omitempty"`
	Locator   *Locator        `yaml:"locator,omitempty" json:"locator,omitempty"`
	Chain     []Locator       `yaml:"chain,omitempty" json:"chain,omitempty"`
	Selector  string          `yaml:"selector,omitempty" json:"selector,omitempty"`
	Text      string          `yaml:"text,omitempty" json:"text,omitempty"`
	Attribute string          `yaml:"attribute,omitempty" json:"attribute,omitempty"`
	Property  string          `yaml:"property,omitempty" json:"property,omitempty"`
	Value     string          `yaml:"value,omitempty" json:"value,omitempty"`
	Path      string          `yaml:"path,omitempty" json:"path,omitempty"`
	Clear     bool            `yaml:"clear,omitempty" json:"clear,omitempty"`
	Wait      bool            `yaml:"wait,omitempty" json:"wait,omitempty"`
	Timeout   config.Timespan `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// Label is the name the step is timed under.
func (s Step) Label(index int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("%02d %s", index+1, s.Action)
}

// Locator is a ratdriver.By read from YAML either as a mapping
// ({type: id, value: btn}) or as a "type=value" string.
type Locator struct {
	ratdriver.By
}

// ParseLocator reads the "type=value" form
func ParseLocator(s string) (Locator, error) {
	typ, value, ok := strings.Cut(s, "=")
	if !ok {
		return Locator{}, fmt.Errorf("locator %q: expected type=value", s)
	}
	t, err := ratdriver.ParseLocatorType(typ)
	if err != nil {
		return Locator{}, err
	}
	return Locator{ratdriver.By{Type: t, Value: value}}, nil
}

// UnmarshalYAML satisfies yaml.Unmarshaler.
func (l *Locator) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		parsed, err := ParseLocator(value.Value)
		if err != nil {
			return err
		}
		*l = parsed
		return nil
	}
	return value.Decode(&l.By)
}

// MarshalYAML writes the compact string form.
func (l Locator) MarshalYAML() (interface{}, error) {
	return l.By.String(), nil
}

func (l Locator) String() string { return l.By.String() }

func bys(locators []Locator) []ratdriver.By {
	out := make([]ratdriver.By, len(locators))
	for i, l := range locators {
		out[i] = l.By
	}
	return out
}
