// pkg/ratdriver/locator.go
package ratdriver

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/tebeka/selenium"

	rerrors "github.com/valpere/ratdriver/internal/errors"
)

// LocatorType selects the strategy used to find elements.
type LocatorType int

const (
	// NotSpecified resolves to PartialLinkText.
	NotSpecified LocatorType = iota
	ClassName
	CssSelector
	ID
	LinkText
	Name
	PartialLinkText
	TagName
	XPath
)

var locatorTypeNames = map[LocatorType]string{
	NotSpecified:    "not_specified",
	ClassName:       "class_name",
	CssSelector:     "css_selector",
	ID:              "id",
	LinkText:        "link_text",
	Name:            "name",
	PartialLinkText: "partial_link_text",
	TagName:         "tag_name",
	XPath:           "xpath",
}

var locatorStrategies = map[LocatorType]string{
	NotSpecified:    selenium.ByPartialLinkText,
	ClassName:       selenium.ByClassName,
	CssSelector:     selenium.ByCSSSelector,
	ID:              selenium.ByID,
	LinkText:        selenium.ByLinkText,
	Name:            selenium.ByName,
	PartialLinkText: selenium.ByPartialLinkText,
	TagName:         selenium.ByTagName,
	XPath:           selenium.ByXPATH,
}

func (t LocatorType) String() string {
	if name, ok := locatorTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("LocatorType(%d)", int(t))
}

// ParseLocatorType accepts the snake_case names as well as the WebDriver
// strategy names ("css selector", "link text", ...).
func ParseLocatorType(s string) (LocatorType, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	switch normalized {
	case "css", "cssselector":
		return CssSelector, nil
	case "tag", "tagname":
		return TagName, nil
	case "classname", "class":
		return ClassName, nil
	}
	for t, name := range locatorTypeNames {
		if name == normalized {
			return t, nil
		}
	}
	return NotSpecified, fmt.Errorf("%w: unknown locator type %q", rerrors.ErrInvalidLocator, s)
}

// UnmarshalText lets locator types be read from YAML scenarios.
func (t *LocatorType) UnmarshalText(text []byte) error {
	parsed, err := ParseLocatorType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t LocatorType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// By pairs a locator type with its value.
type By struct {
	Type  LocatorType `yaml:"type" json:"type"`
	Value string      `yaml:"value" json:"value"`
}

func ByClassName(v string) By       { return By{Type: ClassName, Value: v} }
func ByCssSelector(v string) By     { return By{Type: CssSelector, Value: v} }
func ByID(v string) By              { return By{Type: ID, Value: v} }
func ByLinkText(v string) By        { return By{Type: LinkText, Value: v} }
func ByName(v string) By            { return By{Type: Name, Value: v} }
func ByPartialLinkText(v string) By { return By{Type: PartialLinkText, Value: v} }
func ByTagName(v string) By         { return By{Type: TagName, Value: v} }
func ByXPath(v string) By           { return By{Type: XPath, Value: v} }

// Strategy returns the WebDriver strategy and value for the locator.
func (b By) Strategy() (string, string, error) {
	if b.Value == "" {
		return "", "", fmt.Errorf("%w: empty %s value", rerrors.ErrInvalidLocator, b.Type)
	}
	strategy, ok := locatorStrategies[b.Type]
	if !ok {
		return "", "", fmt.Errorf("%w: unknown locator type %d", rerrors.ErrInvalidLocator, int(b.Type))
	}
	return strategy, b.Value, nil
}

// CSS converts locators usable inside a shadow root into a CSS selector.
func (b By) CSS() (string, error) {
	if b.Value == "" {
		return "", fmt.Errorf("%w: empty %s value", rerrors.ErrInvalidLocator, b.Type)
	}
	switch b.Type {
	case CssSelector, TagName:
		return b.Value, nil
	case ID:
		return "[id=" + strconv.Quote(b.Value) + "]", nil
	case Name:
		return "[name=" + strconv.Quote(b.Value) + "]", nil
	case ClassName:
		// WebDriver rejects compound class names; keep the same rule here
		if strings.IndexFunc(b.Value, unicode.IsSpace) >= 0 {
			return "", fmt.Errorf("%w: compound class name %q", rerrors.ErrInvalidLocator, b.Value)
		}
		return "[class~=" + strconv.Quote(b.Value) + "]", nil
	}
	return "", fmt.Errorf("%w: %s cannot be used inside a shadow root", rerrors.ErrInvalidLocator, b.Type)
}

func (b By) String() string {
	if b.Value == "" && b.Type == NotSpecified {
		return ""
	}
	return b.Type.String() + "=" + b.Value
}
