// internal/scenario/loader.go
package scenario

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	rerrors "github.com/valpere/ratdriver/internal/errors"
)

// LoadFromFile reads and validates a scenario file
func LoadFromFile(fs afero.Fs, filename string) (*Scenario, error) {
	data, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

// LoadFromReader reads and validates a scenario from reader
func LoadFromReader(reader io.Reader) (*Scenario, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario and validates it. Unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var s Scenario
	if err := decoder.Decode(&s); err != nil {
		if err == io.EOF {
			return nil, rerrors.Mark(fmt.Errorf("scenario is empty"), rerrors.ErrValidation)
		}
		return nil, rerrors.Mark(fmt.Errorf("failed to parse scenario: %w", err), rerrors.ErrValidation)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every step and reports all problems at once
func (s *Scenario) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(s.Name) == "" {
		add("scenario name cannot be empty")
	}
	if s.BaseURL != "" {
		if u, err := url.Parse(s.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			add("base_url %q must be an absolute URL", s.BaseURL)
		}
	}
	if len(s.Steps) == 0 {
		add("at least one step must be configured")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			add("step %d (%s): %v", i+1, step.Label(i), err)
		}
	}

	if len(problems) == 0 {
		return nil
	}

	var msg strings.Builder
	msg.WriteString("Scenario validation failed:\n")
	for i, p := range problems {
		msg.WriteString(fmt.Sprintf("  %d. %s\n", i+1, p))
	}
	return rerrors.Mark(fmt.Errorf("%s", msg.String()), rerrors.ErrValidation)
}

func validateStep(step Step) error {
	needLocator := func() error {
		if step.Locator == nil {
			return fmt.Errorf("locator is required")
		}
		_, _, err := step.Locator.Strategy()
		return err
	}

	switch step.Action {
	case ActionNavigate:
		if step.URL == "" {
			return fmt.Errorf("url is required")
		}
	case ActionClick, ActionClickAndWait, ActionWaitVisible, ActionWaitClickable, ActionWaitInvisible, ActionHover:
		return needLocator()
	case ActionTextContains:
		if err := needLocator(); err != nil {
			return err
		}
		if step.Text == "" {
			return fmt.Errorf("text is required")
		}
	case ActionAttributeEquals:
		if err := needLocator(); err != nil {
			return err
		}
		if step.Attribute == "" {
			return fmt.Errorf("attribute is required")
		}
	case ActionCSSEquals:
		if err := needLocator(); err != nil {
			return err
		}
		if step.Property == "" {
			return fmt.Errorf("property is required")
		}
	case ActionType:
		return needLocator()
	case ActionURLContains, ActionTitleContains:
		if step.Value == "" {
			return fmt.Errorf("value is required")
		}
	case ActionSourceContains:
		if step.Selector == "" && step.Text == "" {
			return fmt.Errorf("selector or text is required")
		}
	case ActionShadowClick:
		if len(step.Chain) < 2 {
			return fmt.Errorf("chain needs a host and at least one element inside its shadow root")
		}
		for _, l := range step.Chain[1:] {
			if _, err := l.CSS(); err != nil {
				return err
			}
		}
	case ActionScreenshot:
		if step.Path == "" {
			return fmt.Errorf("path is required")
		}
	case ActionBack, ActionRefresh:
	case "":
		return fmt.Errorf("action is required")
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
	return nil
}
