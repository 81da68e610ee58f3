package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate validates the Config using struct tags and cross-field rules.
// Returns an error with actionable messages when validation fails.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	// Cross-field validation: non-memory stores need a path after defaults.
	if c.Store.Driver != "memory" && c.Store.Path == "" {
		return errors.New("store.path is required for the " + c.Store.Driver + " store")
	}

	// rule_types values must be non-empty identifiers.
	for name, def := range c.RuleTypes {
		if strings.TrimSpace(name) == "" {
			return errors.New("rule_types contains an empty type name")
		}
		if strings.TrimSpace(def) == "" {
			return fmt.Errorf("rule_types[%s] has an empty definition", name)
		}
	}

	return nil
}

// formatValidationErrors converts validator errors into readable messages.
func formatValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Namespace(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Namespace(), fe.Tag()))
		}
	}
	return errors.New("invalid configuration: " + strings.Join(msgs, "; "))
}
