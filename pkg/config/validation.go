package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Struct tags cover per-field rules; validateCustomRules covers cross-field
// constraints that tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateCustomRules(cfg)
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// BadgerDB locks its directory; components selecting the badger
	// backend must each get their own path.
	paths := make(map[string]string)

	for component, section := range map[string]map[string]any{
		"metadata": badgerSection(cfg.Metadata.Type, cfg.Metadata.Badger),
		"sessions": badgerSection(cfg.Sessions.Type, cfg.Sessions.Badger),
		"queue":    badgerSection(cfg.Queue.Type, cfg.Queue.Badger),
	} {
		if section == nil {
			continue
		}

		path, _ := section["db_path"].(string)
		if path == "" {
			continue
		}

		if other, taken := paths[path]; taken {
			return fmt.Errorf("%s and %s share the badger db_path %q", other, component, path)
		}
		paths[path] = component
	}

	if cfg.Queue.Enabled && cfg.Thumbnails.Workers == 0 {
		return fmt.Errorf("thumbnails: workers must be positive when the queue is enabled")
	}

	return nil
}

func badgerSection(storeType string, section map[string]any) map[string]any {
	if storeType != "badger" {
		return nil
	}
	return section
}

// formatValidationError converts validator errors into user-friendly
// messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
