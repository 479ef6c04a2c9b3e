package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// MinOrphanGracePeriod is the smallest grace period accepted while the
// sweeper runs. Younger objects may still be waiting for their node row.
const MinOrphanGracePeriod = time.Minute

// Validate checks struct tags first and then the rules that depend on
// several fields at once.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return c.validateCustomRules()
}

func (c *Config) validateCustomRules() error {
	switch c.ContentBackend {
	case BackendFS:
		if c.StorageRoot == "" {
			return fmt.Errorf("StorageRoot: required when content backend is %q", BackendFS)
		}
	case BackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3Bucket: required when content backend is %q", BackendS3)
		}
		if c.S3BaseEndpoint == "" && c.S3Region == "" {
			return fmt.Errorf("S3BaseEndpoint: endpoint or region required when content backend is %q", BackendS3)
		}
	}

	if c.SessionIdleTimeout < 0 {
		return errors.New("SessionIdleTimeout: must not be negative")
	}
	if c.SweepInterval < 0 {
		return errors.New("SweepInterval: must not be negative")
	}
	if c.OrphanGracePeriod < 0 {
		return errors.New("OrphanGracePeriod: must not be negative")
	}
	if c.SweepInterval > 0 && c.OrphanGracePeriod < MinOrphanGracePeriod {
		return fmt.Errorf("OrphanGracePeriod: must be at least %s while the sweeper is enabled", MinOrphanGracePeriod)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
