package validate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration matches every ConfigurationError through errors.Is.
	ErrConfiguration = errors.New("configuration error")

	// ErrProvision matches every ProvisionError through errors.Is.
	ErrProvision = errors.New("provision error")
)

// ConfigurationError reports a missing or invalid stage context field.
// It is fatal: the build aborts before any resource is described.
type ConfigurationError struct {
	Context string
	Message string
}

func (e ConfigurationError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Context, e.Message)
	}
	return "configuration error: " + e.Message
}

// Is makes errors.Is(err, ErrConfiguration) true.
func (e ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Configuration builds a ConfigurationError with a formatted message.
func Configuration(context, format string, args ...interface{}) error {
	return ConfigurationError{Context: context, Message: fmt.Sprintf(format, args...)}
}

// ProvisionError reports an identity, image or credential reference that
// cannot be resolved.
type ProvisionError struct {
	Resource string
	Message  string
	Err      error
}

func (e ProvisionError) Error() string {
	msg := fmt.Sprintf("provision error: %s: %s", e.Resource, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrProvision) true.
func (e ProvisionError) Is(target error) bool {
	return target == ErrProvision
}

func (e ProvisionError) Unwrap() error {
	return e.Err
}

// Provision builds a ProvisionError wrapping err, which may be nil.
func Provision(resource, message string, err error) error {
	return ProvisionError{Resource: resource, Message: message, Err: err}
}

// Issues collects configuration problems so that all of them are reported at once.
type Issues []ConfigurationError

// Add records a problem; blank messages are ignored.
func (i *Issues) Add(context, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if strings.TrimSpace(msg) == "" {
		return
	}
	*i = append(*i, ConfigurationError{Context: context, Message: msg})
}

// Merge appends err when it is a ConfigurationError or Issues, and reports
// whether it was absorbed.
func (i *Issues) Merge(err error) bool {
	var issues Issues
	if errors.As(err, &issues) {
		*i = append(*i, issues...)
		return true
	}
	var cfgErr ConfigurationError
	if errors.As(err, &cfgErr) {
		*i = append(*i, cfgErr)
		return true
	}
	return false
}

func (i Issues) Error() string {
	if len(i) == 1 {
		return i[0].Error()
	}
	parts := make([]string, 0, len(i))
	for _, issue := range i {
		if issue.Context != "" {
			parts = append(parts, issue.Context+": "+issue.Message)
		} else {
			parts = append(parts, issue.Message)
		}
	}
	return "configuration error: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(issues, ErrConfiguration) true.
func (i Issues) Is(target error) bool {
	return target == ErrConfiguration
}

func (i Issues) Unwrap() []error {
	errs := make([]error, 0, len(i))
	for _, issue := range i {
		errs = append(errs, issue)
	}
	return errs
}

// OrNil returns nil when nothing was recorded.
func (i Issues) OrNil() error {
	if len(i) == 0 {
		return nil
	}
	return i
}
