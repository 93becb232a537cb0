package suite

import "fmt"

// ConfigError reports a harness misconfiguration detected before any test
// runs: an unsupported suite, a missing binary or directory, or a fixture
// the suite's strategy cannot deliver.
type ConfigError struct {
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
