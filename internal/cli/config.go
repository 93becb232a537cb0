package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/labrunner/internal/config"
)

// configFlags are the flags that override values of the config file.
type configFlags struct {
	ConfigPath   string
	SuitesDir    string
	Executor     string
	ExecutorArgs []string
	Timeout      time.Duration
	Local        bool
	IRDir        string
	Ext          string
	Filter       string
}

// bindSource registers the flags every command that reads fixtures needs.
func (f *configFlags) bindSource(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.ConfigPath, "config", "", "YAML config file")
	flags.StringVar(&f.SuitesDir, "suites-dir", config.DefaultSuitesDir, "directory holding one subdirectory per suite")
	flags.StringVar(&f.Ext, "ext", config.DefaultExtension, "source file extension of test fixtures")
	flags.StringVar(&f.Filter, "filter", "", "only run fixtures whose file name matches this glob")
}

// bindExecution registers the flags that control how tests are run.
func (f *configFlags) bindExecution(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.Executor, "executor", config.DefaultExecutor, "IR executor for two-stage suites")
	flags.StringArrayVar(&f.ExecutorArgs, "executor-arg", nil, "argument passed to the executor before the IR path (repeatable)")
	flags.DurationVar(&f.Timeout, "timeout", config.DefaultTimeout, "per-process timeout")
	flags.BoolVar(&f.Local, "local", false, "keep IR artifacts in --ir-dir instead of temporary files")
	flags.StringVar(&f.IRDir, "ir-dir", config.DefaultIRDir, "directory for kept IR artifacts")
}

// resolve loads the config file, if any, and applies the flags the user
// set explicitly on top of it.
func (f *configFlags) resolve(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if f.ConfigPath != "" {
		loaded, err := config.Load(f.ConfigPath)
		if err != nil {
			return config.Config{}, &config.ValidationError{Details: err.Error()}
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	changed := func(name string) bool {
		fl := flags.Lookup(name)
		return fl != nil && fl.Changed
	}

	if changed("suites-dir") {
		cfg.SuitesDir = f.SuitesDir
	}
	if changed("ext") {
		cfg.Extension = f.Ext
	}
	if changed("filter") {
		cfg.Filter = f.Filter
	}
	if changed("executor") {
		cfg.Executor = f.Executor
	}
	if changed("executor-arg") {
		cfg.ExecutorArgs = f.ExecutorArgs
	}
	if changed("timeout") {
		cfg.Timeout = f.Timeout
	}
	if changed("local") {
		cfg.Artifacts = config.ArtifactsEphemeral
		if f.Local {
			cfg.Artifacts = config.ArtifactsPersistent
		}
	}
	if changed("ir-dir") {
		cfg.IRDir = f.IRDir
	}

	return cfg, nil
}
