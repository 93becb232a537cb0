package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/labrunner/internal/suite"
)

// SuiteInfo describes one supported suite.
type SuiteInfo struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	Comparison    string `json:"comparison"`
	NeedsExecutor bool   `json:"needs_executor"`
}

// NewSuitesCommand creates the suites command.
func NewSuitesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "suites",
		Short:         "List the supported suites",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)

			infos := make([]SuiteInfo, 0, len(suite.All()))
			for _, s := range suite.All() {
				infos = append(infos, SuiteInfo{
					ID:            string(s.ID),
					Description:   s.Description,
					Comparison:    s.Comparison.String(),
					NeedsExecutor: s.NeedsExecutor,
				})
			}

			if out.JSON() {
				return out.Success(infos)
			}

			var b strings.Builder
			for _, info := range infos {
				fmt.Fprintf(&b, "%s  %s\n", info.ID, info.Description)
			}
			_, err := fmt.Fprint(out.Writer, b.String())
			return err
		},
	}
}
