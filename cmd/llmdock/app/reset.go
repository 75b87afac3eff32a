package app

import (
	"github.com/spf13/cobra"
)

// NewResetCommand creates the reset command.
//
// Reset stops and removes both managed containers and their data
// volumes. Every removal is best-effort, so reset succeeds even when
// nothing is deployed. The shared network and the env file are left in
// place; the generated secret survives a reset.
//
// Usage:
//
//	llmdock reset
func NewResetCommand(globalOpts *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove the stack's containers and volumes",
		Long: `Stop and remove both managed containers and delete their data volumes.

Resources that do not exist are skipped silently, so reset always
succeeds. The env file and the shared network are not touched; the next
deploy reuses the same secret and recreates the containers from the
current settings.`,
		Example: `  # Tear the stack down, keeping the env file
  llmdock reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(cmd, globalOpts)
		},
	}

	return cmd
}

// runReset executes the reset.
func runReset(cmd *cobra.Command, opts *GlobalOptions) error {
	st, _, err := newStack(cmd, opts)
	if err != nil {
		return err
	}
	return st.Reset(cmd.Context())
}
