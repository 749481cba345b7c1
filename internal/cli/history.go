package cli

import (
	"errors"
	"fmt"

	"github.com/ppiankov/ticketdebate/internal/model"
	"github.com/ppiankov/ticketdebate/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect stored debate transcripts",
	Long: `Inspect transcripts saved by previous debates.

Transcripts are keyed by ticket number, or by a generated id when the
ticket number could not be read. The backend is chosen by store.backend.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored transcript ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		ids, err := st.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No stored transcripts")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <ticket-id>",
	Short: "Print a stored transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		transcript, err := st.Load(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no transcript stored for %q", args[0])
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, e := range transcript {
			label := e.Side.Label()
			if e.Concession {
				label += " (concession)"
			}
			fmt.Fprintf(out, "%s:\n%s\n\n", label, e.Content)
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <ticket-id>",
	Short: "Delete a stored transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.Delete(cmd.Context(), args[0]); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no transcript stored for %q", args[0])
			}
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Deleted %s\n", args[0])
		return nil
	},
}

func openStore() (store.TranscriptStore, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if cfg.Store.Backend == "" || cfg.Store.Backend == "none" {
		return nil, fmt.Errorf("%w: transcript history is disabled (store.backend=%q)", model.ErrConfiguration, cfg.Store.Backend)
	}
	return store.FromConfig(cfg.Store)
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}
