package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zachdehooge/crossing-dashboard/internal/prefs"
)

// addPrefsCmd adds 'prefs get' and 'prefs set' for the stored display preferences
func addPrefsCmd(rootCmd *cobra.Command) {
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change stored display preferences",
	}

	getCmd := &cobra.Command{
		Use:   "get [name]",
		Short: "Print one preference, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			names := prefs.Names()
			if len(args) == 1 {
				names = args
			}
			for _, name := range names {
				v, err := store.Get(cmd.Context(), name)
				if err != nil {
					return err
				}
				cmd.Println(fmt.Sprintf("%s = %s", name, v))
			}
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Change a preference (" + strings.Join(prefs.Names(), ", ") + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Set(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("failed to set %s: %w", args[0], err)
			}
			v, _ := store.Get(cmd.Context(), args[0])
			cmd.Println(fmt.Sprintf("%s = %s", args[0], v))
			return nil
		},
	}

	prefsCmd.AddCommand(getCmd, setCmd)
	rootCmd.AddCommand(prefsCmd)
}

func openStore(cmd *cobra.Command) (*prefs.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	store, _, err := openPrefs(cmd.Context(), cfg, cfg.NewLogger())
	return store, err
}
