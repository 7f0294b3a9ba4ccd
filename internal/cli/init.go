package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pacsforge/qido/internal/config"
	"github.com/pacsforge/qido/internal/store"
	"github.com/pacsforge/qido/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Create a new archive database",
	Long: `Create an empty archive database at the given path, along with a
default config file if none exists yet.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.CreateDefault()
		if err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		st, err := store.Open(args[0], newLogger(cfg.Log.Level))
		if err != nil {
			return err
		}
		if err := st.Close(); err != nil {
			return err
		}
		fmt.Println(ui.Successf("archive created at %s", args[0]))
		fmt.Println(ui.Hint(fmt.Sprintf("config: %s", configPath)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
