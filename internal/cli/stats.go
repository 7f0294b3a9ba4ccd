package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pacsforge/qido/internal/store"
	"github.com/pacsforge/qido/internal/ui"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show archive contents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(getArchivePath(), log)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.Stats()
		if err != nil {
			return err
		}
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]int64{
				"patients":  stats.Patients,
				"studies":   stats.Studies,
				"series":    stats.Series,
				"instances": stats.Instances,
			})
		}
		t := ui.NewTable(2)
		t.AddRow("Patients", strconv.FormatInt(stats.Patients, 10))
		t.AddRow("Studies", strconv.FormatInt(stats.Studies, 10))
		t.AddRow("Series", strconv.FormatInt(stats.Series, 10))
		t.AddRow("Instances", strconv.FormatInt(stats.Instances, 10))
		fmt.Print(t.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
