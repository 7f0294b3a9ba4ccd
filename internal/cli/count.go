package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pacsforge/qido/internal/query"
	"github.com/pacsforge/qido/internal/store"
)

var countOpts queryOptions

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count the matches of a search",
	Long: `Count the rows a search would match. Offset and limit are ignored;
the count covers the whole result set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := countOpts.context(getConfig())
		if err != nil {
			return err
		}
		st, err := store.Open(getArchivePath(), log)
		if err != nil {
			return err
		}
		defer st.Close()

		q, err := query.New(ctx, st.DB())
		if err != nil {
			return err
		}
		defer q.Close()

		if err := q.ExecuteCountQuery(); err != nil {
			return err
		}
		if jsonOutput {
			fmt.Printf("{\"count\": %d}\n", q.Count())
			return nil
		}
		fmt.Println(q.Count())
		return nil
	},
}

func init() {
	countOpts.register(countCmd.Flags())
	rootCmd.AddCommand(countCmd)
}
