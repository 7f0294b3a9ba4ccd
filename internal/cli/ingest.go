package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pacsforge/qido/internal/ingest"
	"github.com/pacsforge/qido/internal/store"
	"github.com/pacsforge/qido/internal/ui"
)

var manifestPath string

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Import DICOM files into the archive",
	Long: `Import every .dcm file under a directory into the archive. An
optional YAML manifest assigns the project/subject/session identifiers
and per-series scan IDs; without one, identifiers fall back to the
datasets' own values.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var manifest *ingest.Manifest
		if manifestPath != "" {
			var err error
			manifest, err = ingest.LoadManifest(manifestPath)
			if err != nil {
				return err
			}
		}
		st, err := store.Open(getArchivePath(), log)
		if err != nil {
			return err
		}
		defer st.Close()

		importer := ingest.NewImporter(st, manifest, log)
		progress := ui.NewProgress("importing")
		stored, err := importer.ImportDirFunc(args[0], progress.Increment)
		progress.Done()
		if err != nil {
			return err
		}
		fmt.Println(ui.Successf("imported %d instances from %s", stored, args[0]))
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&manifestPath, "manifest", "", "YAML manifest with archive identifiers")
	rootCmd.AddCommand(ingestCmd)
}
