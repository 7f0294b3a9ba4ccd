package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pacsforge/qido/internal/dcm"
	"github.com/pacsforge/qido/internal/query"
	"github.com/pacsforge/qido/internal/store"
	"github.com/pacsforge/qido/internal/ui"
)

var searchOpts queryOptions

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the archive",
	Long: `Search the archive at a query level with QIDO-RS matching semantics.

Matching keys accept DICOM wildcard syntax: * matches any run of
characters, ? matches a single character. Date and time keys accept
ranges (20240101-20240630). Multiple values separated by \ match any of
the listed values.`,
	Example: `  qido search --level STUDY --match PatientName="DOE^*" --match StudyDate=20240101-20241231
  qido search -l SERIES --match Modality=MR --orderby -StudyDate,SeriesNumber --limit 25
  qido search -l IMAGE --match StudyInstanceUID=1.2.840.1.1 --returnkey SOPInstanceUID --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := searchOpts.context(getConfig())
		if err != nil {
			return err
		}
		matches, err := runSearch(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(matches)
		}
		printMatches(ctx.Level, matches)
		return nil
	},
}

func init() {
	searchOpts.register(searchCmd.Flags())
	rootCmd.AddCommand(searchCmd)
}

func runSearch(ctx *query.Context) ([]*dcm.Attributes, error) {
	st, err := store.Open(getArchivePath(), log)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	q, err := query.New(ctx, st.DB())
	if err != nil {
		return nil, err
	}
	defer q.Close()

	if err := q.ExecuteQuery(0); err != nil {
		return nil, err
	}
	var matches []*dcm.Attributes
	for {
		more, err := q.HasMoreMatches()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		match, err := q.NextMatch()
		if err != nil {
			return nil, err
		}
		if match == nil {
			continue
		}
		matches = append(matches, q.Adjust(match))
	}
	return matches, nil
}

func writeJSON(matches []*dcm.Attributes) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if matches == nil {
		matches = []*dcm.Attributes{}
	}
	return enc.Encode(matches)
}

func printMatches(level query.Level, matches []*dcm.Attributes) {
	if len(matches) == 0 {
		fmt.Println(ui.Hint("no matches"))
		return
	}
	table := matchTable(level, matches)
	fmt.Print(table.String())
	fmt.Println(ui.Hint(ui.Count(len(matches), "match", "matches")))
}

func matchTable(level query.Level, matches []*dcm.Attributes) *ui.Table {
	switch level {
	case query.LevelPatient:
		t := ui.NewTable(4)
		t.SetHeader("PatientID", "PatientName", "Sex", "Studies")
		for _, m := range matches {
			t.AddRow(
				m.GetString(dcm.PatientID),
				m.GetString(dcm.PatientName),
				m.GetString(dcm.PatientSex),
				m.GetString(dcm.NumberOfPatientRelatedStudies),
			)
		}
		return t
	case query.LevelStudy:
		t := ui.NewTable(6)
		t.SetHeader("StudyInstanceUID", "Date", "Description", "Modalities", "Series", "Instances")
		for _, m := range matches {
			t.AddRow(
				ui.UID(m.GetString(dcm.StudyInstanceUID)),
				m.GetString(dcm.StudyDate),
				m.GetString(dcm.StudyDescription),
				dcm.JoinValues(m.Strings(dcm.ModalitiesInStudy)),
				m.GetString(dcm.NumberOfStudyRelatedSeries),
				m.GetString(dcm.NumberOfStudyRelatedInstances),
			)
		}
		return t
	case query.LevelSeries:
		t := ui.NewTable(5)
		t.SetHeader("SeriesInstanceUID", "Modality", "Number", "Description", "Instances")
		for _, m := range matches {
			t.AddRow(
				ui.UID(m.GetString(dcm.SeriesInstanceUID)),
				m.GetString(dcm.Modality),
				m.GetString(dcm.SeriesNumber),
				m.GetString(dcm.SeriesDescription),
				m.GetString(dcm.NumberOfSeriesRelatedInstances),
			)
		}
		return t
	default:
		t := ui.NewTable(3)
		t.SetHeader("SOPInstanceUID", "SOPClassUID", "Number")
		for _, m := range matches {
			t.AddRow(
				ui.UID(m.GetString(dcm.SOPInstanceUID)),
				m.GetString(dcm.SOPClassUID),
				m.GetString(dcm.InstanceNumber),
			)
		}
		return t
	}
}
