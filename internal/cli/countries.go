package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/ppiankov/lifestory/internal/pipeline"
	"github.com/spf13/cobra"
)

var countriesJSON bool

type countryRow struct {
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	Subregion   string `json:"subregion"`
	Continent   string `json:"continent"`
}

// countriesCmd represents the countries command
var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List the countries in the dataset",
	Long:  `List every country in dataset order with its ISO3 code, subregion and continent.`,
	Args:  cobra.NoArgs,
	RunE:  runCountries,
}

func init() {
	rootCmd.AddCommand(countriesCmd)
	countriesCmd.Flags().BoolVar(&countriesJSON, "json", false, "print JSON instead of a table")
}

func runCountries(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ds, err := pipeline.NewPipeline(cfg).Dataset(context.Background())
	if err != nil {
		return err
	}

	var rows []countryRow
	for _, c := range ds.Countries() {
		d, err := ds.Resolve(c)
		if err != nil {
			return err
		}
		rows = append(rows, countryRow{Country: c, CountryCode: d.CountryCode, Subregion: d.Subregion, Continent: d.Continent})
	}

	out := cmd.OutOrStdout()
	if countriesJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COUNTRY\tCODE\tSUBREGION\tCONTINENT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Country, r.CountryCode, r.Subregion, r.Continent)
	}
	return tw.Flush()
}
