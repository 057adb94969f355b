package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/search-template/internal/filter"
)

var flaggedCmd = &cobra.Command{
	Use:   "flagged",
	Short: "Extract rejected site names from pasted analysis-tool errors",
	Long:  "Reads error HTML from --file (or stdin) and prints the site names as a blocked_names YAML list ready to paste into an exclusions file.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("file")

		var in io.Reader = os.Stdin
		if path != "" {
			f, err := os.Open(path)
			if err != nil {
				return eris.Wrapf(err, "open %s", path)
			}
			defer f.Close() //nolint:errcheck
			in = f
		}

		return writeFlagged(os.Stdout, in)
	},
}

func writeFlagged(out io.Writer, in io.Reader) error {
	html, err := io.ReadAll(in)
	if err != nil {
		return eris.Wrap(err, "read flagged html")
	}

	doc := struct {
		BlockedNames []string `yaml:"blocked_names"`
	}{BlockedNames: filter.ExtractFlaggedNames(string(html))}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "encode blocked names")
	}
	return enc.Close()
}

func init() {
	flaggedCmd.Flags().String("file", "", "file holding the pasted error HTML (default stdin)")
	rootCmd.AddCommand(flaggedCmd)
}
