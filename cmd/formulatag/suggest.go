package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dgallion1/formulatag/internal/classify"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <file>",
	Short: "Print heuristic tags for a document's formulas",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

func init() {
	suggestCmd.Flags().String("root-class", "", "only consider formulas inside the first element with this class")
	suggestCmd.Flags().Bool("json", false, "output the suggestions as a JSON annotation map")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	rootClass, _ := cmd.Flags().GetString("root-class")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	v, err := cfg.Vocabulary()
	if err != nil {
		return err
	}
	tree, err := parseFile(args[0], rootClass)
	if err != nil {
		return err
	}
	cands, err := tree.Candidates()
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	suggested := classify.Suggest(cands, v)

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(suggested)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tTAG")
	for _, c := range cands {
		if len(c.Enclosing) > 0 {
			continue
		}
		tag, ok := suggested[c.ID]
		if !ok {
			tag = v.Default + " (default)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, classify.Classify(c.Node), tag)
	}
	return tw.Flush()
}
