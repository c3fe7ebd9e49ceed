package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/dgallion1/formulatag/internal/paragraphs"
)

var splitCmd = &cobra.Command{
	Use:   "split <file|glob>...",
	Short: "Cut documents into paragraph fragments for review",
	Long: `split cuts each document into one fragment file per paragraph. Arguments
may be glob patterns such as 'papers/**/*.html'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSplit,
}

func init() {
	splitCmd.Flags().String("out", "", "output directory (default: paragraph_dir from config)")
	splitCmd.Flags().String("prefix", "", "file name prefix (default: document name and underscore)")
	splitCmd.Flags().String("selector", paragraphs.DefaultSelector, "CSS selector of paragraph elements")
	rootCmd.AddCommand(splitCmd)
}

// expandInputs resolves glob patterns. Plain paths pass through so a missing
// file is reported when it is opened.
func expandInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			paths = append(paths, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		sort.Strings(matches)
		paths = append(paths, matches...)
	}
	return paths, nil
}

func runSplit(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	prefix, _ := cmd.Flags().GetString("prefix")
	selector, _ := cmd.Flags().GetString("selector")

	if out == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out = cfg.ParagraphDir
	}

	log, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	paths, err := expandInputs(args)
	if err != nil {
		return err
	}
	for _, path := range paths {
		p := prefix
		if p == "" {
			p = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "_"
		}
		refs, err := splitFile(path, out, paragraphs.SplitOptions{Selector: selector, Prefix: p})
		if err != nil {
			return err
		}
		log.Info("document split", "file", path, "out", out, "paragraphs", len(refs))
		for _, ref := range refs {
			fmt.Fprintln(cmd.OutOrStdout(), ref)
		}
	}
	return nil
}

func splitFile(path, out string, opts paragraphs.SplitOptions) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()
	return paragraphs.Split(f, out, opts)
}
