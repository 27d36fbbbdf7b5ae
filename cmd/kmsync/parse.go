// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/kmsync/internal/markdown"
	"github.com/pdiddy/kmsync/internal/sync"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Show what the extractors see in a vault file",
	Long: `Parse runs the extractor a file would get during sync and prints the
result, without touching any target. Threads files produce thread
records, the projects file produces project records, and everything
else produces archive metadata.

Use --blocks to also print the converted document blocks, and --kind
to override the path-based classification.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	kind, _ := cmd.Flags().GetString("kind")
	showBlocks, _ := cmd.Flags().GetBool("blocks")

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	content := string(data)

	if kind == "" {
		if strings.Contains(path, "项目状态") {
			kind = "projects"
		} else {
			kind = string(sync.Classify(path))
		}
	}

	var result any
	switch kind {
	case "threads":
		result = markdown.ParseThreads(content, time.Now)
	case "projects":
		result = markdown.ParseProjects(content)
	case "archive", "knowledge":
		stem := strings.TrimSuffix(filepath.Base(path), ".md")
		result = markdown.ExtractArchiveMeta(content, stem, time.Now)
	default:
		return fmt.Errorf("unknown kind %q: use threads, archive, knowledge, or projects", kind)
	}

	if showBlocks {
		result = map[string]any{
			"records": result,
			"blocks":  markdown.Convert(content, markdown.Options{Tables: markdown.TableRowsAsText}),
		}
	}

	switch format {
	case "yaml", "":
		out, err := yaml.Marshal(result)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	return nil
}

func init() {
	parseCmd.Flags().String("format", "yaml", "output format: yaml or json")
	parseCmd.Flags().String("kind", "", "override classification: threads, archive, knowledge, or projects")
	parseCmd.Flags().Bool("blocks", false, "also print the converted document blocks")

	rootCmd.AddCommand(parseCmd)
}
