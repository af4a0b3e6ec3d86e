package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	contractx "github.com/tanpawarit/chative-sei/agent/contract"
	toolx "github.com/tanpawarit/chative-sei/agent/tool"
)

var (
	lookupLimit  int
	lookupOffset int
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Run a case lookup without the language model",
}

var lookupSearchCmd = &cobra.Command{
	Use:         "search <process_number>",
	Short:       "Tell whether a process exists",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationOwnsStdout: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLookup(cmd, toolx.ToolSearchProcess, map[string]any{
			"process_number": args[0],
		})
	},
}

var lookupListCmd = &cobra.Command{
	Use:         "list <process_number>",
	Short:       "List the documents of a process",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationOwnsStdout: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLookup(cmd, toolx.ToolListDocuments, map[string]any{
			"process_number": args[0],
			"limit":          lookupLimit,
			"offset":         lookupOffset,
		})
	},
}

var lookupTypeCmd = &cobra.Command{
	Use:         "type <process_number> <document_type>",
	Short:       "List the documents of a process with a given type",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationOwnsStdout: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLookup(cmd, toolx.ToolDocumentsByType, map[string]any{
			"process_number": args[0],
			"document_type":  args[1],
		})
	},
}

func init() {
	lookupListCmd.Flags().IntVar(&lookupLimit, "limit", 0, "maximum number of documents (0 = all)")
	lookupListCmd.Flags().IntVar(&lookupOffset, "offset", 0, "number of documents to skip")

	lookupCmd.AddCommand(lookupSearchCmd)
	lookupCmd.AddCommand(lookupListCmd)
	lookupCmd.AddCommand(lookupTypeCmd)
}

func runLookup(cmd *cobra.Command, tool string, args map[string]any) error {
	_, lookup, err := openLookup()
	if err != nil {
		return err
	}

	executor := toolx.NewExecutor(contractx.AgentTypeResearcher, lookup)
	res, err := executor(cmd.Context(), tool, args)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if res.Code != "" {
		return fmt.Errorf("%s: %s", res.Code, res.Error)
	}
	return nil
}
