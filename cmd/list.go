/*
Copyright © 2025 Logicos Software

list.go implements the 'commands' and 'types' listings.
*/
package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pkipipe/internal/commands"
	"pkipipe/internal/engine"
	"pkipipe/internal/value"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the available commands and functions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		listCommands(cmd.OutOrStdout(), commands.NewRegistry())
	},
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the type names accepted by as and select",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		listTypes(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(commandsCmd)
	rootCmd.AddCommand(typesCmd)
}

func listCommands(w io.Writer, reg *engine.Registry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMMAND\tARGUMENTS\tDESCRIPTION")
	for _, c := range reg.Commands() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Usage, c.Arity, c.Summary)
	}
	fmt.Fprintln(tw, "\t\t")
	fmt.Fprintln(tw, "FUNCTION\tARGUMENTS\tDESCRIPTION")
	for _, f := range reg.Functions() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Usage, f.Arity, f.Summary)
	}
	tw.Flush()
}

func listTypes(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tALIASES\tSHAPE\tDESCRIPTION")
	for _, t := range value.Types() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name, strings.Join(t.Aliases, ", "), t.Shape, t.Description)
	}
	tw.Flush()
}
