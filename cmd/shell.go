/*
Copyright © 2025 Logicos Software

shell.go implements the interactive 'shell' command.
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"pkipipe/internal/commands"
	"pkipipe/internal/engine"
)

const historyFile = ".pkipipe_history"

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Evaluate expressions interactively",
	Long: `Start an interactive loop. Every line is evaluated as a separate
expression on an empty stack. Errors are printed and the loop continues.

Type 'exit' or press Ctrl+D to leave. History is kept in ~/` + historyFile + `.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	env := newEnvironment(cfg, newLogger(cfg, cmd.ErrOrStderr()))
	reg := commands.NewRegistry()

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(completer(reg))

	histPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}

	for {
		line, err := ln.Prompt("pkipipe> ")
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			break
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			saveHistory(ln, histPath)
			return nil
		}
		ln.AppendHistory(line)

		res, err := evaluate(env, reg, line, out)
		if err != nil {
			printFailure(cmd.ErrOrStderr(), err)
			continue
		}
		if !res.OK() {
			printFailure(cmd.ErrOrStderr(), res.Err())
		}
	}
	saveHistory(ln, histPath)
	return nil
}

func saveHistory(ln *liner.State, path string) {
	if path == "" {
		return
	}
	if f, err := os.Create(path); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
}

// completer completes the last word of the line against command and
// function names.
func completer(reg *engine.Registry) liner.Completer {
	var names []string
	names = append(names, reg.CommandNames()...)
	names = append(names, reg.FunctionNames()...)
	return func(line string) []string {
		i := strings.LastIndexAny(line, " |(,") + 1
		prefix, word := line[:i], line[i:]
		var out []string
		for _, n := range names {
			if strings.HasPrefix(n, word) {
				out = append(out, prefix+n)
			}
		}
		return out
	}
}
