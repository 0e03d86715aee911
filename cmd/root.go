/*
Copyright © 2025 Logicos Software

Package cmd implements the pkipipe command line using the Cobra library.

This package provides:
  - the root command: evaluate a pipeline expression given as arguments
  - shell: an interactive loop evaluating one expression per line
  - commands: list the registered commands and functions
  - types: list the type names accepted by as and select
  - version: display version information
*/
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"pkipipe/internal/ast"
	"pkipipe/internal/commands"
	"pkipipe/internal/engine"
	"pkipipe/internal/errs"
	"pkipipe/internal/fsys"
	"pkipipe/internal/password"
	"pkipipe/internal/pki"
	"pkipipe/internal/value"
)

// rootCmd evaluates the expression formed by its arguments.
var rootCmd = &cobra.Command{
	Use:   "pkipipe <expression>...",
	Short: "Inspect and convert certificates, keys and key stores with pipelines",
	Long: `pkipipe evaluates a small pipeline language over certificates, private
keys, public keys and key stores (PEM, DER, PKCS#12, JKS, OpenSSH and
YubiKey PIV slots).

The arguments are joined with spaces and evaluated as one expression.
Quote the expression so the shell does not interpret '|' itself.

Quick usage:
  pkipipe 'read server.crt | info'
  pkipipe 'read server.crt | .subject.CN'
  pkipipe 'keystore(entry("server", pair(read server.key, read server.crt))) | set-password | write server.p12'
  pkipipe 'read truststore.jks pass:changeit | filter .type =certificate | each .alias'
  pkipipe 'read yubikey:9a | verify'`,
	Args:              cobra.ArbitraryArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE:              runExpression,
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main(). Errors are printed with their cause chain
// and hint, and the process exits with status 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		errs.ExitWithError(err)
	}
}

func init() {
	// Arguments after the first word belong to the expression.
	rootCmd.Flags().SetInterspersed(false)
	bindFlags(rootCmd)
}

func runExpression(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	env := newEnvironment(cfg, newLogger(cfg, cmd.ErrOrStderr()))
	res, err := evaluate(env, commands.NewRegistry(), strings.Join(args, " "), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if !res.OK() {
		return errs.External("expression failed", res.Err())
	}
	return nil
}

// newLogger returns the slog text logger on w, at Debug level when
// configured.
func newLogger(c *Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newEnvironment wires the OS collaborators into an engine environment.
func newEnvironment(c *Config, logger *slog.Logger) *engine.Environment {
	return &engine.Environment{
		Parser:          pki.NewParser(logger),
		Passwords:       password.NewSupplier(),
		Files:           fsys.New(c.Reader),
		DefaultPassword: c.Password,
		Overwrite:       c.Force,
		Logger:          logger,
	}
}

// evaluate parses expr and runs it on an empty stack.
func evaluate(env *engine.Environment, reg *engine.Registry, expr string, out io.Writer) (*value.Result, error) {
	node, err := ast.Parse(expr, reg)
	if err != nil {
		return nil, err
	}
	env.Log().Debug("parsed", "tree", node.String())
	ctx := &engine.Context{Registry: reg, Env: env, Out: out}
	res, err := engine.NewRunner(ctx, nil).Eval(node)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// printFailure writes a classified error the way ExitWithError does,
// without exiting.
func printFailure(w io.Writer, err error) {
	fmt.Fprintln(w, "error:", errs.Classify(err).FullError())
}

// Compile-time check that the OS filesystem satisfies the engine contract.
var _ engine.FileSystem = (*fsys.OS)(nil)
