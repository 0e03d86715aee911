/*
Copyright © 2025 Logicos Software

config.go loads settings from flags, PKIPIPE_* variables and pkipipe.yaml.
*/
package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pkipipe/internal/errs"
	"pkipipe/internal/password"
)

// Config holds the settings shared by every subcommand.
type Config struct {
	// Password is the spec used when read or set-password get none.
	Password password.Spec
	// Force allows write to replace existing files.
	Force bool
	Debug bool
	// Reader selects the PC/SC reader for yubikey: paths.
	Reader string
}

// cfg is filled by loadConfig before any subcommand runs.
var cfg = &Config{Password: password.Prompt}

// bindFlags registers the persistent flags on root.
func bindFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	f.String("password", "prompt", "default password spec: prompt, pass:<s>, env:<VAR> or file:<path>")
	f.BoolP("force", "f", false, "allow write to overwrite existing files")
	f.Bool("debug", false, "log every evaluation step to stderr")
	f.String("reader", "", "PC/SC reader name for yubikey: paths (default: first YubiKey found)")
	f.String("config", "", "config file (default: pkipipe.yaml in $XDG_CONFIG_HOME/pkipipe, ~/.pkipipe or .)")
}

// newViper returns a viper instance reading flags, PKIPIPE_* variables
// and the config file, in that order of precedence.
func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	for _, name := range []string{"password", "force", "debug", "reader"} {
		if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix("PKIPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file, _ := cmd.Flags().GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("pkipipe")
		v.SetConfigType("yaml")
		for _, dir := range configDirs() {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			e := errs.External("cannot read config file", err)
			e.Hint = "Fix the YAML syntax or pass another file with --config."
			return nil, e
		}
	}
	return v, nil
}

func configDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "pkipipe"))
	} else if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "pkipipe"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".pkipipe"))
	}
	return append(dirs, ".")
}

// loadConfig is the root PersistentPreRunE: it resolves the settings into
// cfg.
func loadConfig(cmd *cobra.Command, _ []string) error {
	v, err := newViper(cmd)
	if err != nil {
		return err
	}
	c, err := configFrom(v)
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

func configFrom(v *viper.Viper) (*Config, error) {
	spec, err := password.ParseSpec(v.GetString("password"))
	if err != nil {
		return nil, err
	}
	return &Config{
		Password: spec,
		Force:    v.GetBool("force"),
		Debug:    v.GetBool("debug"),
		Reader:   v.GetString("reader"),
	}, nil
}
