/*
Copyright © 2025 Logicos Software

integration_test.go runs whole expressions through the root command
against files in a temporary directory.
*/
package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"pkipipe/internal/commands"
	"pkipipe/internal/errs"
)

// runCLI executes the root command with args and returns its output.
// Flags are reset first because cobra keeps their values between runs.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, fs := range []*pflag.FlagSet{rootCmd.PersistentFlags(), rootCmd.Flags()} {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// isolate points the config search away from the real home directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	for _, v := range []string{"PKIPIPE_PASSWORD", "PKIPIPE_FORCE", "PKIPIPE_DEBUG", "PKIPIPE_READER"} {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
	return dir
}

// writeFixture writes a self-signed certificate and its key as PEM files
// and returns their paths.
func writeFixture(t *testing.T, dir, cn string) (certPath, keyPath string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(42),
		Subject:               pkix.Name{CommonName: cn, Organization: []string{"Test"}},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		BasicConstraintsValid: true,
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, key.Public(), key)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	certPath = filepath.Join(dir, cn+".crt")
	keyPath = filepath.Join(dir, cn+".key")
	if err := os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatal(err)
	}
	return certPath, keyPath
}

func TestIntegrationExpressions(t *testing.T) {
	dir := isolate(t)
	crt, key := writeFixture(t, dir, "server")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"property", []string{"read '" + crt + "' | .subject.CN | print"}, "server\n"},
		{"split arguments", []string{"read", "'" + crt + "'", "|", ".is-ca", "|", "print"}, "true\n"},
		{"equals", []string{"read '" + crt + "' | .subject.O | =Test | print"}, "true\n"},
		{"info", []string{"read '" + crt + "' | info"}, "self-signed:"},
		{"pair algorithm", []string{"pair(read '" + key + "', read '" + crt + "') | .algorithm | print"}, "ECDSA"},
		{"verify", []string{"verify(read '" + crt + "') | print"}, "success"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, tt.args...)
			if err != nil {
				t.Fatalf("error: %v\n%s", err, out)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output = %q, want it to contain %q", out, tt.want)
			}
		})
	}
}

func TestIntegrationKeystoreRoundTrip(t *testing.T) {
	dir := isolate(t)
	crt, key := writeFixture(t, dir, "server")
	p12 := filepath.Join(dir, "server.p12")
	jks := filepath.Join(dir, "server.jks")

	build := "keystore(entry('srv', pair(read '" + key + "', read '" + crt + "'))) | set-password | write '" + p12 + "'"
	if out, err := runCLI(t, "--password", "pass:changeit", build); err != nil {
		t.Fatalf("write p12: %v\n%s", err, out)
	}
	if _, err := os.Stat(p12); err != nil {
		t.Fatal(err)
	}

	// A second write without --force must not replace the file.
	if _, err := runCLI(t, "--password", "pass:changeit", build); err == nil {
		t.Error("overwrite without --force succeeded")
	}
	if out, err := runCLI(t, "--password", "pass:changeit", "-f", build); err != nil {
		t.Errorf("overwrite with --force: %v\n%s", err, out)
	}

	out, err := runCLI(t, "--password", "pass:changeit", "read '"+p12+"' | .size | print")
	if err != nil {
		t.Fatalf("read p12: %v\n%s", err, out)
	}
	if out != "1\n" {
		t.Errorf("size = %q, want 1", out)
	}

	convert := "read '" + p12 + "' pass:changeit | set-password pass:storepw | write '" + jks + "'"
	if out, err := runCLI(t, convert); err != nil {
		t.Fatalf("p12 to jks: %v\n%s", err, out)
	}
	out, err = runCLI(t, "read '"+jks+"' pass:storepw | each .alias | first | print")
	if err != nil {
		t.Fatalf("read jks: %v\n%s", err, out)
	}
	if out != "srv\n" {
		t.Errorf("alias = %q, want srv", out)
	}
}

func TestIntegrationErrors(t *testing.T) {
	dir := isolate(t)
	crt, _ := writeFixture(t, dir, "server")

	tests := []struct {
		name     string
		expr     string
		wantKind errs.Kind
	}{
		{"unknown command", "read '" + crt + "' | inf", errs.KindUnknownCommand},
		{"unknown function", "sq(1)", errs.KindUnknownFunction},
		{"syntax", "seq(1", errs.KindSyntax},
		{"underflow", "info", errs.KindStackUnderflow},
		{"missing file", "read '" + filepath.Join(dir, "nope.pem") + "'", errs.KindExternal},
		{"bad type", "read '" + crt + "' | as nosuch", errs.KindBadArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.expr)
			if errs.KindOf(err) != tt.wantKind {
				t.Errorf("err = %v (%s), want %s", err, errs.KindOf(err), tt.wantKind)
			}
		})
	}
}

func TestConfigFile(t *testing.T) {
	dir := isolate(t)
	crt, _ := writeFixture(t, dir, "server")
	out := filepath.Join(dir, "out.pem")
	if err := os.WriteFile(out, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}

	confDir := filepath.Join(dir, "config", "pkipipe")
	if err := os.MkdirAll(confDir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(confDir, "pkipipe.yaml"), []byte("force: true\npassword: env:MY_PW\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if o, err := runCLI(t, "read '"+crt+"' | write '"+out+"'"); err != nil {
		t.Fatalf("write with force from config: %v\n%s", err, o)
	}
	if !cfg.Force || cfg.Password.Value != "MY_PW" {
		t.Errorf("cfg = %+v", cfg)
	}

	t.Setenv("PKIPIPE_FORCE", "false")
	if _, err := runCLI(t, "read '"+crt+"' | write '"+out+"'"); err == nil {
		t.Error("PKIPIPE_FORCE=false did not override the config file")
	}
}

func TestConfigBadPassword(t *testing.T) {
	isolate(t)
	if _, err := runCLI(t, "--password", "bogus:x", "seq()"); err == nil {
		t.Error("invalid --password spec accepted")
	}
}

func TestListings(t *testing.T) {
	isolate(t)
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"commands"}, []string{"COMMAND", "merge [count]", "keystore[format](entry, ...)", "at least 1"}},
		{[]string{"types"}, []string{"certificate", "cert, x509", "abstract"}},
		{[]string{"version"}, []string{"Version:", "Go Version:"}},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			out, err := runCLI(t, tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output lacks %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestCompleter(t *testing.T) {
	complete := completer(commands.NewRegistry())
	tests := []struct {
		line string
		want []string
	}{
		{"re", []string{"read", "recurse", "remove-password"}},
		{"read a.crt | in", []string{"read a.crt | info"}},
		{"keystore(ent", []string{"keystore(entry"}},
		{"zz", nil},
	}
	for _, tt := range tests {
		got := complete(tt.line)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("complete(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
