/*
Copyright © 2025 Logicos Software

pki_test.go contains unit tests for parsing, encoding and verification.
*/
package pki

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"

	"pkipipe/internal/errs"
	"pkipipe/internal/value"
)

type testCert struct {
	key  *ecdsa.PrivateKey
	cert *x509.Certificate
}

var serial int64

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return key
}

// issue creates a certificate for cn signed by parent, or self-signed when
// parent is nil.
func issue(t *testing.T, cn string, parent *testCert, isCA bool, notAfter time.Time) *testCert {
	t.Helper()
	key := newKey(t)
	serial++
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(serial),
		Subject:               pkix.Name{CommonName: cn, Organization: []string{"Test"}},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              notAfter,
		BasicConstraintsValid: true,
		IsCA:                  isCA,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		DNSNames:              []string{strings.ToLower(cn) + ".example"},
	}
	signerCert, signerKey := tmpl, crypto.Signer(key)
	if parent != nil {
		signerCert, signerKey = parent.cert, parent.key
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, signerCert, key.Public(), signerKey)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("ParseCertificate: %v", err)
	}
	return &testCert{key: key, cert: cert}
}

func later() time.Time { return time.Now().Add(24 * time.Hour) }

func src(desc string) value.Source { return value.NewSource(desc) }

func encode(t *testing.T, v value.Value, format string) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, v, format); err != nil {
		t.Fatalf("Encode(%s, %q): %v", v.Describe(), format, err)
	}
	return buf.Bytes()
}

func password(s string) func() (string, error) {
	return func() (string, error) { return s, nil }
}

func noPassword(t *testing.T) func() (string, error) {
	return func() (string, error) {
		t.Error("password requested for unprotected content")
		return "", errors.New("unexpected")
	}
}

func TestParsePEM(t *testing.T) {
	ca := issue(t, "Root", nil, true, later())
	leaf := issue(t, "Leaf", ca, false, later())
	p := NewParser(nil)

	cert := NewCertificate(src("ca"), ca.cert)
	chain := NewCertificateChain(src("chain"), NewCertificate(src("leaf"), leaf.cert), cert)
	priv := NewPrivateKey(src("key"), leaf.key, nil)

	tests := []struct {
		name string
		data []byte
		kind value.Kind
	}{
		{"certificate", encode(t, cert, FormatPEM), value.KindCertificate},
		{"chain", encode(t, chain, FormatPEM), value.KindCertificateChain},
		{"private key", encode(t, priv, FormatPEM), value.KindPrivateKey},
		{"public key", encode(t, priv.Public(), FormatPEM), value.KindPublicKey},
		{"mixed", append(encode(t, priv, FormatPEM), encode(t, cert, FormatPEM)...), value.KindSequence},
		{"der certificate", encode(t, cert, FormatDER), value.KindCertificate},
		{"der private key", encode(t, priv, FormatDER), value.KindPrivateKey},
		{"der public key", encode(t, priv.Public(), FormatDER), value.KindPublicKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := p.Parse(tt.data, "in.pem", noPassword(t))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if v.Kind() != tt.kind {
				t.Errorf("kind = %s, want %s", v.Kind(), tt.kind)
			}
			if v.Source().Path != "in.pem" {
				t.Errorf("source path = %q", v.Source().Path)
			}
		})
	}
}

func TestParseUnrecognized(t *testing.T) {
	_, err := NewParser(nil).Parse([]byte("hello world"), "x.txt", nil)
	if errs.KindOf(err) != errs.KindExternal {
		t.Fatalf("err = %v, want external failure", err)
	}
}

func TestEncryptedPrivateKeyRoundTrip(t *testing.T) {
	key := newKey(t)
	priv := NewPrivateKey(src("key"), key, nil)
	enc := NewEncryptionInfo(src("enc"), "s3cret", "")
	locked := priv.WithEncryption(enc).(*PrivateKey)

	data := encode(t, locked, "")
	if !bytes.Contains(data, []byte(pemEncryptedPrivateKey)) {
		t.Fatalf("expected encrypted PEM, got:\n%s", data)
	}

	calls := 0
	pw := func() (string, error) { calls++; return "s3cret", nil }
	v, err := NewParser(nil).Parse(data, "key.pem", pw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if calls != 1 {
		t.Errorf("password asked %d times, want 1", calls)
	}
	got := v.(*PrivateKey)
	if !got.Equal(priv) {
		t.Error("decrypted key differs")
	}
	if got.Encryption().Password() != "s3cret" {
		t.Error("encryption info not recorded")
	}

	if _, err := NewParser(nil).Parse(data, "key.pem", password("wrong")); err == nil {
		t.Error("wrong password accepted")
	}
}

func TestKeyPair(t *testing.T) {
	a := issue(t, "A", nil, true, later())
	b := issue(t, "B", nil, true, later())
	priv := NewPrivateKey(src("key a"), a.key, nil)
	certA := NewCertificate(src("cert a"), a.cert)

	if _, err := NewKeyPair(src("bad"), priv, NewCertificate(src("cert b"), b.cert)); errs.KindOf(err) != errs.KindBadArgument {
		t.Fatalf("mismatched pair: err = %v", err)
	}

	pair, err := NewKeyPair(src("pair"), priv, certA)
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}

	seq, ok := value.As(pair, value.KindSequence)
	if !ok {
		t.Fatal("key pair does not convert to sequence")
	}
	if n := len(seq.(*value.Sequence).Members()); n != 2 {
		t.Errorf("sequence has %d members, want 2", n)
	}
	if v, ok := value.As(pair, value.KindPrivateKey); !ok || v != priv {
		t.Errorf("As(private-key) = %v, %v", v, ok)
	}
	if v, ok := value.As(pair, value.KindCertificate); !ok || v != certA {
		t.Errorf("As(certificate) = %v, %v", v, ok)
	}
	if v, ok := value.As(pair, value.KindKey); !ok || v != priv {
		t.Errorf("As(key) = %v, %v", v, ok)
	}
	twoCerts := NewCertificateChain(src("chain"), certA, NewCertificate(src("cert b"), b.cert))
	if _, ok := value.As(twoCerts, value.KindCertificate); ok {
		t.Error("chain of two certificates converted to a single certificate")
	}

	locked := pair.WithEncryption(NewEncryptionInfo(src("enc"), "pw", "")).(*KeyPair)
	if locked.Encryption().Password() != "pw" || pair.Encryption() != nil {
		t.Error("WithEncryption must copy")
	}
}

func TestStore(t *testing.T) {
	a := issue(t, "A", nil, true, later())
	b := issue(t, "B", nil, true, later())
	ea := NewStoreEntry(src("a"), "a", NewCertificate(src("a"), a.cert), nil)
	eb := NewStoreEntry(src("b"), "b", NewCertificate(src("b"), b.cert), nil)

	if _, err := NewStore(src("dup"), FormatPEM, nil, ea, ea); errs.KindOf(err) != errs.KindDuplicateEntry {
		t.Fatalf("duplicate alias: err = %v", err)
	}

	s, err := NewStore(src("s"), FormatPKCS12, nil, ea)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := s.Add(src("s2"), eb)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Entries()) != 1 || len(s2.Entries()) != 2 {
		t.Fatalf("Add must not modify the receiver: %d, %d", len(s.Entries()), len(s2.Entries()))
	}
	if _, err := s2.Merge(src("m"), s); errs.KindOf(err) != errs.KindDuplicateEntry {
		t.Errorf("merge with duplicate alias: err = %v", err)
	}

	other, _ := NewStore(src("o"), FormatJKS, NewEncryptionInfo(src("enc"), "pw", AlgJKS),
		NewStoreEntry(src("c"), "c", NewCertificate(src("c"), a.cert), nil))
	merged, err := s2.Merge(src("m"), other)
	if err != nil {
		t.Fatal(err)
	}
	if got := merged.Entry("c").Encryption().Password(); got != "pw" {
		t.Errorf("merged entry password = %q, want carried over", got)
	}
	if merged.EqualString("a") {
		t.Error("stores never equal a string")
	}
	if !ea.EqualString("a") || ea.EqualString("A") {
		t.Error("entry alias matching is exact")
	}
	if r, ok := value.As(ea, value.KindRecord); !ok {
		t.Error("entry does not convert to record")
	} else if _, ok := r.(*value.Record).Field("a"); !ok {
		t.Error("record lacks alias field")
	}
	if v, ok := value.As(ea, value.KindCertificate); !ok || v != ea.Value() {
		t.Error("entry does not convert to its certificate")
	}
}

func TestPKCS12RoundTrip(t *testing.T) {
	ca := issue(t, "Root", nil, true, later())
	leaf := issue(t, "Leaf", ca, false, later())
	chain := NewCertificateChain(src("chain"), NewCertificate(src("leaf"), leaf.cert), NewCertificate(src("root"), ca.cert))
	pair, err := NewKeyPair(src("pair"), NewPrivateKey(src("key"), leaf.key, nil), chain)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		password string
	}{
		{"modern", "changeit"},
		{"passwordless", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v value.Value = pair
			if tt.password != "" {
				v = pair.WithEncryption(NewEncryptionInfo(src("enc"), tt.password, ""))
			}
			data := encode(t, v, FormatPKCS12)

			asked := false
			got, err := NewParser(nil).Parse(data, "out.p12", func() (string, error) {
				asked = true
				return tt.password, nil
			})
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if asked != (tt.password != "") {
				t.Errorf("password asked = %v", asked)
			}
			store, ok := got.(*Store)
			if !ok {
				t.Fatalf("got %s, want store", got.Describe())
			}
			if store.Format() != FormatPKCS12 || len(store.Entries()) != 1 {
				t.Fatalf("store = %s", store.Describe())
			}
			back, ok := store.Entries()[0].Value().(*KeyPair)
			if !ok {
				t.Fatalf("entry holds %s", store.Entries()[0].Value().Describe())
			}
			if !back.PrivateKey().Equal(pair.PrivateKey()) {
				t.Error("private key differs")
			}
			if n := len(back.Chain()); n != 2 {
				t.Errorf("chain length = %d, want 2", n)
			}
		})
	}
}

func TestPKCS12RejectsTwoKeys(t *testing.T) {
	a := issue(t, "A", nil, true, later())
	b := issue(t, "B", nil, true, later())
	pa, _ := NewKeyPair(src("a"), NewPrivateKey(src("a"), a.key, nil), NewCertificate(src("a"), a.cert))
	pb, _ := NewKeyPair(src("b"), NewPrivateKey(src("b"), b.key, nil), NewCertificate(src("b"), b.cert))
	s, _ := NewStore(src("s"), FormatPKCS12, nil,
		NewStoreEntry(src("a"), "a", pa, nil), NewStoreEntry(src("b"), "b", pb, nil))
	if err := Encode(&bytes.Buffer{}, s, ""); errs.KindOf(err) != errs.KindBadArgument {
		t.Fatalf("err = %v, want bad argument", err)
	}
}

func TestJKSRoundTrip(t *testing.T) {
	ca := issue(t, "Root", nil, true, later())
	leaf := issue(t, "Leaf", ca, false, later())
	pair, _ := NewKeyPair(src("pair"), NewPrivateKey(src("key"), leaf.key, nil), NewCertificate(src("leaf"), leaf.cert))
	s, err := NewStore(src("s"), FormatJKS, nil,
		NewStoreEntry(src("server"), "server", pair, nil),
		NewStoreEntry(src("root"), "root", NewCertificate(src("root"), ca.cert), nil))
	if err != nil {
		t.Fatal(err)
	}

	if err := Encode(&bytes.Buffer{}, s, ""); errs.KindOf(err) != errs.KindBadArgument {
		t.Fatalf("JKS without password: err = %v", err)
	}

	locked := s.WithEncryption(NewEncryptionInfo(src("enc"), "changeit", AlgJKS))
	data := encode(t, locked, "")
	v, err := NewParser(nil).Parse(data, "out.jks", password("changeit"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	back := v.(*Store)
	if back.Format() != FormatJKS {
		t.Errorf("format = %s", back.Format())
	}
	if e := back.Entry("server"); e == nil || e.Value().Kind() != value.KindKeyPair {
		t.Errorf("server entry = %v", e)
	}
	if e := back.Entry("root"); e == nil || !e.Value().Equal(NewCertificate(src("x"), ca.cert)) {
		t.Errorf("root entry = %v", e)
	}
}

func TestParseSSHPublicKey(t *testing.T) {
	key := newKey(t)
	sk, err := ssh.NewPublicKey(key.Public())
	if err != nil {
		t.Fatal(err)
	}
	line := bytes.TrimSpace(ssh.MarshalAuthorizedKey(sk))
	line = append(line, []byte(" alice@host\n")...)

	v, err := NewParser(nil).Parse(line, "id.pub", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	pub := v.(*PublicKey)
	if !pub.EqualString(ssh.FingerprintSHA256(sk)) {
		t.Error("ssh fingerprint does not match")
	}
	fp, ok := pub.Properties().Get("fingerprint")
	if !ok || !pub.EqualString(fp.(*value.String).Text()) {
		t.Error("hex fingerprint does not match")
	}
}

func TestVerify(t *testing.T) {
	now := time.Now()
	ca := issue(t, "Root", nil, true, later())
	leaf := issue(t, "Leaf", ca, false, later())
	expired := issue(t, "Old", nil, true, now.Add(-time.Minute))
	other := issue(t, "Other", nil, true, later())

	caV := NewCertificate(src("ca"), ca.cert)
	leafV := NewCertificate(src("leaf"), leaf.cert)

	tests := []struct {
		name    string
		v       value.Value
		wantErr bool
	}{
		{"self-signed", caV, false},
		{"leaf", leafV, false},
		{"expired", NewCertificate(src("old"), expired.cert), true},
		{"chain", NewCertificateChain(src("c"), leafV, caV), false},
		{"reversed chain", NewCertificateChain(src("c"), caV, leafV), true},
		{"wrong issuer", NewCertificateChain(src("c"), leafV, NewCertificate(src("o"), other.cert)), true},
		{"public key", NewPublicKey(src("k"), leaf.key.Public()), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.v, now)
			if (err != nil) != tt.wantErr {
				t.Errorf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := VerifyIssued(leafV, caV); err != nil {
		t.Errorf("VerifyIssued(leaf, ca): %v", err)
	}
	if err := VerifyIssued(caV, leafV); err == nil {
		t.Error("VerifyIssued(ca, leaf) succeeded")
	}
}

func TestFormatForPath(t *testing.T) {
	tests := map[string]string{
		"a.pem":     FormatPEM,
		"a.CRT":     FormatPEM,
		"b.der":     FormatDER,
		"c.p12":     FormatPKCS12,
		"c.pfx":     FormatPKCS12,
		"d.jks":     FormatJKS,
		"e.unknown": "",
		"noext":     "",
	}
	for path, want := range tests {
		if got := FormatForPath(path); got != want {
			t.Errorf("FormatForPath(%q) = %q, want %q", path, got, want)
		}
	}
	if f, ok := NormalizeFormat("PFX"); !ok || f != FormatPKCS12 {
		t.Errorf("NormalizeFormat(PFX) = %q, %v", f, ok)
	}
}

func TestCertificateProperties(t *testing.T) {
	ca := issue(t, "Root", nil, true, later())
	c := NewCertificate(src("ca"), ca.cert)

	if !strings.Contains(c.Describe(), "CN=Root") {
		t.Errorf("Describe() = %q", c.Describe())
	}
	cn, ok := c.Properties().Lookup("subject.CN")
	if !ok || !cn.EqualString("Root") {
		t.Errorf("subject.CN = %v, %v", cn, ok)
	}
	if v, _ := c.Properties().Get("self-signed"); !v.(*value.Boolean).Bool() {
		t.Error("self-signed = false")
	}
	if !c.EqualString(c.Fingerprint()) {
		t.Error("fingerprint does not match")
	}
	if !c.EqualString("CN=Root, O=Test") {
		t.Error("subject does not match")
	}
}
