/*
Copyright © 2025 Logicos Software

parse.go detects file formats and decodes them into values.
*/
package pki

import (
	"bufio"
	"bytes"
	"crypto"
	"crypto/ed25519"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/binary"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"log/slog"

	keystore "github.com/pavlo-v-chernykh/keystore-go/v4"
	"github.com/youmark/pkcs8"
	xpkcs12 "golang.org/x/crypto/pkcs12"
	"golang.org/x/crypto/ssh"
	pkcs12 "software.sslmate.com/src/go-pkcs12"

	"pkipipe/internal/errs"
	"pkipipe/internal/value"
)

// PEM block types.
const (
	pemCertificate         = "CERTIFICATE"
	pemPrivateKey          = "PRIVATE KEY"
	pemEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
	pemRSAPrivateKey       = "RSA PRIVATE KEY"
	pemECPrivateKey        = "EC PRIVATE KEY"
	pemPublicKey           = "PUBLIC KEY"
	pemRSAPublicKey        = "RSA PUBLIC KEY"
	pemOpenSSHPrivateKey   = "OPENSSH PRIVATE KEY"
)

const jksMagic = 0xFEEDFEED

// Parser turns file contents into values. The zero value is ready to use.
type Parser struct {
	Logger *slog.Logger
}

// NewParser returns a parser logging to logger. A nil logger discards.
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{Logger: logger}
}

func (p *Parser) log() *slog.Logger {
	if p == nil || p.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p.Logger
}

// Parse sniffs the format of data read from path and decodes it. pw is
// called at most once, and only when the content turns out to be
// password protected.
func (p *Parser) Parse(data []byte, path string, pw func() (string, error)) (value.Value, error) {
	pw = oncePassword(pw)
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return nil, errs.External("empty input "+path, nil)
	case isJKS(data):
		p.log().Debug("sniffed format", "path", path, "format", "jks")
		return parseJKS(data, value.FileSource(path, "jks", "binary"), pw)
	case bytes.Contains(data, []byte("-----BEGIN ")):
		p.log().Debug("sniffed format", "path", path, "format", "pem")
		return parsePEM(data, value.FileSource(path, "pem", "text"), pw)
	case isSSHPublicKey(trimmed):
		p.log().Debug("sniffed format", "path", path, "format", "openssh")
		return parseSSHPublicKeys(trimmed, value.FileSource(path, "openssh", "text"))
	}

	src := value.FileSource(path, "der", "binary")
	if v, ok := parseDER(data, src); ok {
		p.log().Debug("sniffed format", "path", path, "format", "der")
		return v, nil
	}
	if isEncryptedPKCS8(data) {
		p.log().Debug("sniffed format", "path", path, "format", "der", "encrypted", true)
		return parseEncryptedPKCS8(data, src, pw)
	}
	if isPKCS12(data) {
		p.log().Debug("sniffed format", "path", path, "format", "pkcs12")
		return parsePKCS12(data, value.FileSource(path, "pkcs12", "binary"), pw)
	}
	return nil, errs.External("unrecognized file format: "+path, nil)
}

func oncePassword(pw func() (string, error)) func() (string, error) {
	var (
		done bool
		s    string
		err  error
	)
	return func() (string, error) {
		if !done {
			done = true
			if pw == nil {
				err = errors.New("no password available")
			} else {
				s, err = pw()
			}
		}
		return s, err
	}
}

func isJKS(data []byte) bool {
	return len(data) >= 4 && binary.BigEndian.Uint32(data) == jksMagic
}

func isSSHPublicKey(data []byte) bool {
	return bytes.HasPrefix(data, []byte("ssh-")) || bytes.HasPrefix(data, []byte("ecdsa-sha2-"))
}

// isPKCS12 reports whether data starts like a PFX: SEQUENCE { INTEGER 3, ... }.
func isPKCS12(data []byte) bool {
	var pfx struct {
		Version  int
		AuthSafe asn1.RawValue
		MacData  asn1.RawValue `asn1:"optional"`
	}
	_, err := asn1.Unmarshal(data, &pfx)
	return err == nil && pfx.Version == 3
}

func isEncryptedPKCS8(data []byte) bool {
	var info struct {
		Algo pkix.AlgorithmIdentifier
		Data []byte
	}
	rest, err := asn1.Unmarshal(data, &info)
	return err == nil && len(rest) == 0 && len(info.Data) > 0
}

// asSigner narrows a parsed private key to a crypto.Signer.
func asSigner(key any) (crypto.Signer, error) {
	switch k := key.(type) {
	case *ed25519.PrivateKey:
		return *k, nil
	case crypto.Signer:
		return k, nil
	}
	return nil, fmt.Errorf("unsupported private key type %T", key)
}

func parseDER(data []byte, src value.Source) (value.Value, bool) {
	if certs, err := x509.ParseCertificates(data); err == nil && len(certs) > 0 {
		return certificatesValue(src, certs), true
	}
	if key, err := x509.ParsePKCS8PrivateKey(data); err == nil {
		if s, err := asSigner(key); err == nil {
			return NewPrivateKey(src, s, nil), true
		}
	}
	if key, err := x509.ParsePKCS1PrivateKey(data); err == nil {
		return NewPrivateKey(src, key, nil), true
	}
	if key, err := x509.ParseECPrivateKey(data); err == nil {
		return NewPrivateKey(src, key, nil), true
	}
	if key, err := x509.ParsePKIXPublicKey(data); err == nil {
		return NewPublicKey(src, key), true
	}
	if key, err := x509.ParsePKCS1PublicKey(data); err == nil {
		return NewPublicKey(src, key), true
	}
	return nil, false
}

func certificatesValue(src value.Source, certs []*x509.Certificate) value.Value {
	if len(certs) == 1 {
		return NewCertificate(src, certs[0])
	}
	wrapped := make([]*Certificate, len(certs))
	for i, c := range certs {
		wrapped[i] = NewCertificate(src.Derive(fmt.Sprintf("certificate %d", i+1)), c)
	}
	return NewCertificateChain(src, wrapped...)
}

func parseEncryptedPKCS8(der []byte, src value.Source, pw func() (string, error)) (value.Value, error) {
	password, err := pw()
	if err != nil {
		return nil, errs.External("password required for encrypted private key", err)
	}
	key, err := pkcs8.ParsePKCS8PrivateKey(der, []byte(password))
	if err != nil {
		return nil, errs.Classify(fmt.Errorf("decryption password incorrect: %w", err))
	}
	signer, err := asSigner(key)
	if err != nil {
		return nil, errs.External("cannot use private key", err)
	}
	return NewPrivateKey(src, signer, NewEncryptionInfo(src.Derive("encryption"), password, AlgPBES2)), nil
}

// parsePEM decodes every PEM block. A single block yields its value; only
// certificates yield a chain; anything else yields a sequence.
func parsePEM(data []byte, src value.Source, pw func() (string, error)) (value.Value, error) {
	var blocks []*pem.Block
	for rest := data; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		blocks = append(blocks, block)
	}
	if len(blocks) == 0 {
		return nil, errs.External("no PEM blocks found in "+src.Path, nil)
	}

	vals := make([]value.Value, 0, len(blocks))
	certs := make([]*Certificate, 0, len(blocks))
	for i, block := range blocks {
		bsrc := src
		if len(blocks) > 1 {
			bsrc = src.Derive(fmt.Sprintf("block %d", i+1))
		}
		v, err := parsePEMBlock(block, bsrc, pw)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		if c, ok := v.(*Certificate); ok {
			certs = append(certs, c)
		}
	}
	switch {
	case len(vals) == 1:
		return vals[0], nil
	case len(certs) == len(vals):
		return NewCertificateChain(src, certs...), nil
	default:
		return value.NewSequence(src, vals...), nil
	}
}

func parsePEMBlock(block *pem.Block, src value.Source, pw func() (string, error)) (value.Value, error) {
	switch block.Type {
	case pemCertificate, "TRUSTED CERTIFICATE", "X509 CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, errs.External("cannot parse certificate in "+src.Description, err)
		}
		return NewCertificate(src, cert), nil

	case pemPrivateKey:
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, errs.External("cannot parse private key in "+src.Description, err)
		}
		signer, err := asSigner(key)
		if err != nil {
			return nil, errs.External("cannot use private key in "+src.Description, err)
		}
		return NewPrivateKey(src, signer, nil), nil

	case pemEncryptedPrivateKey:
		return parseEncryptedPKCS8(block.Bytes, src, pw)

	case pemRSAPrivateKey, pemECPrivateKey:
		return parseLegacyPrivateKey(block, src, pw)

	case pemPublicKey:
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, errs.External("cannot parse public key in "+src.Description, err)
		}
		return NewPublicKey(src, key), nil

	case pemRSAPublicKey:
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, errs.External("cannot parse public key in "+src.Description, err)
		}
		return NewPublicKey(src, key), nil

	case pemOpenSSHPrivateKey:
		return parseOpenSSHPrivateKey(block, src, pw)
	}
	return nil, errs.External(fmt.Sprintf("unsupported PEM block %q in %s", block.Type, src.Description), nil)
}

// parseLegacyPrivateKey handles PKCS#1 and SEC1 blocks, including the
// Proc-Type/DEK-Info encrypted variant.
func parseLegacyPrivateKey(block *pem.Block, src value.Source, pw func() (string, error)) (value.Value, error) {
	der := block.Bytes
	var enc *EncryptionInfo
	//lint:ignore SA1019 legacy encrypted PEM is still found in the wild
	if x509.IsEncryptedPEMBlock(block) {
		password, err := pw()
		if err != nil {
			return nil, errs.External("password required for encrypted private key", err)
		}
			der, err = x509.DecryptPEMBlock(block, []byte(password))
		if err != nil {
			return nil, errs.Classify(fmt.Errorf("decryption password incorrect: %w", err))
		}
		enc = NewEncryptionInfo(src.Derive("encryption"), password, AlgPEMLegacy)
	}

	var (
		key crypto.Signer
		err error
	)
	if block.Type == pemRSAPrivateKey {
		key, err = x509.ParsePKCS1PrivateKey(der)
	} else {
		key, err = x509.ParseECPrivateKey(der)
	}
	if err != nil {
		return nil, errs.External("cannot parse private key in "+src.Description, err)
	}
	return NewPrivateKey(src, key, enc), nil
}

func parseOpenSSHPrivateKey(block *pem.Block, src value.Source, pw func() (string, error)) (value.Value, error) {
	raw := pem.EncodeToMemory(block)
	key, err := ssh.ParseRawPrivateKey(raw)
	var enc *EncryptionInfo
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		password, perr := pw()
		if perr != nil {
			return nil, errs.External("passphrase required for OpenSSH private key", perr)
		}
		key, err = ssh.ParseRawPrivateKeyWithPassphrase(raw, []byte(password))
		enc = NewEncryptionInfo(src.Derive("encryption"), password, AlgPassphrase)
	}
	if err != nil {
		if errors.Is(err, x509.IncorrectPasswordError) {
			return nil, errs.Classify(fmt.Errorf("decryption password incorrect: %w", err))
		}
		return nil, errs.External("cannot parse OpenSSH private key in "+src.Description, err)
	}
	signer, err := asSigner(key)
	if err != nil {
		return nil, errs.External("cannot use private key in "+src.Description, err)
	}
	return NewPrivateKey(src, signer, enc), nil
}

// parseSSHPublicKeys reads authorized_keys style lines.
func parseSSHPublicKeys(data []byte, src value.Source) (value.Value, error) {
	var vals []value.Value
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		pk, comment, _, _, err := ssh.ParseAuthorizedKey(line)
		if err != nil {
			return nil, errs.External("cannot parse OpenSSH public key in "+src.Description, err)
		}
		cpk, ok := pk.(ssh.CryptoPublicKey)
		if !ok {
			return nil, errs.External(fmt.Sprintf("unsupported OpenSSH key type %s", pk.Type()), nil)
		}
		ksrc := src
		if comment != "" {
			ksrc = src.Derive(comment)
		}
		vals = append(vals, NewPublicKey(ksrc, cpk.CryptoPublicKey()))
	}
	if len(vals) == 1 {
		return vals[0], nil
	}
	return value.NewSequence(src, vals...), nil
}

// p12Bag is one decoded PKCS#12 safe bag.
type p12Bag struct {
	id   string
	name string
	key  crypto.Signer
	cert *x509.Certificate
}

// parsePKCS12 decodes a PFX into a store. The empty password is tried
// first so passwordless stores never prompt.
func parsePKCS12(data []byte, src value.Source, pw func() (string, error)) (value.Value, error) {
	password := ""
	bags, err := decodePKCS12(data, password)
	if isIncorrectPassword(err) {
		password, err = pw()
		if err != nil {
			return nil, errs.External("password required for PKCS#12 store", err)
		}
		bags, err = decodePKCS12(data, password)
	}
	if err != nil {
		return nil, errs.Classify(fmt.Errorf("cannot decode PKCS#12 %s: %w", src.Path, err))
	}

	var enc *EncryptionInfo
	if password != "" {
		enc = NewEncryptionInfo(src.Derive("encryption"), password, AlgPKCS12Des)
	}
	entries, err := pkcs12Entries(bags, src)
	if err != nil {
		return nil, err
	}
	return NewStore(src, FormatPKCS12, enc, entries...)
}

func isIncorrectPassword(err error) bool {
	return errors.Is(err, xpkcs12.ErrIncorrectPassword) || errors.Is(err, pkcs12.ErrIncorrectPassword)
}

// decodePKCS12 reads the bags with golang.org/x/crypto/pkcs12, which keeps
// friendly names and local key ids, and falls back to the sslmate decoder
// for algorithms the former does not know.
func decodePKCS12(data []byte, password string) ([]p12Bag, error) {
	blocks, err := xpkcs12.ToPEM(data, password)
	if err == nil {
		return bagsFromPEM(blocks)
	}
	if isIncorrectPassword(err) {
		return nil, err
	}

	key, cert, cas, ferr := pkcs12.DecodeChain(data, password)
	if ferr == nil {
		signer, serr := asSigner(key)
		if serr != nil {
			return nil, serr
		}
		bags := []p12Bag{{id: "1", key: signer}, {id: "1", cert: cert}}
		for _, ca := range cas {
			bags = append(bags, p12Bag{cert: ca})
		}
		return bags, nil
	}
	if isIncorrectPassword(ferr) {
		return nil, ferr
	}
	certs, terr := pkcs12.DecodeTrustStore(data, password)
	if terr != nil {
		return nil, fmt.Errorf("%w (trust store: %v)", err, terr)
	}
	bags := make([]p12Bag, len(certs))
	for i, c := range certs {
		bags[i] = p12Bag{cert: c}
	}
	return bags, nil
}

func bagsFromPEM(blocks []*pem.Block) ([]p12Bag, error) {
	bags := make([]p12Bag, 0, len(blocks))
	for _, b := range blocks {
		bag := p12Bag{id: b.Headers["localKeyId"], name: b.Headers["friendlyName"]}
		switch b.Type {
		case pemCertificate:
			cert, err := x509.ParseCertificate(b.Bytes)
			if err != nil {
				return nil, err
			}
			bag.cert = cert
		case pemRSAPrivateKey:
			key, err := x509.ParsePKCS1PrivateKey(b.Bytes)
			if err != nil {
				return nil, err
			}
			bag.key = key
		case pemECPrivateKey:
			key, err := x509.ParseECPrivateKey(b.Bytes)
			if err != nil {
				return nil, err
			}
			bag.key = key
		default:
			continue
		}
		bags = append(bags, bag)
	}
	return bags, nil
}

// pkcs12Entries groups bags into store entries. A key bag and the
// certificate bags sharing its local key id form a key pair. When the store
// holds exactly one key, certificates without a key id complete its chain;
// otherwise they become trusted certificate entries.
func pkcs12Entries(bags []p12Bag, src value.Source) ([]*StoreEntry, error) {
	var keys []p12Bag
	var loose []*x509.Certificate
	var looseNames []string
	byID := make(map[string][]*x509.Certificate)
	for _, b := range bags {
		switch {
		case b.key != nil:
			keys = append(keys, b)
		case b.id != "":
			byID[b.id] = append(byID[b.id], b.cert)
		default:
			loose = append(loose, b.cert)
			looseNames = append(looseNames, b.name)
		}
	}

	var entries []*StoreEntry
	for i, k := range keys {
		alias := k.name
		if alias == "" {
			alias = fmt.Sprintf("key-%d", i+1)
		}
		esrc := src.Derive("entry " + alias)
		certs := byID[k.id]
		if len(keys) == 1 {
			certs = append(certs, loose...)
		}
		priv := NewPrivateKey(esrc.Derive("private key"), k.key, nil)
		var public value.Value = priv.Public()
		if len(certs) > 0 {
			public = certificatesValue(esrc.Derive("certificates"), certs)
		}
		pair, err := NewKeyPair(esrc, priv, public)
		if err != nil {
			return nil, err
		}
		entries = append(entries, NewStoreEntry(esrc, alias, pair, nil))
	}
	if len(keys) == 1 {
		return entries, nil
	}
	for i, c := range loose {
		alias := looseNames[i]
		if alias == "" {
			alias = fmt.Sprintf("cert-%d", i+1)
		}
		esrc := src.Derive("entry " + alias)
		entries = append(entries, NewStoreEntry(esrc, alias, NewCertificate(esrc, c), nil))
	}
	return entries, nil
}

// parseJKS decodes a Java key store. JKS always carries an integrity
// password, so the password is requested up front.
func parseJKS(data []byte, src value.Source, pw func() (string, error)) (value.Value, error) {
	password, err := pw()
	if err != nil {
		return nil, errs.External("password required for JKS store", err)
	}
	ks := keystore.New(keystore.WithOrderedAliases(), keystore.WithCaseExactAliases())
	if err := ks.Load(bytes.NewReader(data), []byte(password)); err != nil {
		return nil, errs.Classify(fmt.Errorf("cannot load JKS %s (decryption password incorrect?): %w", src.Path, err))
	}

	var entries []*StoreEntry
	for _, alias := range ks.Aliases() {
		esrc := src.Derive("entry " + alias)
		switch {
		case ks.IsPrivateKeyEntry(alias):
			pke, err := ks.GetPrivateKeyEntry(alias, []byte(password))
			if err != nil {
				return nil, errs.Classify(fmt.Errorf("decryption password incorrect for entry %q: %w", alias, err))
			}
			v, err := jksKeyPair(pke, esrc)
			if err != nil {
				return nil, err
			}
			entries = append(entries, NewStoreEntry(esrc, alias, v, nil))
		case ks.IsTrustedCertificateEntry(alias):
			tce, err := ks.GetTrustedCertificateEntry(alias)
			if err != nil {
				return nil, errs.External("cannot read JKS entry "+alias, err)
			}
			cert, err := x509.ParseCertificate(tce.Certificate.Content)
			if err != nil {
				return nil, errs.External("cannot parse certificate of JKS entry "+alias, err)
			}
			entries = append(entries, NewStoreEntry(esrc, alias, NewCertificate(esrc, cert), nil))
		}
	}
	enc := NewEncryptionInfo(src.Derive("encryption"), password, AlgJKS)
	return NewStore(src, FormatJKS, enc, entries...)
}

func jksKeyPair(pke keystore.PrivateKeyEntry, src value.Source) (value.Value, error) {
	key, err := x509.ParsePKCS8PrivateKey(pke.PrivateKey)
	if err != nil {
		return nil, errs.External("cannot parse private key of "+src.Description, err)
	}
	signer, err := asSigner(key)
	if err != nil {
		return nil, errs.External("cannot use private key of "+src.Description, err)
	}
	priv := NewPrivateKey(src.Derive("private key"), signer, nil)
	if len(pke.CertificateChain) == 0 {
		return NewKeyPair(src, priv, priv.Public())
	}
	certs := make([]*x509.Certificate, 0, len(pke.CertificateChain))
	for _, c := range pke.CertificateChain {
		cert, err := x509.ParseCertificate(c.Content)
		if err != nil {
			return nil, errs.External("cannot parse certificate chain of "+src.Description, err)
		}
		certs = append(certs, cert)
	}
	return NewKeyPair(src, priv, certificatesValue(src.Derive("certificates"), certs))
}
