/*
Copyright © 2025 Logicos Software

encryption.go describes the password protection attached to values.
*/
package pki

import (
	"io"
	"strings"

	"pkipipe/internal/value"
)

// Encryption algorithm names recorded in EncryptionInfo.
const (
	AlgPBES2      = "PBES2-AES256-CBC"
	AlgPKCS12Des  = "pbeWithSHAAnd3-KeyTripleDES-CBC"
	AlgJKS        = "jks-keyprotector"
	AlgPEMLegacy  = "pem-legacy"
	AlgPassphrase = "passphrase"
)

// EncryptionInfo records the password protection of a store, entry or
// private key. The password itself never appears in properties or
// descriptions.
type EncryptionInfo struct {
	value.Base
	password  string
	algorithm string
}

// NewEncryptionInfo returns protection with password. An empty algorithm
// means the default of the container the value is written to.
func NewEncryptionInfo(src value.Source, password, algorithm string) *EncryptionInfo {
	if algorithm == "" {
		algorithm = AlgPassphrase
	}
	return &EncryptionInfo{Base: value.NewBase(src), password: password, algorithm: algorithm}
}

// Password returns the protecting password. A nil receiver has none.
func (e *EncryptionInfo) Password() string {
	if e == nil {
		return ""
	}
	return e.password
}

// Algorithm returns the protection algorithm name.
func (e *EncryptionInfo) Algorithm() string { return e.algorithm }

func (e *EncryptionInfo) Kind() value.Kind { return value.KindEncryptionInfo }

func (e *EncryptionInfo) Describe() string {
	return value.DefaultDescribe(e) + " (" + e.algorithm + ")"
}

func (e *EncryptionInfo) Properties() *value.Properties {
	return e.Memo(func(p *value.Properties) {
		src := e.Source()
		p.Set("encrypted", value.NewBoolean(src.Derive("encrypted"), true))
		p.Set("algorithm", NewAlgorithm(src.Derive("algorithm"), e.algorithm))
	})
}

// Equal compares the algorithm only; passwords are not compared.
func (e *EncryptionInfo) Equal(other value.Value) bool {
	x, ok := other.(*EncryptionInfo)
	return ok && x.algorithm == e.algorithm
}

func (e *EncryptionInfo) EqualString(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), e.algorithm)
}

func (e *EncryptionInfo) Encode(w io.Writer) error {
	_, err := io.WriteString(w, e.algorithm)
	return err
}

// Encryptable is implemented by values that can carry password protection.
type Encryptable interface {
	value.Value
	Encryption() *EncryptionInfo
	WithEncryption(enc *EncryptionInfo) value.Value
}

// encryptionProperty returns the property value describing enc.
func encryptionProperty(src value.Source, enc *EncryptionInfo) value.Value {
	if enc == nil {
		return value.NewBoolean(src.Derive("encryption"), false)
	}
	return enc
}
