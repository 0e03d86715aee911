/*
Copyright © 2025 Logicos Software

Package fsys is the file access behind the read and write commands.

Paths starting with "~" are expanded to the home directory. Paths of the
form yubikey:<slot> name a YubiKey PIV slot; reading one yields the slot
certificate in PEM form, falling back to an attestation chain when the
slot holds a generated key but no stored certificate.
*/
package fsys

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-piv/piv-go/v2/piv"

	"pkipipe/internal/engine"
	"pkipipe/internal/errs"
)

// YubiKeyPrefix marks a virtual path naming a PIV slot.
const YubiKeyPrefix = "yubikey:"

// card is the part of *piv.YubiKey used to read slot certificates.
type card interface {
	Certificate(slot piv.Slot) (*x509.Certificate, error)
	Attest(slot piv.Slot) (*x509.Certificate, error)
	AttestationCertificate() (*x509.Certificate, error)
}

// OS is the operating system filesystem.
type OS struct {
	// Reader selects the PC/SC reader for yubikey: paths. Empty picks the
	// first YubiKey found.
	Reader string

	open func(reader string) (card, func(), error)
}

// New returns an OS filesystem using the given smart card reader.
func New(reader string) *OS {
	return &OS{Reader: reader, open: openCard}
}

func openCard(reader string) (card, func(), error) {
	yk, closeFn, err := OpenYubiKey(reader)
	if err != nil {
		return nil, nil, err
	}
	return yk, closeFn, nil
}

// Resolve expands a leading "~" and cleans the path. Virtual yubikey:
// paths are returned unchanged.
func (f *OS) Resolve(path string) string {
	if IsYubiKeyPath(path) {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return filepath.Clean(path)
}

// OpenForRead opens path for reading.
func (f *OS) OpenForRead(path string) (io.ReadCloser, error) {
	if IsYubiKeyPath(path) {
		data, err := f.readSlot(path[len(YubiKeyPrefix):])
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	file, err := os.Open(path)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return nil, errs.FileNotFound(path, err)
		case os.IsPermission(err):
			return nil, errs.FilePermission(path, err)
		default:
			return nil, errs.External("cannot open "+path, err)
		}
	}
	return file, nil
}

// OpenForWrite returns an atomic writer for path.
func (f *OS) OpenForWrite(path string, overwrite bool) (engine.WriteCommitter, error) {
	if IsYubiKeyPath(path) {
		return nil, errs.BadArgument("cannot write to %s: YubiKey slots are read-only", path)
	}
	return NewAtomicWriter(path, overwrite)
}

// IsYubiKeyPath reports whether path names a PIV slot.
func IsYubiKeyPath(path string) bool {
	return strings.HasPrefix(strings.ToLower(path), YubiKeyPrefix)
}

// readSlot returns the PEM encoded certificate of a PIV slot. Slots
// without a stored certificate fall back to the attestation certificate
// followed by the device attestation certificate that signs it.
func (f *OS) readSlot(name string) ([]byte, error) {
	slot, err := ParseSlot(name)
	if err != nil {
		return nil, errs.BadArgument("%v", err)
	}
	yk, closeFn, err := f.open(f.Reader)
	if err != nil {
		return nil, errs.Classify(err)
	}
	defer closeFn()

	var out bytes.Buffer
	cert, err := yk.Certificate(slot)
	if err == nil {
		pem.Encode(&out, &pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
		return out.Bytes(), nil
	}

	att, attErr := yk.Attest(slot)
	if attErr != nil {
		// Report the original lookup failure: it names the empty slot
		return nil, errs.Classify(fmt.Errorf("reading yubikey slot %s: %w", name, err))
	}
	pem.Encode(&out, &pem.Block{Type: "CERTIFICATE", Bytes: att.Raw})
	if device, err := yk.AttestationCertificate(); err == nil {
		pem.Encode(&out, &pem.Block{Type: "CERTIFICATE", Bytes: device.Raw})
	}
	return out.Bytes(), nil
}

// OpenYubiKey opens a connection to a YubiKey.
//
// If reader is non-empty, that reader is opened. Otherwise the first
// smart card reader with "yubikey" in its name is used. The returned
// function closes the connection.
func OpenYubiKey(reader string) (*piv.YubiKey, func(), error) {
	if reader != "" {
		yk, err := piv.Open(reader)
		if err != nil {
			return nil, nil, err
		}
		return yk, func() { _ = yk.Close() }, nil
	}

	cards, err := piv.Cards()
	if err != nil {
		return nil, nil, err
	}
	for _, c := range cards {
		if strings.Contains(strings.ToLower(c), "yubikey") {
			yk, err := piv.Open(c)
			if err != nil {
				continue
			}
			return yk, func() { _ = yk.Close() }, nil
		}
	}
	return nil, nil, fmt.Errorf("no yubikey reader found")
}

// ParseSlot converts a slot ID or name to a piv.Slot.
//
//   - 9a / auth / authentication: PIV Authentication
//   - 9c / sig / signature: Digital Signature
//   - 9d / km / keymgmt / keymanagement: Key Management
//   - 9e / cardauth / cardauthentication: Card Authentication
func ParseSlot(s string) (piv.Slot, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "9a", "auth", "authentication":
		return piv.SlotAuthentication, nil
	case "9c", "sig", "signature":
		return piv.SlotSignature, nil
	case "9d", "km", "keymgmt", "keymanagement":
		return piv.SlotKeyManagement, nil
	case "9e", "cardauth", "cardauthentication":
		return piv.SlotCardAuthentication, nil
	default:
		return piv.Slot{}, fmt.Errorf("unsupported slot %q (use 9a, 9c, 9d, or 9e)", s)
	}
}
