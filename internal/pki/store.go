/*
Copyright © 2025 Logicos Software

store.go implements key stores and their entries.
*/
package pki

import (
	"fmt"
	"io"

	"pkipipe/internal/errs"
	"pkipipe/internal/value"
)

// StoreEntry is a named member of a key store. Its value is a key pair, a
// certificate, a chain or a bare key.
type StoreEntry struct {
	value.Base
	alias string
	val   value.Value
	enc   *EncryptionInfo
}

// NewStoreEntry returns an entry named alias holding val. enc may be nil.
func NewStoreEntry(src value.Source, alias string, val value.Value, enc *EncryptionInfo) *StoreEntry {
	return &StoreEntry{Base: value.NewBase(src), alias: alias, val: val, enc: enc}
}

// Alias returns the entry name.
func (e *StoreEntry) Alias() string { return e.alias }

// Value returns the stored value.
func (e *StoreEntry) Value() value.Value { return e.val }

// Encryption returns the entry protection, nil when it inherits the store's.
func (e *StoreEntry) Encryption() *EncryptionInfo { return e.enc }

// WithEncryption returns a copy protected by enc.
func (e *StoreEntry) WithEncryption(enc *EncryptionInfo) value.Value {
	return NewStoreEntry(e.Source(), e.alias, e.val, enc)
}

// WithAlias returns a renamed copy.
func (e *StoreEntry) WithAlias(src value.Source, alias string) *StoreEntry {
	return NewStoreEntry(src, alias, e.val, e.enc)
}

func (e *StoreEntry) Kind() value.Kind { return value.KindStoreEntry }

func (e *StoreEntry) Describe() string {
	return fmt.Sprintf("%s [%s]", value.DefaultDescribe(e), e.alias)
}

func (e *StoreEntry) Properties() *value.Properties {
	return e.Memo(func(p *value.Properties) {
		src := e.Source()
		p.Set("alias", value.NewString(src.Derive("alias"), e.alias))
		p.Set("type", value.NewString(src.Derive("type"), e.val.Kind().String()))
		p.Set("value", e.val)
		p.Set("encryption", encryptionProperty(src, e.enc))
	})
}

// ConvertTo presents the entry as the record {alias: value} or as the
// one-element sequence of its value, or converts the stored value.
func (e *StoreEntry) ConvertTo(target value.Kind) (value.Value, bool) {
	switch target {
	case value.KindRecord:
		return value.NewRecord(e.Source()).Put(e.alias, e.val), true
	case value.KindSequence:
		return value.NewSequence(e.Source(), e.val), true
	}
	return value.As(e.val, target)
}

func (e *StoreEntry) Equal(other value.Value) bool {
	x, ok := other.(*StoreEntry)
	return ok && x.alias == e.alias && value.Equal(e.val, x.val)
}

// EqualString matches the alias.
func (e *StoreEntry) EqualString(s string) bool {
	return s == e.alias
}

// Encode writes the stored value.
func (e *StoreEntry) Encode(w io.Writer) error {
	return e.val.Encode(w)
}

// Store is a key store: an ordered list of uniquely named entries, written
// in one of the store formats.
type Store struct {
	value.Base
	format  string
	entries []*StoreEntry
	enc     *EncryptionInfo
}

// NewStore returns a store of the given format. Aliases must be unique.
func NewStore(src value.Source, format string, enc *EncryptionInfo, entries ...*StoreEntry) (*Store, error) {
	s := &Store{Base: value.NewBase(src), format: format, enc: enc}
	for _, e := range entries {
		if s.Entry(e.alias) != nil {
			return nil, errs.DuplicateEntry(e.alias)
		}
		s.entries = append(s.entries, e)
	}
	return s, nil
}

// Format returns the store format: pem, pkcs12 or jks.
func (s *Store) Format() string { return s.format }

// Entries returns the entries in order.
func (s *Store) Entries() []*StoreEntry { return s.entries }

// Entry returns the entry named alias, or nil.
func (s *Store) Entry(alias string) *StoreEntry {
	for _, e := range s.entries {
		if e.alias == alias {
			return e
		}
	}
	return nil
}

// Encryption returns the store protection, nil when unprotected.
func (s *Store) Encryption() *EncryptionInfo { return s.enc }

// WithEncryption returns a copy protected by enc.
func (s *Store) WithEncryption(enc *EncryptionInfo) value.Value {
	return &Store{Base: value.NewBase(s.Source()), format: s.format, entries: s.entries, enc: enc}
}

// WithFormat returns a copy written in format.
func (s *Store) WithFormat(format string) *Store {
	return &Store{Base: value.NewBase(s.Source()), format: format, entries: s.entries, enc: s.enc}
}

// Add returns a new store with e appended.
func (s *Store) Add(src value.Source, e *StoreEntry) (*Store, error) {
	entries := append(append([]*StoreEntry(nil), s.entries...), e)
	return NewStore(src, s.format, s.enc, entries...)
}

// Merge returns a new store holding the entries of s followed by those of
// other. Entries of an encrypted other store keep its password.
func (s *Store) Merge(src value.Source, other *Store) (*Store, error) {
	entries := append([]*StoreEntry(nil), s.entries...)
	for _, e := range other.entries {
		if e.enc == nil && other.enc != nil {
			e = NewStoreEntry(e.Source(), e.alias, e.val, other.enc)
		}
		entries = append(entries, e)
	}
	return NewStore(src, s.format, s.enc, entries...)
}

// Members implements value.Container.
func (s *Store) Members() []value.Value {
	out := make([]value.Value, len(s.entries))
	for i, e := range s.entries {
		out[i] = e
	}
	return out
}

func (s *Store) Kind() value.Kind { return value.KindStore }

func (s *Store) Describe() string {
	return fmt.Sprintf("%s [%s, %d entries]", value.DefaultDescribe(s), s.format, len(s.entries))
}

func (s *Store) Properties() *value.Properties {
	return s.Memo(func(p *value.Properties) {
		src := s.Source()
		p.Set("format", value.NewString(src.Derive("format"), s.format))
		p.Set("size", value.NewInt(src.Derive("size"), int64(len(s.entries))))
		aliases := value.NewSequence(src.Derive("aliases"))
		entries := value.NewRecord(src.Derive("entries"))
		for _, e := range s.entries {
			aliases.Append(value.NewString(src.Derive("alias"), e.alias))
			entries.Put(e.alias, e)
		}
		p.Set("aliases", aliases)
		p.Set("entries", entries)
		p.Set("encryption", encryptionProperty(src, s.enc))
	})
}

func (s *Store) Equal(other value.Value) bool {
	x, ok := other.(*Store)
	if !ok || len(x.entries) != len(s.entries) {
		return false
	}
	for i := range s.entries {
		if !s.entries[i].Equal(x.entries[i]) {
			return false
		}
	}
	return true
}

// EqualString is always false: stores have no textual identity.
func (s *Store) EqualString(string) bool { return false }

// Encode writes the store in its own format.
func (s *Store) Encode(w io.Writer) error {
	return encodeStore(w, s, s.format)
}
