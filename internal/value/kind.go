/*
Copyright © 2025 Logicos Software

kind.go enumerates value kinds and their capabilities.
*/
package value

// Kind identifies what a Value represents. Concrete kinds tag values;
// abstract kinds (KindObject, KindScalar, KindKey, KindEncrypted) exist only
// as conversion targets.
type Kind int

const (
	KindInvalid Kind = iota

	// Scalar kinds
	KindString
	KindNumber
	KindBoolean
	KindDate
	KindNull

	// Structured kinds
	KindSequence
	KindRecord
	KindResult

	// Crypto kinds
	KindCertificate
	KindCertificateChain
	KindKeyPair
	KindPrivateKey
	KindPublicKey
	KindStore
	KindStoreEntry
	KindEncryptionInfo
	KindAlgorithm
	KindOID
	KindASN1
	KindDistinguishedName
	KindDNComponent

	// Abstract capabilities
	KindObject
	KindScalar
	KindKey
	KindEncrypted
)

var kindNames = map[Kind]string{
	KindString:            "string",
	KindNumber:            "number",
	KindBoolean:           "boolean",
	KindDate:              "date",
	KindNull:              "null",
	KindSequence:          "sequence",
	KindRecord:            "record",
	KindResult:            "result",
	KindCertificate:       "certificate",
	KindCertificateChain:  "certificate-chain",
	KindKeyPair:           "key-pair",
	KindPrivateKey:        "private-key",
	KindPublicKey:         "public-key",
	KindStore:             "store",
	KindStoreEntry:        "store-entry",
	KindEncryptionInfo:    "encryption-info",
	KindAlgorithm:         "algorithm",
	KindOID:               "oid",
	KindASN1:              "asn1",
	KindDistinguishedName: "distinguished-name",
	KindDNComponent:       "dn-component",
	KindObject:            "object",
	KindScalar:            "scalar",
	KindKey:               "key",
	KindEncrypted:         "encrypted",
}

// String returns the canonical type name of the kind.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "invalid"
}

// capabilities lists, per concrete kind, the abstract or structural
// capabilities it satisfies in addition to itself and KindObject.
var capabilities = map[Kind][]Kind{
	KindString:           {KindScalar},
	KindNumber:           {KindScalar},
	KindBoolean:          {KindScalar},
	KindDate:             {KindScalar},
	KindNull:             {KindScalar},
	KindCertificateChain: {KindSequence},
	KindPrivateKey:       {KindKey, KindEncrypted},
	KindPublicKey:        {KindKey},
	KindStore:            {KindSequence, KindEncrypted},
	KindStoreEntry:       {KindEncrypted},
}

// Satisfies reports whether a value of kind k is already an instance of
// capability target, without any conversion.
func Satisfies(k, target Kind) bool {
	if k == target || target == KindObject {
		return k != KindInvalid
	}
	for _, c := range capabilities[k] {
		if c == target {
			return true
		}
	}
	return false
}

// IsScalar reports whether k is one of the scalar kinds.
func IsScalar(k Kind) bool {
	return Satisfies(k, KindScalar)
}
