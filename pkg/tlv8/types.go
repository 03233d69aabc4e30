package tlv8

// Type is an 8-bit TLV item type code.
//
// The numeric values are fixed by the published ACP pairing protocol table
// and must not change; remote controllers depend on them.
type Type byte

const (
	// TypeMethod identifies the pairing method being invoked.
	TypeMethod Type = 0x00

	// TypeIdentifier carries a pairing identifier (UTF-8 UUID text).
	TypeIdentifier Type = 0x01

	// TypeSalt carries a 16-byte salt (pair-setup only).
	TypeSalt Type = 0x02

	// TypePublicKey carries a public key (Ed25519 LTPK in this layer).
	TypePublicKey Type = 0x03

	// TypeProof carries an SRP proof (pair-setup only).
	TypeProof Type = 0x04

	// TypeEncryptedData carries encrypted sub-TLV data.
	TypeEncryptedData Type = 0x05

	// TypeState carries the exchange step number (M1, M2, ...).
	TypeState Type = 0x06

	// TypeError carries an error kind byte in error responses.
	TypeError Type = 0x07

	// TypeRetryDelay carries a backoff delay in seconds.
	TypeRetryDelay Type = 0x08

	// TypeCertificate carries an X.509 certificate (MFi).
	TypeCertificate Type = 0x09

	// TypeSignature carries an Ed25519 signature.
	TypeSignature Type = 0x0A

	// TypePermissions carries a single permission byte.
	TypePermissions Type = 0x0B

	// TypeFragmentData carries a non-final fragment of fragmented data.
	TypeFragmentData Type = 0x0C

	// TypeFragmentLast carries the final fragment of fragmented data.
	TypeFragmentLast Type = 0x0D

	// TypeSeparator is a zero-length item separating logical sub-records.
	TypeSeparator Type = 0xFF
)

// Method codes for the pairing endpoints.
const (
	// MethodPairSetup initiates the pair-setup exchange.
	MethodPairSetup byte = 0x01

	// MethodPairVerify initiates the pair-verify exchange.
	MethodPairVerify byte = 0x02

	// MethodAddPairing adds or updates a pairing.
	MethodAddPairing byte = 0x03

	// MethodRemovePairing removes a pairing.
	MethodRemovePairing byte = 0x04

	// MethodListPairings lists all pairings.
	MethodListPairings byte = 0x05
)

// Item is a single TLV item: a type code and its raw value bytes.
type Item struct {
	Type  Type
	Value []byte
}

// Container is an ordered sequence of TLV items forming one message body.
type Container []Item

// State builds a state item carrying the exchange step number.
func State(step byte) Item {
	return Item{Type: TypeState, Value: []byte{step}}
}

// Method builds a method item.
func Method(method byte) Item {
	return Item{Type: TypeMethod, Value: []byte{method}}
}

// Identifier builds an identifier item from UTF-8 text.
func Identifier(id string) Item {
	return Item{Type: TypeIdentifier, Value: []byte(id)}
}

// PublicKey builds a public-key item from raw key bytes.
func PublicKey(key []byte) Item {
	return Item{Type: TypePublicKey, Value: key}
}

// Permissions builds a permissions item from a single permission byte.
func Permissions(b byte) Item {
	return Item{Type: TypePermissions, Value: []byte{b}}
}

// ErrorItem builds an error item carrying an error kind.
func ErrorItem(kind ErrorKind) Item {
	return Item{Type: TypeError, Value: []byte{byte(kind)}}
}

// Separator builds the zero-length record separator item.
func Separator() Item {
	return Item{Type: TypeSeparator}
}
