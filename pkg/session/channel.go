package session

import (
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Channel framing constants.
const (
	// KeySize is the size of a derived channel key in bytes.
	KeySize = chacha20poly1305.KeySize

	// maxFramePlaintext is the largest plaintext carried by one frame.
	// Larger writes are split across consecutive frames.
	maxFramePlaintext = 1024
)

// Key derivation inputs for the control channel, fixed by the protocol.
var (
	controlSalt      = []byte("Control-Salt")
	controlReadInfo  = []byte("Control-Read-Encryption-Key")
	controlWriteInfo = []byte("Control-Write-Encryption-Key")
)

// Channel errors.
var (
	// ErrFrameTooLarge indicates an incoming frame announced more
	// plaintext than the protocol allows.
	ErrFrameTooLarge = errors.New("session: frame exceeds maximum size")

	// ErrDecryptFailed indicates an incoming frame failed authentication.
	ErrDecryptFailed = errors.New("session: frame decryption failed")
)

// ChannelKeys holds the directional keys of an encrypted channel.
type ChannelKeys struct {
	// Read decrypts frames arriving from the peer.
	Read [KeySize]byte

	// Write encrypts frames sent to the peer.
	Write [KeySize]byte
}

// DeriveChannelKeys derives the accessory-side control channel keys from the
// verify exchange's shared secret. The accessory reads with the controller's
// write key and writes with the controller's read key.
func DeriveChannelKeys(sharedSecret []byte) (ChannelKeys, error) {
	var keys ChannelKeys

	r := hkdf.New(sha512.New, sharedSecret, controlSalt, controlWriteInfo)
	if _, err := io.ReadFull(r, keys.Read[:]); err != nil {
		return ChannelKeys{}, fmt.Errorf("failed to derive read key: %w", err)
	}

	r = hkdf.New(sha512.New, sharedSecret, controlSalt, controlReadInfo)
	if _, err := io.ReadFull(r, keys.Write[:]); err != nil {
		return ChannelKeys{}, fmt.Errorf("failed to derive write key: %w", err)
	}

	return keys, nil
}

// Channel is an encrypted frame stream over an underlying connection.
//
// Each frame is a two-byte little-endian plaintext length, followed by the
// ChaCha20-Poly1305 ciphertext of that many bytes. The length prefix is
// authenticated as associated data. Nonces are 96 bits: four zero bytes and
// a little-endian 64-bit frame counter, kept separately per direction.
//
// A Channel is not safe for concurrent writers or concurrent readers; the
// transport serializes access per direction.
type Channel struct {
	rw io.ReadWriter

	readAEAD  cipherAEAD
	writeAEAD cipherAEAD

	readCounter  uint64
	writeCounter uint64

	// pending holds decrypted bytes not yet consumed by Read.
	pending []byte
}

type cipherAEAD interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	Overhead() int
}

// NewChannel wraps the connection in an encrypted channel using the given
// directional keys.
func NewChannel(rw io.ReadWriter, keys ChannelKeys) (*Channel, error) {
	readAEAD, err := chacha20poly1305.New(keys.Read[:])
	if err != nil {
		return nil, fmt.Errorf("failed to initialize read cipher: %w", err)
	}
	writeAEAD, err := chacha20poly1305.New(keys.Write[:])
	if err != nil {
		return nil, fmt.Errorf("failed to initialize write cipher: %w", err)
	}
	return &Channel{rw: rw, readAEAD: readAEAD, writeAEAD: writeAEAD}, nil
}

// Write encrypts p and sends it, splitting across frames as needed.
// It implements io.Writer.
func (c *Channel) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		chunk := p
		if len(chunk) > maxFramePlaintext {
			chunk = chunk[:maxFramePlaintext]
		}

		var header [2]byte
		binary.LittleEndian.PutUint16(header[:], uint16(len(chunk)))

		var nonce [chacha20poly1305.NonceSize]byte
		binary.LittleEndian.PutUint64(nonce[4:], c.writeCounter)
		c.writeCounter++

		frame := make([]byte, 2, 2+len(chunk)+c.writeAEAD.Overhead())
		copy(frame, header[:])
		frame = c.writeAEAD.Seal(frame, nonce[:], chunk, header[:])

		if _, err := c.rw.Write(frame); err != nil {
			return total, err
		}
		total += len(chunk)
		p = p[len(chunk):]
	}
	return total, nil
}

// Read decrypts the next frame when no buffered plaintext remains and
// copies as much as fits into p. It implements io.Reader.
func (c *Channel) Read(p []byte) (int, error) {
	if len(c.pending) == 0 {
		if err := c.readFrame(); err != nil {
			return 0, err
		}
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *Channel) readFrame() error {
	var header [2]byte
	if _, err := io.ReadFull(c.rw, header[:]); err != nil {
		return err
	}

	length := int(binary.LittleEndian.Uint16(header[:]))
	if length > maxFramePlaintext {
		return ErrFrameTooLarge
	}

	ciphertext := make([]byte, length+c.readAEAD.Overhead())
	if _, err := io.ReadFull(c.rw, ciphertext); err != nil {
		return err
	}

	var nonce [chacha20poly1305.NonceSize]byte
	binary.LittleEndian.PutUint64(nonce[4:], c.readCounter)

	plaintext, err := c.readAEAD.Open(nil, nonce[:], ciphertext, header[:])
	if err != nil {
		return ErrDecryptFailed
	}
	c.readCounter++

	c.pending = plaintext
	return nil
}
