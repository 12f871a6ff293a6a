package wallet

import (
	"bytes"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/fsutil"
)

var (
	// ErrCredentialNotFound means the credential file does not exist.
	ErrCredentialNotFound = errors.New("credential file not found")
	// ErrCredentialInvalid means the credential file exists but holds
	// malformed key material.
	ErrCredentialInvalid = errors.New("credential file invalid")
)

const pemTypePrefix = "PRIVATE KEY for "

// SavePEM writes the secret key in the chain's PEM export format: a block
// labeled with the bech32 address whose body is the base64 of the ASCII-hex
// secret and public key concatenation.
func SavePEM(path string, sk SecretKey) error {
	pub, err := sk.PublicKey()
	if err != nil {
		return err
	}
	addr, err := NewAddress(pub)
	if err != nil {
		return err
	}

	payload := hex.EncodeToString(sk) + hex.EncodeToString(pub)
	block := &pem.Block{
		Type:  pemTypePrefix + addr.Bech32(),
		Bytes: []byte(payload),
	}

	if err := fsutil.WriteFileAtomic(path, pem.EncodeToMemory(block), 0o600); err != nil {
		return fmt.Errorf("write pem file: %w", err)
	}
	return nil
}

// LoadPEM reads a credential file and returns the secret key and its address.
// Returns ErrCredentialNotFound when the file is missing and
// ErrCredentialInvalid when the key material cannot be parsed.
func LoadPEM(path string) (SecretKey, Address, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Address{}, fmt.Errorf("%w: %s", ErrCredentialNotFound, path)
		}
		return nil, Address{}, fmt.Errorf("read credential %s: %w", path, err)
	}

	block, _ := pem.Decode(data)
	if block == nil || !strings.HasPrefix(block.Type, pemTypePrefix) {
		return nil, Address{}, fmt.Errorf("%w: %s holds no private key block", ErrCredentialInvalid, path)
	}

	raw := make([]byte, hex.DecodedLen(len(block.Bytes)))
	n, err := hex.Decode(raw, block.Bytes)
	if err != nil {
		return nil, Address{}, fmt.Errorf("%w: %s: %v", ErrCredentialInvalid, path, err)
	}
	raw = raw[:n]

	if len(raw) != SecretKeyLen && len(raw) != SecretKeyLen+PublicKeyLen {
		return nil, Address{}, fmt.Errorf("%w: %s holds %d key bytes", ErrCredentialInvalid, path, len(raw))
	}

	sk := SecretKey(append([]byte(nil), raw[:SecretKeyLen]...))
	pub, err := sk.PublicKey()
	if err != nil {
		return nil, Address{}, fmt.Errorf("%w: %v", ErrCredentialInvalid, err)
	}
	if len(raw) == SecretKeyLen+PublicKeyLen && !bytes.Equal(raw[SecretKeyLen:], pub) {
		return nil, Address{}, fmt.Errorf("%w: %s public key does not match its secret key", ErrCredentialInvalid, path)
	}

	addr, err := NewAddress(pub)
	if err != nil {
		return nil, Address{}, fmt.Errorf("%w: %v", ErrCredentialInvalid, err)
	}
	return sk, addr, nil
}
