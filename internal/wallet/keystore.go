package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"

	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/fsutil"
)

// Keystore format constants for the chain's encrypted JSON wallet (v4).
const (
	keystoreVersion = 4
	keystoreKind    = "secretKey"
	keystoreCipher  = "aes-128-ctr"
	keystoreKDF     = "scrypt"

	scryptN     = 4096
	scryptR     = 8
	scryptP     = 1
	scryptDKLen = 32

	saltLen = 32
	ivLen   = 16
)

type keystoreFile struct {
	Version int            `json:"version"`
	Kind    string         `json:"kind"`
	ID      string         `json:"id"`
	Address string         `json:"address"`
	Bech32  string         `json:"bech32"`
	Crypto  keystoreCrypto `json:"crypto"`
}

type keystoreCrypto struct {
	Ciphertext   string             `json:"ciphertext"`
	CipherParams keystoreCipherArgs `json:"cipherparams"`
	Cipher       string             `json:"cipher"`
	KDF          string             `json:"kdf"`
	KDFParams    keystoreKDFArgs    `json:"kdfparams"`
	MAC          string             `json:"mac"`
}

type keystoreCipherArgs struct {
	IV string `json:"iv"`
}

type keystoreKDFArgs struct {
	DKLen int    `json:"dklen"`
	Salt  string `json:"salt"`
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
}

// SaveKeystore writes the secret key as an encrypted v4 keystore file.
func SaveKeystore(path string, sk SecretKey, password string) error {
	addr, err := sk.Address()
	if err != nil {
		return err
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("read randomness: %w", err)
	}
	iv := make([]byte, ivLen)
	if _, err := rand.Read(iv); err != nil {
		return fmt.Errorf("read randomness: %w", err)
	}

	derived, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptDKLen)
	if err != nil {
		return fmt.Errorf("derive keystore key: %w", err)
	}

	block, err := aes.NewCipher(derived[:16])
	if err != nil {
		return fmt.Errorf("init cipher: %w", err)
	}
	ciphertext := make([]byte, len(sk))
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, sk)

	mac := hmac.New(sha256.New, derived[16:32])
	mac.Write(ciphertext)

	ks := keystoreFile{
		Version: keystoreVersion,
		Kind:    keystoreKind,
		ID:      uuid.NewString(),
		Address: addr.Hex(),
		Bech32:  addr.Bech32(),
		Crypto: keystoreCrypto{
			Ciphertext:   hex.EncodeToString(ciphertext),
			CipherParams: keystoreCipherArgs{IV: hex.EncodeToString(iv)},
			Cipher:       keystoreCipher,
			KDF:          keystoreKDF,
			KDFParams: keystoreKDFArgs{
				DKLen: scryptDKLen,
				Salt:  hex.EncodeToString(salt),
				N:     scryptN,
				R:     scryptR,
				P:     scryptP,
			},
			MAC: hex.EncodeToString(mac.Sum(nil)),
		},
	}

	data, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal keystore: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o600); err != nil {
		return fmt.Errorf("write keystore: %w", err)
	}
	return nil
}

// LoadKeystore decrypts a v4 keystore file with the given password.
func LoadKeystore(path, password string) (SecretKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}

	var ks keystoreFile
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, fmt.Errorf("parse keystore: %w", err)
	}
	if ks.Version != keystoreVersion || ks.Kind != keystoreKind {
		return nil, fmt.Errorf("unsupported keystore version %d kind %q", ks.Version, ks.Kind)
	}
	if ks.Crypto.Cipher != keystoreCipher || ks.Crypto.KDF != keystoreKDF {
		return nil, fmt.Errorf("unsupported keystore cipher %q kdf %q", ks.Crypto.Cipher, ks.Crypto.KDF)
	}

	salt, err := hex.DecodeString(ks.Crypto.KDFParams.Salt)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	iv, err := hex.DecodeString(ks.Crypto.CipherParams.IV)
	if err != nil {
		return nil, fmt.Errorf("decode iv: %w", err)
	}
	ciphertext, err := hex.DecodeString(ks.Crypto.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}

	params := ks.Crypto.KDFParams
	derived, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, params.DKLen)
	if err != nil {
		return nil, fmt.Errorf("derive keystore key: %w", err)
	}

	mac := hmac.New(sha256.New, derived[16:32])
	mac.Write(ciphertext)
	expected, err := hex.DecodeString(ks.Crypto.MAC)
	if err != nil {
		return nil, fmt.Errorf("decode mac: %w", err)
	}
	if !hmac.Equal(mac.Sum(nil), expected) {
		return nil, fmt.Errorf("keystore mac mismatch, wrong password or corrupted file")
	}

	block, err := aes.NewCipher(derived[:16])
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	secret := make([]byte, len(ciphertext))
	cipher.NewCTR(block, iv).XORKeyStream(secret, ciphertext)

	return SecretKey(secret), nil
}
