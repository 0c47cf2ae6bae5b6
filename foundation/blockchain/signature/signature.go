// Package signature provides helper functions for handling the blockchain
// signature needs.
package signature

import (
	"bufio"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Key and signature sizes in bytes.
const (
	PublicKeyLength = 33
	SignatureLength = crypto.SignatureLength
)

// Verifier represents the behavior required to check that a signature over
// a message digest was produced by the owner of a public key.
type Verifier interface {
	Verify(message digest.Digest, sig Signature, owner PublicKey) bool
}

// Signer represents the behavior required to sign message digests.
type Signer interface {
	Sign(message digest.Digest) (Signature, error)
	PublicKey() PublicKey
}

// =============================================================================

// PublicKey is the compressed form of a secp256k1 public key.
type PublicKey [PublicKeyLength]byte

// PublicKeyFromECDSA converts an ecdsa public key into its compressed form.
func PublicKeyFromECDSA(pk ecdsa.PublicKey) PublicKey {
	var pub PublicKey
	copy(pub[:], crypto.CompressPubkey(&pk))
	return pub
}

// ToPublicKey converts a hex encoded compressed key into a public key.
func ToPublicKey(hex string) (PublicKey, error) {
	var pub PublicKey
	if err := pub.UnmarshalText([]byte(hex)); err != nil {
		return PublicKey{}, err
	}
	return pub, nil
}

// ECDSA decompresses the key.
func (pk PublicKey) ECDSA() (*ecdsa.PublicKey, error) {
	return crypto.DecompressPubkey(pk[:])
}

// String implements the fmt.Stringer interface.
func (pk PublicKey) String() string {
	return hexutil.Encode(pk[:])
}

// MarshalText implements encoding.TextMarshaler.
func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The key must be a valid
// point on the curve.
func (pk *PublicKey) UnmarshalText(text []byte) error {
	b, err := hexutil.Decode(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}

	if len(b) != PublicKeyLength {
		return fmt.Errorf("invalid public key length, got %d, exp %d", len(b), PublicKeyLength)
	}

	if _, err := crypto.DecompressPubkey(b); err != nil {
		return fmt.Errorf("invalid public key: %w", err)
	}

	copy(pk[:], b)
	return nil
}

// Save writes the public key to the writer as a hex encoded line.
func (pk PublicKey) Save(w io.Writer) error {
	_, err := fmt.Fprintln(w, pk.String())
	return err
}

// LoadPublicKey reads a public key written by Save.
func LoadPublicKey(r io.Reader) (PublicKey, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return PublicKey{}, err
	}

	return ToPublicKey(line)
}

// SavePublicKeyFile writes the public key to the named file.
func SavePublicKeyFile(path string, pk PublicKey) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	return pk.Save(f)
}

// LoadPublicKeyFile reads the public key from the named file.
func LoadPublicKeyFile(path string) (PublicKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return PublicKey{}, err
	}
	defer f.Close()

	return LoadPublicKey(f)
}

// =============================================================================

// Signature is a secp256k1 signature in the [R|S|V] format.
type Signature [SignatureLength]byte

// String implements the fmt.Stringer interface.
func (sig Signature) String() string {
	return hexutil.Encode(sig[:])
}

// MarshalText implements encoding.TextMarshaler.
func (sig Signature) MarshalText() ([]byte, error) {
	return []byte(sig.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (sig *Signature) UnmarshalText(text []byte) error {
	b, err := hexutil.Decode(string(text))
	if err != nil {
		return err
	}

	if len(b) != SignatureLength {
		return fmt.Errorf("invalid signature length, got %d, exp %d", len(b), SignatureLength)
	}

	copy(sig[:], b)
	return nil
}

// =============================================================================

// Sign uses the specified private key to sign the message digest.
func Sign(message digest.Digest, privateKey *ecdsa.PrivateKey) (Signature, error) {
	data := stamp(message)

	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return Signature{}, err
	}

	// Check the public key extracted from the data and signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return Signature{}, err
	}

	if !crypto.VerifySignature(crypto.CompressPubkey(publicKey), data, sig[:crypto.RecoveryIDOffset]) {
		return Signature{}, errors.New("invalid signature")
	}

	var s Signature
	copy(s[:], sig)

	return s, nil
}

// Verify checks the signature over the message digest was produced by the
// private key that belongs to the owner.
func Verify(message digest.Digest, sig Signature, owner PublicKey) bool {
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(sig[crypto.RecoveryIDOffset], r, s, true) {
		return false
	}

	return crypto.VerifySignature(owner[:], stamp(message), sig[:crypto.RecoveryIDOffset])
}

// =============================================================================

// ECDSA implements the Verifier interface using secp256k1.
type ECDSA struct{}

// Verify implements the Verifier interface.
func (ECDSA) Verify(message digest.Digest, sig Signature, owner PublicKey) bool {
	return Verify(message, sig, owner)
}

// KeySigner implements the Signer interface for a private key.
type KeySigner struct {
	key *ecdsa.PrivateKey
}

// NewKeySigner constructs a signer for the private key.
func NewKeySigner(privateKey *ecdsa.PrivateKey) KeySigner {
	return KeySigner{key: privateKey}
}

// Sign implements the Signer interface.
func (ks KeySigner) Sign(message digest.Digest) (Signature, error) {
	return Sign(message, ks.key)
}

// PublicKey implements the Signer interface.
func (ks KeySigner) PublicKey() PublicKey {
	return PublicKeyFromECDSA(ks.key.PublicKey)
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents the message with the
// ledger stamp embedded into the final hash.
func stamp(message digest.Digest) []byte {

	// This stamp is used so signatures we produce when signing data
	// are always unique to this blockchain.
	stamp := []byte("\x19UTXO Signed Message:\n32")

	return crypto.Keccak256(stamp, message[:])
}
