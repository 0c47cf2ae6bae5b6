package signature_test

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	pkHexKey    = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	otherHexKey = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}
	owner := signature.PublicKeyFromECDSA(pk.PublicKey)

	message := digest.Hash("utxo")

	sig, err := signature.Sign(message, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if !signature.Verify(message, sig, owner) {
		t.Fatalf("Should be able to verify the signature.")
	}

	if !(signature.ECDSA{}).Verify(message, sig, owner) {
		t.Fatalf("Should be able to verify the signature with the verifier.")
	}

	if signature.Verify(digest.Hash("other"), sig, owner) {
		t.Fatalf("Should not verify the signature for a different message.")
	}

	other, err := crypto.HexToECDSA(otherHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	if signature.Verify(message, sig, signature.PublicKeyFromECDSA(other.PublicKey)) {
		t.Fatalf("Should not verify the signature for a different owner.")
	}

	sig[10] ^= 0xff
	if signature.Verify(message, sig, owner) {
		t.Fatalf("Should not verify a corrupted signature.")
	}
}

func Test_KeySigner(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	var signer signature.Signer = signature.NewKeySigner(pk)
	message := digest.Hash("kiosk")

	sig, err := signer.Sign(message)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if !signature.Verify(message, sig, signer.PublicKey()) {
		t.Fatalf("Should be able to verify with the signer's public key.")
	}
}

func Test_PublicKeyEncoding(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}
	owner := signature.PublicKeyFromECDSA(pk.PublicKey)

	var buf bytes.Buffer
	if err := owner.Save(&buf); err != nil {
		t.Fatalf("Should be able to save the public key: %s", err)
	}

	got, err := signature.LoadPublicKey(&buf)
	if err != nil {
		t.Fatalf("Should be able to load the public key: %s", err)
	}

	if got != owner {
		t.Logf("got: %s", got)
		t.Logf("exp: %s", owner)
		t.Fatalf("Should get back the same public key.")
	}

	data, err := json.Marshal(owner)
	if err != nil {
		t.Fatalf("Should be able to marshal the public key: %s", err)
	}

	var fromJSON signature.PublicKey
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatalf("Should be able to unmarshal the public key: %s", err)
	}

	if fromJSON != owner {
		t.Fatalf("Should get back the same public key from json.")
	}

	if _, err := signature.ToPublicKey("0x1234"); err == nil {
		t.Fatalf("Should not accept a short public key.")
	}

	ecdsaKey, err := owner.ECDSA()
	if err != nil {
		t.Fatalf("Should be able to decompress the public key: %s", err)
	}

	if ecdsaKey.X.Cmp(pk.PublicKey.X) != 0 || ecdsaKey.Y.Cmp(pk.PublicKey.Y) != 0 {
		t.Fatalf("Should get back the original ecdsa public key.")
	}
}

func Test_PublicKeyFile(t *testing.T) {
	pk, err := crypto.HexToECDSA(otherHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}
	owner := signature.PublicKeyFromECDSA(pk.PublicKey)

	path := filepath.Join(t.TempDir(), "miner.pub")
	if err := signature.SavePublicKeyFile(path, owner); err != nil {
		t.Fatalf("Should be able to save the public key file: %s", err)
	}

	got, err := signature.LoadPublicKeyFile(path)
	if err != nil {
		t.Fatalf("Should be able to load the public key file: %s", err)
	}

	if got != owner {
		t.Fatalf("Should get back the same public key from the file.")
	}
}
