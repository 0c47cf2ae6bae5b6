// Package nameservice reads a folder of key files and creates a name
// service lookup for the public keys they hold.
package nameservice

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// NameService maintains a map of public keys for name lookup.
type NameService struct {
	keys map[signature.PublicKey]string
}

// New constructs a name service with the keys found in the folder. Private
// keys are stored as <name>.ecdsa and public keys as <name>.pub.
func New(root string) (*NameService, error) {
	ns := NameService{
		keys: make(map[signature.PublicKey]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		var pk signature.PublicKey
		switch path.Ext(fileName) {
		case ".ecdsa":
			privateKey, err := crypto.LoadECDSA(fileName)
			if err != nil {
				return err
			}
			pk = signature.PublicKeyFromECDSA(privateKey.PublicKey)

		case ".pub":
			pk, err = signature.LoadPublicKeyFile(fileName)
			if err != nil {
				return err
			}

		default:
			return nil
		}

		ns.keys[pk] = strings.TrimSuffix(path.Base(fileName), path.Ext(fileName))

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified public key.
func (ns *NameService) Lookup(pk signature.PublicKey) string {
	name, exists := ns.keys[pk]
	if !exists {
		return pk.String()
	}
	return name
}

// Copy returns a copy of the map of names and public keys.
func (ns *NameService) Copy() map[signature.PublicKey]string {
	cpy := make(map[signature.PublicKey]string, len(ns.keys))
	for pk, name := range ns.keys {
		cpy[pk] = name
	}
	return cpy
}
