// Package wallet keeps the wallet directory of the device and simulates the
// seed reconstruction service.
package wallet

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketWallets = []byte("wallets")

const maxNameLength = 16

var (
	ErrWalletNotFound = errors.New("wallet: not found")
	ErrDuplicateName  = errors.New("wallet: name already in use")
	ErrInvalidName    = errors.New("wallet: invalid name")
)

// Wallet is one directory entry.
type Wallet struct {
	ID   [32]byte
	Name string
}

// IDHex returns the wallet id as hex.
func (w Wallet) IDHex() string { return hex.EncodeToString(w.ID[:]) }

// BoltDirectory maps wallet ids to names in a bbolt database.
type BoltDirectory struct {
	db *bolt.DB
}

// OpenDirectory opens or creates the directory database at path.
func OpenDirectory(path string) (*BoltDirectory, error) {
	if path == "" {
		return nil, fmt.Errorf("directory path required")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketWallets); err != nil {
			return fmt.Errorf("create bucket %s: %w", string(bucketWallets), err)
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltDirectory{db: db}, nil
}

func (d *BoltDirectory) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// WalletName implements signing.WalletDirectory.
func (d *BoltDirectory) WalletName(id [32]byte) (string, error) {
	var name string
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketWallets).Get(id[:])
		if v == nil {
			return fmt.Errorf("%w: %x", ErrWalletNotFound, id[:4])
		}
		name = string(v)
		return nil
	})
	return name, err
}

// AddWallet registers name under a fresh random id.
func (d *BoltDirectory) AddWallet(name string) (Wallet, error) {
	w := Wallet{Name: name}
	if _, err := rand.Read(w.ID[:]); err != nil {
		return Wallet{}, fmt.Errorf("generating wallet id: %w", err)
	}
	return w, d.PutWallet(w)
}

// PutWallet registers w. Names are unique across the directory.
func (d *BoltDirectory) PutWallet(w Wallet) error {
	if w.Name == "" || len(w.Name) > maxNameLength {
		return fmt.Errorf("%w: %q", ErrInvalidName, w.Name)
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketWallets)
		err := b.ForEach(func(k, v []byte) error {
			if string(v) == w.Name && string(k) != string(w.ID[:]) {
				return fmt.Errorf("%w: %q", ErrDuplicateName, w.Name)
			}
			return nil
		})
		if err != nil {
			return err
		}
		return b.Put(w.ID[:], []byte(w.Name))
	})
}

// ListWallets returns every wallet sorted by name.
func (d *BoltDirectory) ListWallets() ([]Wallet, error) {
	var out []Wallet
	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWallets).ForEach(func(k, v []byte) error {
			var w Wallet
			copy(w.ID[:], k)
			w.Name = string(v)
			out = append(out, w)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
