package btc

import (
	"errors"
	"fmt"
	"slices"

	"github.com/suffix-labs/signcore/pkg/crypto"
)

// Purposes accepted for account paths.
const (
	PurposeLegacy       = 44
	PurposeNestedSegwit = 49
	PurposeNativeSegwit = 84
)

// ChangeChain is the BIP44 change branch; 0 is the receive branch.
const ChangeChain = 1

var ErrInvalidPath = errors.New("btc: invalid derivation path")

// CheckAccountPath accepts m/purpose'/coin'/account' and
// m/purpose'/coin'/account'/change/index for the coin type of c.
func (c Coin) CheckAccountPath(path []uint32) error {
	if len(path) != 3 && len(path) != 5 {
		return fmt.Errorf("%w: depth %d", ErrInvalidPath, len(path))
	}

	if !slices.ContainsFunc(c.purposes(), func(p uint32) bool { return path[0] == crypto.Hardened(p) }) {
		return fmt.Errorf("%w: unsupported purpose %s for %s", ErrInvalidPath, crypto.FormatPath(path[:1]), c.Name)
	}
	if path[1] != crypto.Hardened(c.CoinType) {
		return fmt.Errorf("%w: coin type must be %d'", ErrInvalidPath, c.CoinType)
	}
	if !crypto.IsHardened(path[2]) {
		return fmt.Errorf("%w: account must be hardened", ErrInvalidPath)
	}
	if len(path) == 5 {
		return CheckAddressLevels(path[3], path[4])
	}
	return nil
}

// CheckAddressLevels validates the change and address index below an
// account.
func CheckAddressLevels(change, index uint32) error {
	if change > ChangeChain {
		return fmt.Errorf("%w: change level %d", ErrInvalidPath, change)
	}
	if crypto.IsHardened(index) {
		return fmt.Errorf("%w: address index must not be hardened", ErrInvalidPath)
	}
	return nil
}

// AddressPath appends change and index to an account path.
func AddressPath(account []uint32, change, index uint32) []uint32 {
	path := make([]uint32, 0, len(account)+2)
	path = append(path, account[:3]...)
	return append(path, change, index)
}
