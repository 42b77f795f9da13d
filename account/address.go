package account

import (
	"fmt"

	"github.com/stellar/go-stellar-sdk/strkey"
)

// ValidateAddress checks that address is a well-formed public account
// address (a "G..." strkey). Both ledgers share the address format.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	if _, err := strkey.Decode(strkey.VersionByteAccountID, address); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidAddress, address, err)
	}
	return nil
}
