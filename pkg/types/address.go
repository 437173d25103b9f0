package types

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ZeroAddress is the synthetic TokenContract address the interpreter
// bootstraps for the native asset before its per-contract cursor loop
// starts (see interpreter.EnsureNativeTokenContract).
var ZeroAddress = mustChecksum("0x0000000000000000000000000000000000000000")

// ChecksumAddress normalises a 20-byte Ethereum-style hex address into
// its EIP-55 mixed-case checksum form: each hex digit of the lowercase
// address is upper-cased iff the corresponding nibble of the Keccak-256
// hash of the lowercase address (without "0x") is >= 8. Account.Address
// and TokenContract.Address are always stored in this form, mirroring
// the original service's web3.py-based to_checksum_address.
func ChecksumAddress(address string) (string, error) {
	hex := strings.TrimPrefix(strings.TrimPrefix(address, "0x"), "0X")
	if len(hex) > 40 {
		return "", fmt.Errorf("types: address %q longer than 20 bytes", address)
	}
	hex = strings.Repeat("0", 40-len(hex)) + strings.ToLower(hex)
	for _, r := range hex {
		if !isHexDigit(r) {
			return "", fmt.Errorf("types: address %q is not hexadecimal", address)
		}
	}

	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(hex))
	digest := hash.Sum(nil)

	out := make([]byte, 42)
	out[0], out[1] = '0', 'x'
	for i := 0; i < 40; i++ {
		c := hex[i]
		if c >= '0' && c <= '9' {
			out[i+2] = c
			continue
		}
		// digest byte i/2 holds nibbles for characters 2*k and 2*k+1;
		// the high nibble governs the even character.
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		nibble &= 0xf
		if nibble >= 8 {
			out[i+2] = c - 'a' + 'A'
		} else {
			out[i+2] = c
		}
	}
	return string(out), nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
}

func mustChecksum(address string) string {
	checksummed, err := ChecksumAddress(address)
	if err != nil {
		panic(err)
	}
	return checksummed
}
