package wallet

import (
	"fmt"
	"math"
)

// MetachainID identifies the metachain, which never hosts user accounts.
const MetachainID uint32 = 4294967295

// AddressComputer derives the shard of an address from its public key,
// mirroring the chain's addressing rule: the last byte of the public key is
// masked down to the shard count.
type AddressComputer struct {
	numShards uint32
	maskHigh  byte
	maskLow   byte
}

// NewAddressComputer builds a computer for the given shard count.
func NewAddressComputer(numShards uint32) (*AddressComputer, error) {
	if numShards == 0 {
		return nil, fmt.Errorf("shard count must be positive")
	}

	c := &AddressComputer{numShards: numShards}
	if numShards > 1 {
		n := uint(math.Ceil(math.Log2(float64(numShards))))
		c.maskHigh = byte(1<<n - 1)
		c.maskLow = byte(1<<(n-1) - 1)
	}
	return c, nil
}

// NumShards returns the configured shard count.
func (c *AddressComputer) NumShards() uint32 {
	return c.numShards
}

// Shard returns the shard hosting the given address.
func (c *AddressComputer) Shard(addr Address) uint32 {
	pubkey := addr.Pubkey()
	if isMetachainPubkey(pubkey) {
		return MetachainID
	}
	if c.numShards == 1 {
		return 0
	}

	last := pubkey[len(pubkey)-1]
	shard := uint32(last & c.maskHigh)
	if shard > c.numShards-1 {
		shard = uint32(last & c.maskLow)
	}
	return shard
}

// metachainPrefixLen is the zero-byte prefix marking the metachain address
// space: system contracts carry nine zero bytes before their VM type byte,
// while user-deployed contracts have a non-zero VM type at byte eight.
const metachainPrefixLen = 9

func isMetachainPubkey(pubkey []byte) bool {
	for _, b := range pubkey[:metachainPrefixLen] {
		if b != 0 {
			return false
		}
	}
	return true
}
