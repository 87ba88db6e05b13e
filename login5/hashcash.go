package login5

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"math/bits"
)

// SolveHashcash searches for a 16 byte suffix such that SHA1(prefix ||
// suffix) ends in at least length zero bits. The search is unbounded; only
// ctx stops it.
func SolveHashcash(ctx context.Context, loginContext, prefix []byte, length int32) ([]byte, error) {
	sum := sha1.Sum(loginContext)
	target := binary.BigEndian.Uint64(sum[12:20])

	input := make([]byte, len(prefix)+16)
	copy(input, prefix)
	suffix := input[len(prefix):]

	for counter := uint64(0); ; counter++ {
		if counter&0xffff == 0xffff {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		binary.BigEndian.PutUint64(suffix[0:8], target+counter)
		binary.BigEndian.PutUint64(suffix[8:16], counter)

		hash := sha1.Sum(input)
		if bits.TrailingZeros64(binary.BigEndian.Uint64(hash[12:20])) >= int(length) {
			return append([]byte(nil), suffix...), nil
		}
	}
}
