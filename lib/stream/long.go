package stream

import (
	"math"
)

// --------------------------------------------------------------------------
// Base-64 long codec (stream versions >= 6)
// --------------------------------------------------------------------------

// longDigits is the alphabet of the long codec, each digit carries 6 bits
const longDigits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789$_"

// maxLongDigits is the number of digits needed for 64 bits (ceil(64/6))
const maxLongDigits = 11

var longDigitValues = func() [256]int8 {
	var table [256]int8
	for i := range table {
		table[i] = -1
	}
	for i := 0; i < len(longDigits); i++ {
		table[longDigits[i]] = int8(i)
	}
	return table
}()

// EncodeLong encodes the two's complement bits of v as base-64 digits, most
// significant digit first and without leading zero digits. Zero is "A".
// The encoding never relies on 64 bit arithmetic of the decoder, a consumer
// with only 32 bit integers can decode it digit by digit into two halves.
func EncodeLong(v int64) string {
	u := uint64(v)
	if u == 0 {
		return longDigits[:1]
	}

	var buf [maxLongDigits]byte
	pos := len(buf)
	for u != 0 {
		pos--
		buf[pos] = longDigits[u&0x3f]
		u >>= 6
	}
	return string(buf[pos:])
}

// DecodeLong inverts EncodeLong. It returns a *NumericRangeError for empty
// tokens, unknown digits and values exceeding 64 bits.
func DecodeLong(token string) (int64, error) {
	if token == "" || len(token) > maxLongDigits {
		return 0, &NumericRangeError{Token: token, Kind: "long"}
	}

	var u uint64
	for i := 0; i < len(token); i++ {
		d := longDigitValues[token[i]]
		if d < 0 {
			return 0, &NumericRangeError{Token: token, Kind: "long"}
		}
		// the next shift would drop set bits
		if u>>58 != 0 {
			return 0, &NumericRangeError{Token: token, Kind: "long"}
		}
		u = u<<6 | uint64(d)
	}
	return int64(u), nil
}

// --------------------------------------------------------------------------
// Double pair long codec (stream version 5)
// --------------------------------------------------------------------------

const twoPow32 = 4294967296.0

// SplitLong splits v into a high and a low part that are both exactly
// representable as IEEE-754 doubles. high is a multiple of 2^32, low is the
// unsigned value of the lower 32 bits.
func SplitLong(v int64) (high, low float64) {
	return float64(v>>32) * twoPow32, float64(uint32(v))
}

// JoinLong inverts SplitLong. Values that SplitLong cannot produce are
// rejected with a *NumericRangeError instead of being rounded.
func JoinLong(high, low float64) (int64, error) {
	if math.IsNaN(low) || math.IsInf(low, 0) || low < 0 || low >= twoPow32 || low != math.Trunc(low) {
		return 0, &NumericRangeError{Token: formatDouble(low), Kind: "long (low part)"}
	}

	h := high / twoPow32
	if math.IsNaN(h) || math.IsInf(h, 0) || h != math.Trunc(h) || h < math.MinInt32 || h > math.MaxInt32 {
		return 0, &NumericRangeError{Token: formatDouble(high), Kind: "long (high part)"}
	}

	return int64(h)<<32 | int64(uint32(low)), nil
}
