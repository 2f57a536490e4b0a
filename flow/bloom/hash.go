package bloom

import (
	"encoding/binary"
	"hash/maphash"
	"math"

	"github.com/cespare/xxhash/v2"
)

// seed is fixed per process; filters are never persisted.
var seed = maphash.MakeSeed()

// Hash is the default Hasher. Strings, integers, floats and booleans are
// hashed from their bytes with xxhash. Any other comparable value goes
// through maphash.Comparable, which agrees with == (for instance on 0 and
// -0 inside a struct).
func Hash[V comparable](v V) uint64 {
	var buf [8]byte
	switch x := any(v).(type) {
	case string:
		return xxhash.Sum64String(x)
	case int:
		binary.LittleEndian.PutUint64(buf[:], uint64(x))
	case int8:
		binary.LittleEndian.PutUint64(buf[:], uint64(x))
	case int16:
		binary.LittleEndian.PutUint64(buf[:], uint64(x))
	case int32:
		binary.LittleEndian.PutUint64(buf[:], uint64(x))
	case int64:
		binary.LittleEndian.PutUint64(buf[:], uint64(x))
	case uint:
		binary.LittleEndian.PutUint64(buf[:], uint64(x))
	case uint8:
		binary.LittleEndian.PutUint64(buf[:], uint64(x))
	case uint16:
		binary.LittleEndian.PutUint64(buf[:], uint64(x))
	case uint32:
		binary.LittleEndian.PutUint64(buf[:], uint64(x))
	case uint64:
		binary.LittleEndian.PutUint64(buf[:], x)
	case uintptr:
		binary.LittleEndian.PutUint64(buf[:], uint64(x))
	case float32:
		binary.LittleEndian.PutUint64(buf[:], floatBits(float64(x)))
	case float64:
		binary.LittleEndian.PutUint64(buf[:], floatBits(x))
	case bool:
		if x {
			buf[0] = 1
		}
	default:
		return maphash.Comparable(seed, v)
	}
	return xxhash.Sum64(buf[:])
}

// floatBits normalizes -0 to 0 so that values comparing equal hash equally.
func floatBits(f float64) uint64 {
	if f == 0 {
		return 0
	}
	return math.Float64bits(f)
}
