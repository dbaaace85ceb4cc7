// Package urlgen derives short codes for the URL shortener service.
package urlgen

// charset defines the Base62 alphabet used for short codes: digits, then uppercase, then lowercase.
const charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// MaxCodeLength is the maximum length of a generated short code.
const MaxCodeLength = 7

const djb2Seed uint64 = 5381

// Hash maps url to a short code of at most MaxCodeLength Base62 characters.
// The djb2 accumulator wraps around at 64 bits. Only the low-order
// MaxCodeLength digits of the hash are kept and no zero padding is added,
// so short inputs can produce codes shorter than MaxCodeLength.
func Hash(url []byte) string {
	h := djb2Seed
	for _, b := range url {
		h = h*33 + uint64(b)
	}
	return encode(h)
}

// HashString is Hash for string input.
func HashString(url string) string {
	return Hash([]byte(url))
}

func encode(n uint64) string {
	var buf [MaxCodeLength]byte
	i := len(buf)
	for n > 0 && i > 0 {
		i--
		buf[i] = charset[n%62]
		n /= 62
	}
	if i == len(buf) {
		return charset[:1]
	}
	return string(buf[i:])
}

// IsValid reports whether code could have been produced by Hash.
func IsValid(code string) bool {
	if code == "" || len(code) > MaxCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= '0' && c <= '9') && !(c >= 'A' && c <= 'Z') && !(c >= 'a' && c <= 'z') {
			return false
		}
	}
	return true
}
