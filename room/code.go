// room/code.go
package room

import (
	"crypto/rand"
	"errors"
	"strings"
)

// codeAlphabet is the fixed alphabet for room codes. 36^6 possible codes;
// collisions are accepted as negligible, the conditional create in the store
// catches the unlucky case.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeLength is the fixed room code length, used as join token and store key.
const CodeLength = 6

// ErrInvalidCode is returned for join tokens that cannot be a room code.
var ErrInvalidCode = errors.New("room code must be 6 letters or digits")

// maxUniformByte is the largest byte value usable without modulo bias:
// the greatest multiple of len(codeAlphabet) at most 256, exclusive.
const maxUniformByte = 256 / len(codeAlphabet) * len(codeAlphabet)

// GenerateCode returns a fresh random 6-character room code. Characters are
// drawn uniformly: bytes past the last full multiple of the alphabet size are
// rejected and redrawn.
func GenerateCode() string {
	code := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength)
	for len(code) < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			panic("room: reading random bytes: " + err.Error())
		}
		for _, b := range buf {
			if int(b) >= maxUniformByte {
				continue
			}
			code = append(code, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(code) == CodeLength {
				break
			}
		}
	}
	return string(code)
}

// NormalizeCode upper-cases user input so codes compare case-insensitively.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCode normalizes and checks a user-entered join token.
func ValidateCode(code string) (string, error) {
	normalized := NormalizeCode(code)
	if len(normalized) != CodeLength {
		return "", ErrInvalidCode
	}
	for _, c := range normalized {
		if !strings.ContainsRune(codeAlphabet, c) {
			return "", ErrInvalidCode
		}
	}
	return normalized, nil
}
