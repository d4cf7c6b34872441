package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Method = "pbkdf2:sha256"
	saltLength   = 8
	saltChars    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// hashes written without an explicit iteration count used this value
	legacyIterations = 260000
)

// PBKDF2Iterations is the work factor for newly created hashes. It is set from configuration at boot.
var PBKDF2Iterations = 600000

// HashPassword returns a salted PBKDF2-HMAC-SHA256 hash in the form
// "pbkdf2:sha256:<iterations>$<salt>$<hex digest>".
func HashPassword(password string) (string, error) {
	salt, err := randomSalt(saltLength)
	if err != nil {
		return "", err
	}
	iterations := PBKDF2Iterations
	if iterations < 1 {
		iterations = 1
	}
	digest := pbkdf2.Key([]byte(password), []byte(salt), iterations, sha256.Size, sha256.New)
	return fmt.Sprintf("%s:%d$%s$%s", pbkdf2Method, iterations, salt, hex.EncodeToString(digest)), nil
}

// CheckPassword compares a stored hash with its possible plaintext equivalent.
// bcrypt hashes imported from other systems are accepted as well.
func CheckPassword(hash, password string) bool {
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}

	parts := strings.SplitN(hash, "$", 3)
	if len(parts) != 3 {
		return false
	}
	method, salt, want := parts[0], parts[1], parts[2]

	iterations := legacyIterations
	switch {
	case method == pbkdf2Method:
	case strings.HasPrefix(method, pbkdf2Method+":"):
		n, err := strconv.Atoi(strings.TrimPrefix(method, pbkdf2Method+":"))
		if err != nil || n < 1 {
			return false
		}
		iterations = n
	default:
		return false
	}

	expected, err := hex.DecodeString(want)
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(password), []byte(salt), iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(got, expected) == 1
}

func randomSalt(n int) (string, error) {
	var sb strings.Builder
	limit := big.NewInt(int64(len(saltChars)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate salt: %w", err)
		}
		sb.WriteByte(saltChars[idx.Int64()])
	}
	return sb.String(), nil
}
