package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Единственное место, где хэшируется PIN.
// Формат хранения: 'salt_hex$hash_hex' (PBKDF2-HMAC-SHA256).
// Легаси-формат — голый SHA-256 hex без '$' — распознаётся структурно
// и принимается прозрачно; повторного ввода у оператора не просим.

const (
	pinIterations = 260_000
	saltBytes     = 16
)

// HashPIN возвращает 'salt_hex$hash_hex' со случайной солью.
func HashPIN(pin string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("генерация соли: %w", err)
	}
	dk := pbkdf2.Key([]byte(pin), salt, pinIterations, sha256.Size, sha256.New)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(dk), nil
}

// VerifyPIN сверяет PIN со значением из настроек.
// legacy=true — совпал хэш старого формата, значение стоит перезаписать
// при следующей смене PIN.
func VerifyPIN(pin, stored string) (ok, legacy bool) {
	if stored == "" {
		return false, false
	}
	if !strings.Contains(stored, "$") {
		// легаси: голый SHA-256, сравнение за постоянное время
		sum := sha256.Sum256([]byte(pin))
		got := hex.EncodeToString(sum[:])
		ok = subtle.ConstantTimeCompare([]byte(got), []byte(stored)) == 1
		return ok, ok
	}

	saltHex, hashHex, _ := strings.Cut(stored, "$")
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false, false
	}
	dk := pbkdf2.Key([]byte(pin), salt, pinIterations, sha256.Size, sha256.New)
	ok = subtle.ConstantTimeCompare([]byte(hex.EncodeToString(dk)), []byte(hashHex)) == 1
	return ok, false
}
