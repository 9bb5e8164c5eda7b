package security

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

// codeAlphabet excludes 0/O/1/I to keep emailed codes unambiguous
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// VerificationCodeLength is the length of emailed one-time codes
const VerificationCodeLength = 6

// GenerateVerificationCode generates a random emailed one-time code
func GenerateVerificationCode() (string, error) {
	code := make([]byte, VerificationCodeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[num.Int64()]
	}
	return string(code), nil
}

// GenerateToken generates a random opaque token for invite and action links
func GenerateToken() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
