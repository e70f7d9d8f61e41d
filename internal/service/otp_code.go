package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	mrand "math/rand"

	"golang.org/x/crypto/blake2b"
)

const (
	otpCodeMin = 100000
	otpCodeMax = 999999
)

// GenerateOTPCode возвращает шестизначный код из диапазона 100000–999999.
func GenerateOTPCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(otpCodeMax-otpCodeMin+1))
	if err != nil {
		return fmt.Sprintf("%06d", otpCodeMin+mrand.Intn(otpCodeMax-otpCodeMin+1))
	}
	return fmt.Sprintf("%06d", otpCodeMin+n.Int64())
}

// CodeHasher считает ключевой BLAKE2b-дайджест кода. В базе лежит только дайджест.
type CodeHasher struct {
	key [32]byte
}

func NewCodeHasher(pepper string) *CodeHasher {
	return &CodeHasher{key: blake2b.Sum256([]byte(pepper))}
}

func (h *CodeHasher) Hash(email, code string) string {
	mac, err := blake2b.New256(h.key[:])
	if err != nil {
		// ключ всегда 32 байта
		panic(err)
	}
	mac.Write([]byte(email))
	mac.Write([]byte{0})
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}
