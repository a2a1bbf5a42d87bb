package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	BackupCodeCount = 10
	totpPeriod      = 30
	totpSkew        = 1
)

var backupEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// TOTPKey - секрет и otpauth:// URL для QR-кода
type TOTPKey struct {
	Secret string
	URL    string
}

func GenerateTOTP(issuer, account string) (TOTPKey, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return TOTPKey{}, fmt.Errorf("generate totp: %w", err)
	}
	return TOTPKey{Secret: key.Secret(), URL: key.URL()}, nil
}

// MatchTOTP возвращает номер шага, которому соответствует код.
// Допускается расхождение часов на один шаг в обе стороны
func MatchTOTP(code, secret string, now time.Time) (int64, bool) {
	code = strings.ReplaceAll(strings.TrimSpace(code), " ", "")
	if code == "" || secret == "" {
		return 0, false
	}

	opts := totp.ValidateOpts{
		Period:    totpPeriod,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
	current := now.Unix() / totpPeriod
	for step := current - totpSkew; step <= current+totpSkew; step++ {
		expected, err := totp.GenerateCodeCustom(secret, time.Unix(step*totpPeriod, 0).UTC(), opts)
		if err != nil {
			return 0, false
		}
		if subtle.ConstantTimeCompare([]byte(code), []byte(expected)) == 1 {
			return step, true
		}
	}
	return 0, false
}

// GenerateBackupCodes возвращает коды вида "abcd-efgh" и их хэши
func GenerateBackupCodes(n int) (codes []string, hashes []string, err error) {
	codes = make([]string, 0, n)
	hashes = make([]string, 0, n)
	for range n {
		buf := make([]byte, 5)
		if _, err := rand.Read(buf); err != nil {
			return nil, nil, fmt.Errorf("generate backup code: %w", err)
		}
		raw := strings.ToLower(backupEncoding.EncodeToString(buf))
		codes = append(codes, raw[:4]+"-"+raw[4:])
		hashes = append(hashes, HashBackupCode(raw))
	}
	return codes, hashes, nil
}

func NormalizeBackupCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	code = strings.ReplaceAll(code, "-", "")
	return strings.ReplaceAll(code, " ", "")
}

func HashBackupCode(code string) string {
	return HashToken(NormalizeBackupCode(code))
}

// LooksLikeBackupCode отличает резервный код от шестизначного TOTP
func LooksLikeBackupCode(code string) bool {
	return len(NormalizeBackupCode(code)) == 8
}
