package utils

import (
	"crypto/rand"
	"math/big"
)

const numberBytes = "0123456789"

func GenerateRandomNumericString(length int) string {
	return generateRandom(length, numberBytes)
}

// GenerateOTP returns a numeric code of the requested length.
func GenerateOTP(length int) string {
	return GenerateRandomNumericString(length)
}

func generateRandom(length int, charset string) string {
	result := make([]byte, length)
	charsetLength := big.NewInt(int64(len(charset)))

	for i := range result {
		num, _ := rand.Int(rand.Reader, charsetLength)
		result[i] = charset[num.Int64()]
	}

	return string(result)
}
