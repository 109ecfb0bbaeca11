package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const numberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewOrderNumber returns a human readable reference such as AC-20260105-7KQ2ZD.
func NewOrderNumber(now time.Time) (string, error) {
	suffix := make([]byte, 6)
	limit := big.NewInt(int64(len(numberAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate order number: %w", err)
		}
		suffix[i] = numberAlphabet[n.Int64()]
	}
	return fmt.Sprintf("AC-%s-%s", now.UTC().Format("20060102"), suffix), nil
}
