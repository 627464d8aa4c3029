package orders

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type OrderNumberGenerator struct {
	prefix string
	secret string
}

func NewOrderNumberGenerator(prefix, secret string) *OrderNumberGenerator {
	if prefix == "" {
		prefix = "ORD"
	}
	return &OrderNumberGenerator{prefix: strings.ToUpper(prefix), secret: secret}
}

// Generate returns a short human readable number such as ORD-7KQ2-A1B3.
// The first group is keyed on the customer so numbers are not guessable.
func (g *OrderNumberGenerator) Generate(customerExternalID string) string {
	nonce := uuid.NewString()

	mac := hmac.New(sha256.New, []byte(g.secret))
	fmt.Fprintf(mac, "customer:%s|nonce:%s", customerExternalID, nonce)

	sum := mac.Sum(nil)
	tag := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum)

	return fmt.Sprintf(
		"%s-%s-%s",
		g.prefix,
		strings.ToUpper(tag[:4]),
		strings.ToUpper(uuid.NewString()[:4]),
	)
}
