// Package device issues the opaque identifiers that tag a browser's orders.
package device

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	prefix = "dev-"
	idLen  = 10
)

var validID = regexp.MustCompile(`^dev-[0-9a-z]{1,32}$`)

// NewID returns "dev-" followed by 10 base36 characters.
func NewID() string {
	u := uuid.New()
	s := new(big.Int).SetBytes(u[:]).Text(36)
	if len(s) < idLen {
		s = strings.Repeat("0", idLen-len(s)) + s
	}
	return prefix + s[:idLen]
}

// Valid reports whether id looks like an identifier this service issued.
func Valid(id string) bool {
	return validID.MatchString(id)
}
