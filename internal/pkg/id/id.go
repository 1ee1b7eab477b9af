package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. Code and report ids sort by creation time,
// which keeps ledger scans and archived report keys in issuance order.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
