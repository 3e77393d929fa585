// Package tracking produces the human-facing shipment codes assigned to
// parcels once payment is confirmed.
package tracking

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"
)

// Generator produces tracking ids of the form PRC-<year>-<8 hex chars>.
// The 32-bit random suffix is not checked against existing records; at this
// system's volume the collision odds are negligible.
type Generator struct {
	now  func() time.Time
	rand io.Reader
}

// New creates a generator backed by the system clock and crypto/rand
func New() *Generator {
	return &Generator{now: time.Now, rand: rand.Reader}
}

// NewWithSource creates a generator with an explicit clock and random
// source, used by tests for deterministic output.
func NewWithSource(now func() time.Time, r io.Reader) *Generator {
	return &Generator{now: now, rand: r}
}

// NewTrackingID returns a fresh tracking id, e.g. PRC-2026-9F3A01BC
func (g *Generator) NewTrackingID() (string, error) {
	var b [4]byte
	if _, err := io.ReadFull(g.rand, b[:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	suffix := strings.ToUpper(hex.EncodeToString(b[:]))
	return fmt.Sprintf("PRC-%d-%s", g.now().Year(), suffix), nil
}
