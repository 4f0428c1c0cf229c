package identity

import (
	"crypto/sha256"
	"encoding/hex"

	"yc_scrooper/models"
)

// Key is the composite identity of a company listing entry. The three fields
// are taken verbatim from the listing, with no normalization or case folding.
// Two entries refer to the same company iff all three fields match exactly.
type Key struct {
	Name     string
	Location string
	URL      string
}

func KeyOf(c *models.Company) Key {
	return Key{Name: c.Name, Location: c.Location, URL: c.URL}
}

// Fingerprint returns a stable hex digest of the key, used as the primary
// key in SQLite and Postgres. The separator cannot occur in URLs and keeps
// ("a", "bc") distinct from ("ab", "c").
func (k Key) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(k.Name))
	h.Write([]byte{'\n'})
	h.Write([]byte(k.Location))
	h.Write([]byte{'\n'})
	h.Write([]byte(k.URL))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}
