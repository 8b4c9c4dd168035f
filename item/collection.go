package item

import (
	"crypto/rand"
	"fmt"
	"time"
)

const collectionIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
const collectionIDLength = 6

// NewCollectionID generates a 6-character opaque collection identifier.
func NewCollectionID() (string, error) {
	buf := make([]byte, collectionIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate collection id: %w", err)
	}
	out := make([]byte, collectionIDLength)
	for i, b := range buf {
		out[i] = collectionIDAlphabet[int(b)%len(collectionIDAlphabet)]
	}
	return string(out), nil
}

// Collection is a shallow, ordered grouping of items. The core never
// mutates items through a collection; it is a display/export convenience.
type Collection struct {
	CID          string    `json:"cid"`
	Title        string    `json:"title"`
	TIIDs        []string  `json:"tiids"`
	OwnerIP      string    `json:"owner_ip,omitempty"`
	OwnerAPIKey  string    `json:"owner_api_key,omitempty"`
	Created      time.Time `json:"created"`
	LastModified time.Time `json:"last_modified"`

	Rev string `json:"-"`
}

// NewCollection constructs a fresh collection for the given tiids.
func NewCollection(cid, title string, tiids []string, ownerIP string) *Collection {
	now := time.Now().UTC()
	return &Collection{
		CID:          cid,
		Title:        title,
		TIIDs:        append([]string(nil), tiids...),
		OwnerIP:      ownerIP,
		Created:      now,
		LastModified: now,
	}
}

// User is a minimal API-key-keyed principal used only to attribute
// collections for display; the core never consults it for authorization
// decisions (authentication is an explicit non-goal).
type User struct {
	APIKey  string    `json:"api_key"`
	Created time.Time `json:"created"`

	Rev string `json:"-"`
}

// NewUser mints a fresh user record around an already-generated API key.
func NewUser(apiKey string) *User {
	return &User{APIKey: apiKey, Created: time.Now().UTC()}
}
