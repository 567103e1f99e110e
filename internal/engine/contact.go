package engine

import "context"

// Contact couples a stored contact identity with its engagement profile.
type Contact struct {
	// UID is a stable identifier (store key, vCard UID or a content hash).
	UID string

	// Name is the display name (Formatted Name or Structured Name).
	Name string

	Profile ContactEngagementProfile
}

// ContactEntry is the resolved view of a contact served to the API and the feed.
type ContactEntry struct {
	UID      string
	Name     string
	Decision Decision
}

// ContactSource is implemented by persistence adapters that can list contacts.
type ContactSource interface {
	ListContacts(ctx context.Context) ([]Contact, error)
}
