package models

// LibraryItem is one space's entry in a user's library listing. Only the
// title is duplicated here; titles are never encrypted, so the listing stays
// valid regardless of the space's lock state.
type LibraryItem struct {
	Title    string `json:"title"`
	AddedAt  int64  `json:"addedAt"`
	IsPinned bool   `json:"isPinned,omitempty"`
}

// Library maps space ids to their listing entries and is persisted as one
// JSON object per user.
type Library map[string]LibraryItem
