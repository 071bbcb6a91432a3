package store

const (
	// KeyPrefix namespaces every key written by the repository
	KeyPrefix = "shelf:"
	// KeyItems holds the JSON object id -> item
	KeyItems = KeyPrefix + "items"
	// KeyHistory holds the JSON array of history entries
	KeyHistory = KeyPrefix + "history"
)
