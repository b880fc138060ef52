package models

import "encoding/json"

// Collection names, used as storage keys and as snapshot document fields
const (
	CollectionUsers       = "users"
	CollectionKPIs        = "kpis"
	CollectionEntries     = "entries"
	CollectionFeedback    = "feedback"
	CollectionMessages    = "messages"
	CollectionTodos       = "todos"
	CollectionBackups     = "backups"
	CollectionCredentials = "credentials"
)

// Collections lists every persisted collection in write order
var Collections = []string{
	CollectionUsers,
	CollectionKPIs,
	CollectionEntries,
	CollectionFeedback,
	CollectionMessages,
	CollectionTodos,
	CollectionBackups,
	CollectionCredentials,
}

// Snapshot is the portable backup document.
// Pointer slices distinguish a key missing from the document from an empty collection.
// Timestamp is informational; exports write an RFC 3339 string and imports accept any value.
type Snapshot struct {
	Users     *[]User         `json:"users,omitempty"`
	KPIs      *[]KPIConfig    `json:"kpis,omitempty"`
	Entries   *[]DailyEntry   `json:"entries,omitempty"`
	Feedback  *[]Feedback     `json:"feedback,omitempty"`
	Messages  *[]Message      `json:"messages,omitempty"`
	Todos     *[]TodoItem     `json:"todos,omitempty"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}
