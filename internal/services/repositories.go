package services

import (
	"context"
	"time"

	"github.com/dukemzone/kpi-portal/internal/models"
)

// The interfaces below are the slices of *store.Store each service depends on.

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// UserStore reads and writes users and their credentials
type UserStore interface {
	Clock
	ListUsers() []models.User
	GetUser(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	CreateUser(ctx context.Context, user models.User) error
	UpdateUser(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	GetCredential(userID string) (*models.Credential, error)
	SetCredential(ctx context.Context, userID, hash string) error
}

// KPIStore reads and writes KPI assignments
type KPIStore interface {
	ListKPIs() []models.KPIConfig
	GetKPI(id string) (*models.KPIConfig, error)
	CreateKPI(ctx context.Context, kpi models.KPIConfig) (*models.KPIConfig, error)
	UpdateKPI(ctx context.Context, id string, fn func(*models.KPIConfig) error) (*models.KPIConfig, error)
	UpdateKPIs(ctx context.Context, fn func(*models.KPIConfig) bool) (int, error)
	DeleteKPI(ctx context.Context, id string) error
}

// EntryStore reads and writes daily entries
type EntryStore interface {
	ListEntries() []models.DailyEntry
	GetEntry(id string) (*models.DailyEntry, error)
	CreateEntry(ctx context.Context, entry models.DailyEntry) error
	UpdateEntry(ctx context.Context, id string, fn func(*models.DailyEntry) error) (*models.DailyEntry, error)
	UpdateEntries(ctx context.Context, fn func(*models.DailyEntry) bool) (int, error)
	RejectEntry(ctx context.Context, id string, notify func(models.DailyEntry) (models.Message, error)) (*models.Message, error)
}

// FeedbackStore reads and writes feedback and replies
type FeedbackStore interface {
	ListFeedback() []models.Feedback
	GetFeedback(id string) (*models.Feedback, error)
	CreateFeedback(ctx context.Context, f models.Feedback) error
	UpdateFeedback(ctx context.Context, id string, fn func(*models.Feedback) error) (*models.Feedback, error)
	UpdateFeedbackWhere(ctx context.Context, fn func(*models.Feedback) bool) (int, error)
	DeleteFeedback(ctx context.Context, id string) (int, error)
}

// MessageStore reads and writes inbox messages
type MessageStore interface {
	ListMessages() []models.Message
	GetMessage(id string) (*models.Message, error)
	CreateMessage(ctx context.Context, m models.Message) error
	UpdateMessage(ctx context.Context, id string, fn func(*models.Message) error) (*models.Message, error)
	DeleteMessage(ctx context.Context, id string) error
}

// TodoStore reads and writes private todos
type TodoStore interface {
	ListTodos(staffID string) []models.TodoItem
	CreateTodo(ctx context.Context, todo models.TodoItem) error
	UpdateTodo(ctx context.Context, staffID, id string, fn func(*models.TodoItem)) (*models.TodoItem, error)
	DeleteTodo(ctx context.Context, staffID, id string) error
}

// SnapshotStore exports and imports the whole record set
type SnapshotStore interface {
	Export() ([]byte, error)
	Import(ctx context.Context, data []byte) (bool, error)
	ListBackupLogs() []models.BackupLog
	AppendBackupLog(ctx context.Context, status string) (models.BackupLog, error)
}

// UserLookup is the read side of UserStore used by services that only resolve the acting user
type UserLookup interface {
	Clock
	ListUsers() []models.User
	GetUser(id string) (*models.User, error)
}

// actor resolves the acting user from the store so that role changes apply immediately
func actor(users UserLookup, id string) (*models.User, error) {
	u, err := users.GetUser(id)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func today(clock Clock) string {
	return clock.Now().Format(models.DateLayout)
}
