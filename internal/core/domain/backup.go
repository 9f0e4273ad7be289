package domain

import (
	"time"

	"github.com/google/uuid"
)

type BackupStatus string

const (
	BackupStatusPending  BackupStatus = "pending"
	BackupStatusComplete BackupStatus = "complete"
	BackupStatusFailed   BackupStatus = "failed"
)

// BackupSnapshot captures full ledger state. Payload is only populated
// when a single snapshot is loaded for restore; listings omit it.
type BackupSnapshot struct {
	ID        uuid.UUID    `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Status    BackupStatus `json:"status"`
	Checksum  string       `json:"checksum"`
	SizeBytes int64        `json:"size_bytes"`
	Payload   []byte       `json:"-"`
}

// RetentionPolicy bounds how many snapshots are kept and for how long.
// Zero values disable the corresponding limit.
type RetentionPolicy struct {
	MaxCount int
	MaxAge   time.Duration
}

// LedgerState is the serialized form of everything the ledger owns.
type LedgerState struct {
	Voters       []Voter         `json:"voters"`
	Posts        []ElectionPost  `json:"posts"`
	Votes        []Vote          `json:"votes"`
	AuditEntries []AuditLogEntry `json:"audit_entries"`
}
