// Package audit keeps an append-only journal of state-changing actions.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/mcphub/internal/logging"
	"github.com/fentz26/mcphub/internal/models"
)

// Outcomes recorded in the journal.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Actions recorded in the journal.
const (
	ActionSync           = "instance.sync"
	ActionSettingsSave   = "settings.save"
	ActionServerDelete   = "server.delete"
	ActionInstanceDelete = "instance.delete"
	ActionServerImport   = "server.import"
)

// Recorder persists journal entries.
type Recorder interface {
	RecordAudit(action, inputsHash, outcome, subjectID, details string) (*models.AuditEntry, error)
}

// Journal writes audit entries for actions.
type Journal struct {
	rec Recorder
}

// NewJournal creates a journal backed by rec. A nil rec disables recording.
func NewJournal(rec Recorder) *Journal {
	return &Journal{rec: rec}
}

// Record writes an entry. Failures are logged, never returned, so that
// journaling cannot fail the action it describes.
func (j *Journal) Record(action string, inputs any, outcome, subjectID, details string) {
	if j == nil || j.rec == nil {
		return
	}
	if _, err := j.rec.RecordAudit(action, hashInputs(inputs), outcome, subjectID, details); err != nil {
		logging.Error("Audit", err, "Failed to record %s for %s", action, subjectID)
	}
}

// hashInputs is the SHA-256 of the JSON-encoded inputs.
func hashInputs(inputs any) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
