package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	pipeerrors "retaildq/internal/errors"
)

// Audit event names.
const (
	AuditEventLoadFailed      = "load_failed"
	AuditEventSchemaInvalid   = "schema_invalid"
	AuditEventDuplicateRemove = "duplicates_removed"
	AuditEventValueClamped    = "values_clamped"
	AuditEventValueDefaulted  = "values_defaulted"
	AuditEventDateBlanked     = "dates_blanked"
	AuditEventOrphanDropped   = "orphans_dropped"
	AuditEventAlertRaised     = "alert_raised"
)

// AuditEntry is one line of the append-only audit trail.
type AuditEntry struct {
	Time   time.Time `json:"time"`
	RunID  string    `json:"run_id"`
	Event  string    `json:"event"`
	Table  string    `json:"table,omitempty"`
	Count  int       `json:"count,omitempty"`
	Detail string    `json:"detail,omitempty"`
}

// Audit writes run events as JSON lines to an append-only log.
type Audit struct {
	mu    sync.Mutex
	w     io.Writer
	runID string
}

// OpenAudit opens (or creates) the audit file for appending.
func OpenAudit(path, runID string) (*Audit, func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, pipeerrors.New(pipeerrors.CodeInternal, "pipeline.OpenAudit",
			fmt.Errorf("cannot open %s: %w", path, err))
	}
	return &Audit{w: f, runID: runID}, f.Close, nil
}

// NewAudit creates an audit trail writing to w. Used directly in
// tests.
func NewAudit(w io.Writer, runID string) *Audit {
	return &Audit{w: w, runID: runID}
}

// NopAudit returns an audit trail that discards entries.
func NopAudit() *Audit {
	return &Audit{w: io.Discard}
}

// Record appends one entry. Write failures are swallowed: the audit
// trail must never fail the run.
func (a *Audit) Record(event, table string, count int, detail string) {
	if count == 0 && detail == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	entry := AuditEntry{
		Time:   time.Now().UTC(),
		RunID:  a.runID,
		Event:  event,
		Table:  table,
		Count:  count,
		Detail: detail,
	}
	if data, err := json.Marshal(entry); err == nil {
		a.w.Write(append(data, '\n'))
	}
}
