package domain

import (
	"fmt"
	"time"
)

// AuditEntry is one attributed note in an issue's cumulative trail. The raw
// tuple is what gets persisted; Formatted is derived for human display only.
type AuditEntry struct {
	At         time.Time `json:"at"`
	ActorLabel string    `json:"actor_label"`
	Text       string    `json:"text"`
}

// Formatted renders the entry for human legibility.
func (e AuditEntry) Formatted() string {
	return fmt.Sprintf("[%s] %s: %s", e.At.Format("2006-01-02 15:04"), e.ActorLabel, e.Text)
}

// AuditTrail is the ordered, append-only record of actions taken on an issue.
type AuditTrail []AuditEntry

// Append returns a new trail with the note added. Prior entries are shared,
// never mutated or removed; callers invoke this once per logical transition.
func (t AuditTrail) Append(at time.Time, actorLabel, text string) AuditTrail {
	next := make(AuditTrail, len(t), len(t)+1)
	copy(next, t)
	return append(next, AuditEntry{At: at, ActorLabel: actorLabel, Text: text})
}

// LastAt returns the timestamp of the most recent entry, zero when empty.
func (t AuditTrail) LastAt() time.Time {
	if len(t) == 0 {
		return time.Time{}
	}
	return t[len(t)-1].At
}
