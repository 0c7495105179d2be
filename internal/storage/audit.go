package storage

import (
	"time"

	"github.com/goccy/go-json"
)

type AuditEntry struct {
	ID       int64          `json:"id"`
	TS       time.Time      `json:"ts"`
	Actor    string         `json:"actor,omitempty"`
	Action   string         `json:"action"`
	Resource string         `json:"resource,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

func (db *DB) LogAudit(actor, action, resource string, meta map[string]any) error {
	b, _ := json.Marshal(meta)
	_, err := db.conn.Exec(`INSERT INTO audit(ts, actor, action, resource, meta_json) VALUES(?,?,?,?,?)`,
		time.Now().UTC().Format(time.RFC3339Nano), actor, action, resource, string(b))
	return err
}

// ListAudit returns the most recent audit entries first.
func (db *DB) ListAudit(limit int) ([]AuditEntry, error) {
	rows, err := db.conn.Query(`
SELECT id, ts, COALESCE(actor,''), action, COALESCE(resource,''), COALESCE(meta_json,'')
FROM audit ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var (
			e      AuditEntry
			ts, mj string
		)
		if err := rows.Scan(&e.ID, &ts, &e.Actor, &e.Action, &e.Resource, &mj); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.TS = t
		}
		if mj != "" && mj != "null" {
			_ = json.Unmarshal([]byte(mj), &e.Meta)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
