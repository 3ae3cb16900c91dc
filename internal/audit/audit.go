package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"refinery-ops/internal/auth"
)

// Entry represents an audit log entry.
type Entry struct {
	ID            string          `json:"id"`
	Actor         string          `json:"actor"`
	Role          string          `json:"role"`
	Action        string          `json:"action"`
	ResourceType  string          `json:"resource_type"`
	ResourceID    string          `json:"resource_id"`
	Module        string          `json:"module"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	PayloadDigest string          `json:"payload_digest"`
	IP            string          `json:"ip"`
	UserAgent     string          `json:"user_agent"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Logger writes audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// Filter narrows audit listings.
type Filter struct {
	From   time.Time
	To     time.Time
	Action string
	Actor  string
	Module string
	Limit  int
	Offset int
}

// NewID generates a random audit id.
func NewID() string {
	return "audit-" + uuid.NewString()
}

// DigestJSON computes a SHA256 hex digest for metadata payloads.
func DigestJSON(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FromRequest builds an entry with the caller identity and client details of r.
func FromRequest(r *http.Request, action, resourceType, resourceID, module string, meta any) Entry {
	entry := Entry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Module:       module,
	}
	if meta != nil {
		if payload, err := json.Marshal(meta); err == nil {
			entry.Metadata = payload
		}
	}
	if r != nil {
		entry.Actor = auth.SubjectFromContext(r.Context())
		entry.Role = string(auth.RoleFromContext(r.Context()))
		entry.IP = ClientIP(r)
		entry.UserAgent = r.UserAgent()
	}
	return entry
}
