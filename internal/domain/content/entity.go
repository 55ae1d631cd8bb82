// Package content contains the immutable content catalog domain model.
// Content nodes are created by content authoring (out of scope) and are
// strictly read-only to the core.
package content

import (
	"context"
	"encoding/json"
	"time"

	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// NodeType defines the kind of a content node.
type NodeType string

const (
	// NodeTypeVideo - video lesson backed by an external file reference.
	NodeTypeVideo NodeType = "VIDEO"
	// NodeTypeArticle - text article.
	NodeTypeArticle NodeType = "ARTICLE"
	// NodeTypeQuiz - quiz node carrying a question and an optional hint.
	NodeTypeQuiz NodeType = "QUIZ"
)

// IsValid checks that the node type is one of the known values.
func (t NodeType) IsValid() bool {
	switch t {
	case NodeTypeVideo, NodeTypeArticle, NodeTypeQuiz:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t NodeType) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: CONTENT NODE
// ══════════════════════════════════════════════════════════════════════════════

// Node is an immutable catalog entry.
//
// Payload shape depends on NodeType: quiz payloads carry "question" and
// "hint" keys, video payloads reference an external file via FileRef.
type Node struct {
	// ID is the unique identifier (UUID in string form).
	ID string

	// Title is the display title.
	Title string

	// Type is the node kind.
	Type NodeType

	// Payload is the type-dependent JSON payload.
	Payload json.RawMessage

	// Transcript is the gradable source text (quiz generation input).
	Transcript string

	// FileRef is the external storage file reference for video nodes.
	FileRef string

	// CreatedAt is when the node was authored.
	CreatedAt time.Time
}

// Hint extracts the hint from a quiz node's payload.
// Returns shared.ErrHintUnavailable when the node is not a quiz, the
// payload is malformed, or no hint is present.
func (n *Node) Hint() (string, error) {
	if n.Type != NodeTypeQuiz {
		return "", shared.ErrHintNotAvailable
	}

	var payload struct {
		Hint string `json:"hint"`
	}
	if len(n.Payload) > 0 {
		if err := json.Unmarshal(n.Payload, &payload); err != nil {
			return "", shared.WrapError("content", "Hint", shared.ErrHintUnavailable, "malformed quiz payload", err)
		}
	}

	if payload.Hint == "" {
		return "", shared.ErrHintNotAvailable
	}
	return payload.Hint, nil
}

// SourceText returns the gradable material for quiz generation.
// Returns shared.ErrNoSourceText when the node has no transcript.
func (n *Node) SourceText() (string, error) {
	if n.Transcript == "" {
		return "", shared.ErrNoTranscript
	}
	return n.Transcript, nil
}

// HasVideo returns true if the node should carry resolved video links.
func (n *Node) HasVideo() bool {
	return n.Type == NodeTypeVideo && n.FileRef != ""
}

// ══════════════════════════════════════════════════════════════════════════════
// VIDEO LINKS
// ══════════════════════════════════════════════════════════════════════════════

// VideoLinks are the resolved URLs for a video node's file reference.
type VideoLinks struct {
	// View opens the file in the provider's viewer.
	View string `json:"view"`

	// Download streams or downloads the file directly.
	Download string `json:"download"`
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines read operations over the content catalog.
type Repository interface {
	// GetByID returns a content node by ID.
	// Returns shared.ErrContentNotFound if the node does not exist.
	GetByID(ctx context.Context, id string) (*Node, error)
}

// LinkResolver resolves an external storage file reference into
// time-bounded or permanent view/download URLs. Invoked only for
// video nodes; failures must degrade gracefully at the call site.
type LinkResolver interface {
	Resolve(ctx context.Context, fileRef string) (*VideoLinks, error)
}
