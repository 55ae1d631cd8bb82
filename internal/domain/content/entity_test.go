package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

func TestNodeHint(t *testing.T) {
	t.Run("quiz node with hint", func(t *testing.T) {
		n := &Node{
			Type:    NodeTypeQuiz,
			Payload: json.RawMessage(`{"question":"What does defer do?","hint":"Think stack, not queue."}`),
		}

		hint, err := n.Hint()

		require.NoError(t, err)
		assert.Equal(t, "Think stack, not queue.", hint)
	})

	t.Run("quiz node without hint", func(t *testing.T) {
		n := &Node{Type: NodeTypeQuiz, Payload: json.RawMessage(`{"question":"q"}`)}

		_, err := n.Hint()

		assert.ErrorIs(t, err, shared.ErrHintUnavailable)
	})

	t.Run("non-quiz node has no hint", func(t *testing.T) {
		n := &Node{Type: NodeTypeVideo, Payload: json.RawMessage(`{"hint":"irrelevant"}`)}

		_, err := n.Hint()

		assert.ErrorIs(t, err, shared.ErrHintUnavailable)
	})

	t.Run("malformed payload", func(t *testing.T) {
		n := &Node{Type: NodeTypeQuiz, Payload: json.RawMessage(`{broken`)}

		_, err := n.Hint()

		assert.ErrorIs(t, err, shared.ErrHintUnavailable)
	})
}

func TestNodeSourceText(t *testing.T) {
	t.Run("transcript present", func(t *testing.T) {
		n := &Node{Transcript: "Goroutines are lightweight threads."}

		text, err := n.SourceText()

		require.NoError(t, err)
		assert.Equal(t, "Goroutines are lightweight threads.", text)
	})

	t.Run("no transcript", func(t *testing.T) {
		n := &Node{}

		_, err := n.SourceText()

		assert.ErrorIs(t, err, shared.ErrNoSourceText)
	})
}

func TestNodeType(t *testing.T) {
	assert.True(t, NodeTypeVideo.IsValid())
	assert.True(t, NodeTypeArticle.IsValid())
	assert.True(t, NodeTypeQuiz.IsValid())
	assert.False(t, NodeType("PODCAST").IsValid())
}

func TestNodeHasVideo(t *testing.T) {
	assert.True(t, (&Node{Type: NodeTypeVideo, FileRef: "drive:abc"}).HasVideo())
	assert.False(t, (&Node{Type: NodeTypeVideo}).HasVideo())
	assert.False(t, (&Node{Type: NodeTypeArticle, FileRef: "drive:abc"}).HasVideo())
}
