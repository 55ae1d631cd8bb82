package engine

import (
	"encoding/json"
	"fmt"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST / RESPONSE DTOs
// ══════════════════════════════════════════════════════════════════════════════

// RecommendRequestDTO asks the engine for the next content node.
type RecommendRequestDTO struct {
	LearnerID string `json:"learner_id"`
}

// RecommendResponseDTO is the engine's recommendation.
type RecommendResponseDTO struct {
	ContentNodeID string  `json:"content_node_id"`
	Reason        string  `json:"reason,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
}

// QuizGenerationRequestDTO asks the engine to build a question set.
type QuizGenerationRequestDTO struct {
	SourceText string `json:"source_text"`
}

// QuizGenerationResponseDTO carries the generated question set.
// Questions is kept as raw JSON: the core stores and echoes it verbatim
// without interpreting the engine's question schema.
type QuizGenerationResponseDTO struct {
	Questions json.RawMessage `json:"questions"`
}

// EvaluationRequestDTO asks the engine to score a submission.
type EvaluationRequestDTO struct {
	Questions json.RawMessage `json:"questions"`
	Answers   json.RawMessage `json:"answers"`
}

// EvaluationResponseDTO is the engine's verdict.
type EvaluationResponseDTO struct {
	Score    float64         `json:"score"`
	Feedback json.RawMessage `json:"feedback,omitempty"`
}

// ReportGenerationRequestDTO asks the engine to analyze a learner's history.
type ReportGenerationRequestDTO struct {
	LearnerID string `json:"learner_id"`
}

// ReportGenerationResponseDTO is the engine's full analytical report.
type ReportGenerationResponseDTO struct {
	Summary         string             `json:"summary"`
	Details         *string            `json:"details"`
	Strengths       []string           `json:"strengths"`
	Weaknesses      []string           `json:"weaknesses"`
	EngagementScore *float64           `json:"engagement_score"`
	CompetenceMap   map[string]float64 `json:"competence_map,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR DTO
// ══════════════════════════════════════════════════════════════════════════════

// APIErrorDTO is the engine's error envelope.
type APIErrorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	return fmt.Sprintf("engine api error [%s]: %s", e.Code, e.Message)
}
