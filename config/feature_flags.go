package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and gradual rollout.
// Learners are bucketed by a consistent hash of their ID, so a learner
// stays in or out of a rollout across sessions.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Override rules (for testing/debugging)
	learnerOverrides map[string]map[string]bool // learnerID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	RolloutPercent int

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	LearnerID string
	Tier      string
}

// Predefined feature flag names.
const (
	// Quiz features
	FeatureQuizFeedback = "quiz.feedback" // Return per-question oracle feedback

	// Report features
	FeatureReportsOnDemand = "reports.on_demand" // POST /reports/generate endpoint

	// Dashboard features
	FeatureDashboardStreaks = "dashboard.streaks" // Daily activity streaks

	// Recommendation features
	FeatureNextContent = "recommend.next_content" // Engine-driven next-content picks
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:         make(map[string]*Feature),
		learnerOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureQuizFeedback] = &Feature{
		Name:           FeatureQuizFeedback,
		Description:    "Return per-question feedback with quiz scores",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureReportsOnDemand] = &Feature{
		Name:           FeatureReportsOnDemand,
		Description:    "Allow learners to trigger report generation",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureDashboardStreaks] = &Feature{
		Name:           FeatureDashboardStreaks,
		Description:    "Show daily activity streaks on the dashboard",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNextContent] = &Feature{
		Name:           FeatureNextContent,
		Description:    "Engine-driven next-content recommendations",
		Enabled:        true,
		RolloutPercent: 100,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_REPORTS_ON_DEMAND=false
// Example: FEATURE_DASHBOARD_STREAKS=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		val := os.Getenv(envKey)
		if val == "" {
			continue
		}

		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			if b {
				feature.RolloutPercent = 100
			} else {
				feature.RolloutPercent = 0
			}
			continue
		}

		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "reports.on_demand" -> "FEATURE_REPORTS_ON_DEMAND"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check learner overrides first
	if ctx != nil && ctx.LearnerID != "" {
		if overrides, ok := ff.learnerOverrides[ctx.LearnerID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.LearnerID != "" {
		return isInRollout(ctx.LearnerID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a learner is in the rollout percentage.
// Uses consistent hashing so learners stay in their bucket.
func isInRollout(learnerID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(learnerID))
	bucket := int(h.Sum32() % 100)
	return bucket < percent
}

// SetLearnerOverride sets a feature override for a specific learner.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetLearnerOverride(learnerID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.learnerOverrides[learnerID]; !ok {
		ff.learnerOverrides[learnerID] = make(map[string]bool)
	}
	ff.learnerOverrides[learnerID][featureName] = enabled
}

// ClearLearnerOverrides removes all overrides for a learner.
func (ff *FeatureFlags) ClearLearnerOverrides(learnerID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.learnerOverrides, learnerID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
