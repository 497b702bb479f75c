package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages feature toggles with per-student rollout and overrides.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // username -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Students are assigned based on a hash of their username
	RolloutPercent int
}

// Predefined feature flag names.
const (
	FeatureReminders          = "reminders"            // Study plan reminder ticks
	FeatureLeaderboard        = "leaderboard"          // Leaderboard endpoint and refresh job
	FeatureRedisCache         = "redis_cache"          // Read-through progress cache
	FeatureWeakTopicRecompute = "weak_topic_recompute" // Recompute weak topics after a quiz
	FeatureSeedBank           = "seed_bank"            // Seed the question bank on empty storage
)

// FeatureFlagError is returned for unknown flags or invalid values.
type FeatureFlagError struct {
	Feature string
	Message string
}

func (e *FeatureFlagError) Error() string {
	return "feature " + e.Feature + ": " + e.Message
}

// LoadFeatureFlags creates flags with defaults and applies FEATURE_* overrides.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}
	ff.initializeDefaults()
	ff.loadFromEnvironment()
	return ff
}

func (ff *FeatureFlags) initializeDefaults() {
	for _, f := range []Feature{
		{Name: FeatureReminders, Description: "Fire study plan reminders in open sessions", Enabled: true, RolloutPercent: 100},
		{Name: FeatureLeaderboard, Description: "Serve and refresh the leaderboard", Enabled: true, RolloutPercent: 100},
		{Name: FeatureRedisCache, Description: "Cache progress documents and leaderboard snapshots in Redis", Enabled: false, RolloutPercent: 0},
		{Name: FeatureWeakTopicRecompute, Description: "Derive weak topics from quiz scores", Enabled: true, RolloutPercent: 100},
		{Name: FeatureSeedBank, Description: "Insert the built-in question bank into empty storage", Enabled: true, RolloutPercent: 100},
	} {
		f := f
		ff.features[f.Name] = &f
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_REDIS_CACHE=true
// Example: FEATURE_WEAK_TOPIC_RECOMPUTE=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		val := os.Getenv(featureNameToEnvKey(name))
		if val == "" {
			continue
		}
		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			feature.RolloutPercent = 0
			if b {
				feature.RolloutPercent = 100
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
// "redis_cache" -> "FEATURE_REDIS_CACHE"
func featureNameToEnvKey(name string) string {
	return "FEATURE_" + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))
}

// Enabled reports whether a feature is on globally (100% rollout).
func (ff *FeatureFlags) Enabled(featureName string) bool {
	return ff.IsEnabled(featureName, "")
}

// IsEnabled checks a feature for a student. An empty username only passes at
// full rollout.
func (ff *FeatureFlags) IsEnabled(featureName, username string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	if username != "" {
		if overrides, ok := ff.userOverrides[username]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok || !feature.Enabled {
		return false
	}
	if feature.RolloutPercent >= 100 {
		return true
	}
	if username == "" {
		return false
	}
	return isInRollout(username, featureName, feature.RolloutPercent)
}

// isInRollout uses consistent hashing so students stay in their bucket.
func isInRollout(username, featureName string, percent int) bool {
	h := fnv.New32a()
	_, _ = h.Write([]byte(featureName))
	_, _ = h.Write([]byte(username))
	return int(h.Sum32()%100) < percent
}

// SetUserOverride forces a feature on or off for one student.
func (ff *FeatureFlags) SetUserOverride(username, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if ff.userOverrides[username] == nil {
		ff.userOverrides[username] = make(map[string]bool)
	}
	ff.userOverrides[username][featureName] = enabled
}

// ClearUserOverrides removes all overrides of a student.
func (ff *FeatureFlags) ClearUserOverrides(username string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, username)
}

// SetRolloutPercent changes the rollout of a feature.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	if percent < 0 || percent > 100 {
		return &FeatureFlagError{Feature: featureName, Message: "rollout percent must be 0-100"}
	}

	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return &FeatureFlagError{Feature: featureName, Message: "unknown feature"}
	}
	feature.RolloutPercent = percent
	feature.Enabled = percent > 0
	return nil
}

// EnableFeature turns a feature fully on.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature turns a feature off.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all features.
func (ff *FeatureFlags) GetAllFeatures() map[string]Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	out := make(map[string]Feature, len(ff.features))
	for name, f := range ff.features {
		out[name] = *f
	}
	return out
}
