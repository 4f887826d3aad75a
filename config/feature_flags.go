package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags holds progress feature toggles with percentage rollout.
// Learners are bucketed by a hash of their id so a learner keeps the same
// answer for the same flag.
type FeatureFlags struct {
	mu        sync.RWMutex
	features  map[string]*Feature
	overrides map[string]map[string]bool // learnerID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name           string
	Description    string
	Enabled        bool
	RolloutPercent int
}

// Feature flag names.
const (
	// Record a level certificate automatically once every lesson is done.
	FeatureAutoCertificate = "progress.auto_certificate"
	// Unlock the next level as soon as a certificate is recorded.
	FeatureAutoUnlockNextLevel = "progress.auto_unlock_next_level"
	// Emit notifier log lines for achievements and certificates.
	FeatureNotifyAchievements = "notify.achievements"
	// Expose the all-learners admin view.
	FeatureAdminProgressView = "admin.progress_view"
)

// LoadFeatureFlags loads defaults and applies FEATURE_* overrides.
func LoadFeatureFlags() *FeatureFlags {
	ff := NewFeatureFlags()
	ff.loadFromEnvironment()
	return ff
}

// NewFeatureFlags returns the defaults without reading the environment.
func NewFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:  make(map[string]*Feature),
		overrides: make(map[string]map[string]bool),
	}
	for _, f := range []Feature{
		{FeatureAutoCertificate, "Record level certificates on completion", true, 100},
		{FeatureAutoUnlockNextLevel, "Unlock the next level with the certificate", false, 0},
		{FeatureNotifyAchievements, "Notify learners about achievements", true, 100},
		{FeatureAdminProgressView, "All-learners progress view", true, 100},
	} {
		ff.features[f.Name] = &f
	}
	return ff
}

// loadFromEnvironment reads FEATURE_<NAME>=true|false|<percent>.
// Example: FEATURE_PROGRESS_AUTO_UNLOCK_NEXT_LEVEL=25
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

// "progress.auto_certificate" -> "FEATURE_PROGRESS_AUTO_CERTIFICATE"
func featureNameToEnvKey(name string) string {
	return "FEATURE_" + strings.ReplaceAll(strings.ToUpper(name), ".", "_")
}

// IsEnabled reports whether the feature is on for learnerID. An empty
// learnerID only sees fully rolled out features.
func (ff *FeatureFlags) IsEnabled(featureName, learnerID string) bool {
	if ff == nil {
		return false
	}
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	if learnerID != "" {
		if enabled, ok := ff.overrides[learnerID][featureName]; ok {
			return enabled
		}
	}

	feature, ok := ff.features[featureName]
	if !ok || !feature.Enabled {
		return false
	}
	if feature.RolloutPercent >= 100 {
		return true
	}
	if learnerID == "" {
		return false
	}
	return inRollout(learnerID, featureName, feature.RolloutPercent)
}

func inRollout(learnerID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(learnerID))
	return int(h.Sum32()%100) < percent
}

// SetOverride forces a feature on or off for one learner.
func (ff *FeatureFlags) SetOverride(learnerID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if ff.overrides[learnerID] == nil {
		ff.overrides[learnerID] = make(map[string]bool)
	}
	ff.overrides[learnerID][featureName] = enabled
}

// SetRolloutPercent updates a feature's rollout.
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

func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]Feature, len(ff.features))
	for k, v := range ff.features {
		result[k] = *v
	}
	return result
}

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
