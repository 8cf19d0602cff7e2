package models

// FeatureSet is the capability set unlocked by a tier.
type FeatureSet struct {
	AIModel          string `json:"ai_model"`
	VoiceCommands    bool   `json:"voice_commands"`
	CustomSkills     bool   `json:"custom_skills"`
	EmailIntegration bool   `json:"email_integration"`
	SmartHome        bool   `json:"smart_home"`
	APIAccess        bool   `json:"api_access"`
	PrioritySupport  bool   `json:"priority_support"`
}

var tierFeatures = map[string]FeatureSet{
	TierFree: {
		AIModel:       "basic",
		VoiceCommands: true,
	},
	TierPro: {
		AIModel:          "advanced",
		VoiceCommands:    true,
		CustomSkills:     true,
		EmailIntegration: true,
		SmartHome:        true,
		PrioritySupport:  true,
	},
	TierBusiness: {
		AIModel:          "premium",
		VoiceCommands:    true,
		CustomSkills:     true,
		EmailIntegration: true,
		SmartHome:        true,
		APIAccess:        true,
		PrioritySupport:  true,
	},
}

// FeaturesForTier returns the feature set for tier. Unknown tiers get the
// free set.
func FeaturesForTier(tier string) FeatureSet {
	if features, ok := tierFeatures[tier]; ok {
		return features
	}
	return tierFeatures[TierFree]
}
