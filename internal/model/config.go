package model

// PipelineConfig is the engine configuration. It is passed by value into
// every component and never mutated after construction.
type PipelineConfig struct {
	Mode            string          `json:"mode" yaml:"mode" mapstructure:"mode"`                                  // research or demo
	Ablation        Ablation        `json:"ablation" yaml:"ablation" mapstructure:"ablation"`                      // Rule switches for evaluation runs
	Reproducibility Reproducibility `json:"reproducibility" yaml:"reproducibility" mapstructure:"reproducibility"` // Seed handling for model-backed NLI
	Workers         int             `json:"workers,omitempty" yaml:"workers" mapstructure:"workers"`               // Per-claim map phase parallelism
}

// Ablation disables individual rules so their contribution can be measured
type Ablation struct {
	DisableNLI               bool `json:"disable_nli" yaml:"disable_nli" mapstructure:"disable_nli"`
	DisableCanonicalOverride bool `json:"disable_canonical_override" yaml:"disable_canonical_override" mapstructure:"disable_canonical_override"`
	DisableCrossClaim        bool `json:"disable_cross_claim" yaml:"disable_cross_claim" mapstructure:"disable_cross_claim"`
	DisableOverconfidence    bool `json:"disable_overconfidence" yaml:"disable_overconfidence" mapstructure:"disable_overconfidence"`
}

// Reproducibility pins nondeterministic collaborators
type Reproducibility struct {
	Deterministic bool `json:"deterministic" yaml:"deterministic" mapstructure:"deterministic"`
	FixedSeed     int  `json:"fixed_seed" yaml:"fixed_seed" mapstructure:"fixed_seed"`
}

// DefaultPipelineConfig returns the research-mode configuration
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Mode: "research",
		Reproducibility: Reproducibility{
			Deterministic: true,
			FixedSeed:     42,
		},
		Workers: 4,
	}
}

// NormalizedMode maps anything other than "demo" to "research"
func (c PipelineConfig) NormalizedMode() string {
	if c.Mode == "demo" {
		return "demo"
	}
	return "research"
}

// NLIConfig selects and configures the inference backend used for textual evidence
type NLIConfig struct {
	Provider          string  `json:"provider" yaml:"provider" mapstructure:"provider"`                                  // none, openai or ollama
	Model             string  `json:"model" yaml:"model" mapstructure:"model"`                                           // Provider-specific model name
	APIKey            string  `json:"-" yaml:"api_key,omitempty" mapstructure:"api_key"`                                 // Never rendered in reports
	BaseURL           string  `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`              // OpenAI-compatible endpoint
	Timeout           int     `json:"timeout" yaml:"timeout" mapstructure:"timeout"`                                     // Seconds per request
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"` // Per endpoint host, 0 disables
	Burst             int     `json:"burst" yaml:"burst" mapstructure:"burst"`
	HTTPProxy         string  `json:"http_proxy,omitempty" yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string  `json:"https_proxy,omitempty" yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string  `json:"no_proxy,omitempty" yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// DefaultNLIConfig leaves inference disabled; textual evidence then uses the
// similarity fallback
func DefaultNLIConfig() NLIConfig {
	return NLIConfig{
		Provider:          "none",
		Model:             "gpt-4o-mini",
		Timeout:           30,
		RequestsPerSecond: 2,
		Burst:             2,
	}
}

// Seed returns the fixed seed when runs must be reproducible
func (c PipelineConfig) Seed() *int {
	if !c.Reproducibility.Deterministic {
		return nil
	}
	seed := c.Reproducibility.FixedSeed
	return &seed
}
