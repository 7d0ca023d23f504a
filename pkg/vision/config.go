package vision

// DetectionConfig holds the tunable thresholds of the skin detectors. The
// defaults are empirical; every field can be overridden from the config file.
type DetectionConfig struct {
	SampleStride int `yaml:"sample_stride" json:"sample_stride"`

	// Redness block scan (reported as acne)
	BlockSize     int     `yaml:"block_size" json:"block_size"`
	RednessMargin float64 `yaml:"redness_margin" json:"redness_margin"`
	RednessScale  float64 `yaml:"redness_scale" json:"redness_scale"`

	// Dark spots
	DarkSpotBlockSize     int     `yaml:"dark_spot_block_size" json:"dark_spot_block_size"`
	DarkSpotStdFactor     float64 `yaml:"dark_spot_std_factor" json:"dark_spot_std_factor"`
	DarkSpotBaseRatio     float64 `yaml:"dark_spot_base_ratio" json:"dark_spot_base_ratio"`
	DarkSpotRatioPerStd   float64 `yaml:"dark_spot_ratio_per_std" json:"dark_spot_ratio_per_std"`
	DarkSpotSeverityScale float64 `yaml:"dark_spot_severity_scale" json:"dark_spot_severity_scale"`

	// Dark circles
	BrightImageLevel float64 `yaml:"bright_image_level" json:"bright_image_level"`
	BrightFactor     float64 `yaml:"bright_factor" json:"bright_factor"`
	DimFactor        float64 `yaml:"dim_factor" json:"dim_factor"`
	BlueDelta        float64 `yaml:"blue_delta" json:"blue_delta"`
	BlueRatioTrigger float64 `yaml:"blue_ratio_trigger" json:"blue_ratio_trigger"`
	BlueRatioWeight  float64 `yaml:"blue_ratio_weight" json:"blue_ratio_weight"`

	// Texture (reported as wrinkles)
	TextureMargin float64 `yaml:"texture_margin" json:"texture_margin"`
	TextureScale  float64 `yaml:"texture_scale" json:"texture_scale"`

	// Pores
	PoreMargin     float64 `yaml:"pore_margin" json:"pore_margin"`
	PoreScale      float64 `yaml:"pore_scale" json:"pore_scale"`
	PoreDarkMargin float64 `yaml:"pore_dark_margin" json:"pore_dark_margin"`
	PoreDarkWeight float64 `yaml:"pore_dark_weight" json:"pore_dark_weight"`

	// Candidate limiting for the blind detectors
	MaxCandidateFraction float64 `yaml:"max_candidate_fraction" json:"max_candidate_fraction"`
	MaxCandidates        int     `yaml:"max_candidates" json:"max_candidates"`

	// Confidence ranges
	BlindConfidenceMin    float64 `yaml:"blind_confidence_min" json:"blind_confidence_min"`
	BlindConfidenceMax    float64 `yaml:"blind_confidence_max" json:"blind_confidence_max"`
	LandmarkConfidenceMin float64 `yaml:"landmark_confidence_min" json:"landmark_confidence_min"`
	LandmarkConfidenceMax float64 `yaml:"landmark_confidence_max" json:"landmark_confidence_max"`

	// Landmark regions below this severity are not reported
	LandmarkMinSeverity float64 `yaml:"landmark_min_severity" json:"landmark_min_severity"`
}

// DefaultConfig returns the tuned detector constants
func DefaultConfig() DetectionConfig {
	return DetectionConfig{
		SampleStride: 10,

		BlockSize:     25,
		RednessMargin: 6,
		RednessScale:  30,

		DarkSpotBlockSize:     20,
		DarkSpotStdFactor:     1.5,
		DarkSpotBaseRatio:     0.3,
		DarkSpotRatioPerStd:   0.004,
		DarkSpotSeverityScale: 150,

		BrightImageLevel: 140,
		BrightFactor:     0.9,
		DimFactor:        0.85,
		BlueDelta:        5,
		BlueRatioTrigger: 0.25,
		BlueRatioWeight:  50,

		TextureMargin: 3,
		TextureScale:  10,

		PoreMargin:     2,
		PoreScale:      10,
		PoreDarkMargin: 8,
		PoreDarkWeight: 50,

		MaxCandidateFraction: 0.6,
		MaxCandidates:        5,

		BlindConfidenceMin:    65,
		BlindConfidenceMax:    85,
		LandmarkConfidenceMin: 88,
		LandmarkConfidenceMax: 95,

		LandmarkMinSeverity: 12,
	}
}

// withDefaults fills fields that must be positive (sizes, divisors, upper
// bounds) when they are unset. Margins, floors and lower bounds keep an
// explicit zero; only negative values fall back to the default.
func (c DetectionConfig) withDefaults() DetectionConfig {
	d := DefaultConfig()
	setInt := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	setFloat := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	setMargin := func(v *float64, def float64) {
		if *v < 0 {
			*v = def
		}
	}

	setInt(&c.SampleStride, d.SampleStride)
	setInt(&c.BlockSize, d.BlockSize)
	setMargin(&c.RednessMargin, d.RednessMargin)
	setFloat(&c.RednessScale, d.RednessScale)
	setInt(&c.DarkSpotBlockSize, d.DarkSpotBlockSize)
	setMargin(&c.DarkSpotStdFactor, d.DarkSpotStdFactor)
	setMargin(&c.DarkSpotBaseRatio, d.DarkSpotBaseRatio)
	setMargin(&c.DarkSpotRatioPerStd, d.DarkSpotRatioPerStd)
	setFloat(&c.DarkSpotSeverityScale, d.DarkSpotSeverityScale)
	setFloat(&c.BrightImageLevel, d.BrightImageLevel)
	setFloat(&c.BrightFactor, d.BrightFactor)
	setFloat(&c.DimFactor, d.DimFactor)
	setMargin(&c.BlueDelta, d.BlueDelta)
	setMargin(&c.BlueRatioTrigger, d.BlueRatioTrigger)
	setMargin(&c.BlueRatioWeight, d.BlueRatioWeight)
	setMargin(&c.TextureMargin, d.TextureMargin)
	setFloat(&c.TextureScale, d.TextureScale)
	setMargin(&c.PoreMargin, d.PoreMargin)
	setFloat(&c.PoreScale, d.PoreScale)
	setMargin(&c.PoreDarkMargin, d.PoreDarkMargin)
	setMargin(&c.PoreDarkWeight, d.PoreDarkWeight)
	setFloat(&c.MaxCandidateFraction, d.MaxCandidateFraction)
	setInt(&c.MaxCandidates, d.MaxCandidates)
	setMargin(&c.BlindConfidenceMin, d.BlindConfidenceMin)
	setFloat(&c.BlindConfidenceMax, d.BlindConfidenceMax)
	setMargin(&c.LandmarkConfidenceMin, d.LandmarkConfidenceMin)
	setFloat(&c.LandmarkConfidenceMax, d.LandmarkConfidenceMax)
	setMargin(&c.LandmarkMinSeverity, d.LandmarkMinSeverity)
	return c
}
