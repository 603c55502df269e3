// Package config provides configuration loading and access for the avatar engine.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all engine configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Sampler   SamplerConfig   `yaml:"sampler"`
	Idle      IdleConfig      `yaml:"idle"`
	Dissolve  DissolveConfig  `yaml:"dissolve"`
	Vortex    VortexConfig    `yaml:"vortex"`
	Waveform  WaveformConfig  `yaml:"waveform"`
	Reform    ReformConfig    `yaml:"reform"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the preview window.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds per-tick integration parameters.
type PhysicsConfig struct {
	DT         float64 `yaml:"dt"`          // Seconds per tick
	MaxOpacity float64 `yaml:"max_opacity"` // Global opacity ceiling
	MaxSize    float64 `yaml:"max_size"`    // Global particle size ceiling
}

// SamplerConfig holds pixel-sampler parameters.
type SamplerConfig struct {
	ParticleCount  int     `yaml:"particle_count"`  // Target particle count N
	AlphaThreshold int     `yaml:"alpha_threshold"` // Minimum alpha (0-255) for a visible pixel
	OriginJitter   float64 `yaml:"origin_jitter"`   // Max ± jitter added to sampled origins
	SizeMin        float64 `yaml:"size_min"`        // Base particle size floor
	SizeMax        float64 `yaml:"size_max"`        // Luminance-driven size ceiling
}

// IdleConfig holds breathing-drift parameters.
type IdleConfig struct {
	DriftAmplitude  float64 `yaml:"drift_amplitude"`  // Max noise-driven offset from origin
	DriftFrequency  float64 `yaml:"drift_frequency"`  // Spatial noise frequency
	DriftSpeed      float64 `yaml:"drift_speed"`      // Noise time advance rate
	BreatheAmp      float64 `yaml:"breathe_amp"`      // Radial breathing amplitude fraction
	BreatheFreq     float64 `yaml:"breathe_freq"`     // Breathing oscillation rate (rad/s)
	Approach        float64 `yaml:"approach"`         // Per-second pull toward drift target
	TwinkleAmp      float64 `yaml:"twinkle_amp"`      // Opacity oscillation amplitude
	TwinkleFreq     float64 `yaml:"twinkle_freq"`     // Opacity oscillation rate (rad/s)
	BaseOpacity     float64 `yaml:"base_opacity"`     // Center of the opacity oscillation
	VelocityDamping float64 `yaml:"velocity_damping"` // Per-tick velocity decay factor
}

// DissolveConfig holds explosive-dispersal parameters.
type DissolveConfig struct {
	Duration     float64 `yaml:"duration"`      // Seconds until dissolve is complete
	BaseForce    float64 `yaml:"base_force"`    // Minimum launch impulse magnitude
	ForceJitter  float64 `yaml:"force_jitter"`  // Random extra impulse magnitude
	AngleJitter  float64 `yaml:"angle_jitter"`  // Max angular deviation from radial (rad)
	ZJitter      float64 `yaml:"z_jitter"`      // Max out-of-plane impulse component
	Turbulence   float64 `yaml:"turbulence"`    // Curl-noise force scale
	NoiseFreq    float64 `yaml:"noise_freq"`    // Turbulence spatial frequency
	Damping      float64 `yaml:"damping"`       // Per-tick velocity decay factor
	OpacityFloor float64 `yaml:"opacity_floor"` // Opacity never decays below this
	FadeRate     float64 `yaml:"fade_rate"`     // Per-second pull toward the floor
}

// VortexConfig holds orbital-swirl parameters.
type VortexConfig struct {
	Swirl        float64 `yaml:"swirl"`         // Tangential force per unit radius
	Containment  float64 `yaml:"containment"`   // Radial pull toward target orbit
	BaseRadius   float64 `yaml:"base_radius"`   // Innermost orbital shell radius
	RadiusSpread float64 `yaml:"radius_spread"` // Spacing between orbital shells
	ShellCount   int     `yaml:"shell_count"`   // Number of orbital shells
	Turbulence   float64 `yaml:"turbulence"`    // Curl-noise force scale
	NoiseFreq    float64 `yaml:"noise_freq"`    // Turbulence spatial frequency
	Damping      float64 `yaml:"damping"`       // Per-tick velocity decay factor
	PulseAmp     float64 `yaml:"pulse_amp"`     // Opacity pulse amplitude
	PulseFreq    float64 `yaml:"pulse_freq"`    // Opacity pulse rate (rad/s)
	BaseOpacity  float64 `yaml:"base_opacity"`  // Center of the opacity pulse
}

// WaveformConfig holds audio-reactive parameters.
type WaveformConfig struct {
	Sensitivity float64 `yaml:"sensitivity"`  // Radial force per unit amplitude
	WaveFreq    float64 `yaml:"wave_freq"`    // Spatial frequency of concentric waves
	WaveSpeed   float64 `yaml:"wave_speed"`   // Outward phase speed (rad/s)
	Tangential  float64 `yaml:"tangential"`   // Constant tangential drift force
	Damping     float64 `yaml:"damping"`      // Per-tick velocity decay factor
	OpacityGain float64 `yaml:"opacity_gain"` // Opacity boost per unit amplitude
	SizeGain    float64 `yaml:"size_gain"`    // Size boost per unit amplitude
	BaseOpacity float64 `yaml:"base_opacity"` // Opacity at zero amplitude
}

// ReformConfig holds spring-convergence parameters.
type ReformConfig struct {
	Duration      float64 `yaml:"duration"`       // Seconds until reform is complete
	StiffnessMin  float64 `yaml:"stiffness_min"`  // Spring stiffness at progress 0
	StiffnessMax  float64 `yaml:"stiffness_max"`  // Spring stiffness at progress 1
	DampingCoef   float64 `yaml:"damping_coef"`   // Spring damper coefficient (per second)
	SpiralForce   float64 `yaml:"spiral_force"`   // Perpendicular spiral force at progress 0
	SnapDistance  float64 `yaml:"snap_distance"`  // Snap to origin below this distance
	SnapProgress  float64 `yaml:"snap_progress"`  // Snapping enabled past this progress
	OpacityTarget float64 `yaml:"opacity_target"` // Opacity restored at full progress
}

// TelemetryConfig holds diagnostics parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // Seconds of simulation per stats window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32         float32 // Physics.DT as float32
	MaxOpacity32 float32 // Physics.MaxOpacity as float32
	MaxSize32    float32 // Physics.MaxSize as float32
	AlphaMin     uint8   // Sampler.AlphaThreshold clamped to uint8
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// Default returns a config built purely from embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// WriteYAML saves the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.MaxOpacity32 = float32(c.Physics.MaxOpacity)
	c.Derived.MaxSize32 = float32(c.Physics.MaxSize)

	alpha := c.Sampler.AlphaThreshold
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 255 {
		alpha = 255
	}
	c.Derived.AlphaMin = uint8(alpha)
}
