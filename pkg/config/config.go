package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type RateLimitBucketConfig struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	BurstSize         int `yaml:"burstSize"`
}

type RateLimitConfig struct {
	Submit      RateLimitBucketConfig `yaml:"submit"`
	Observation RateLimitBucketConfig `yaml:"observation"`
}

// EstimateConfig holds the heuristic constants behind submit-time completion
// estimates and post-run revenue estimates. They are order-of-magnitude
// numbers, deliberately tunable without code changes.
type EstimateConfig struct {
	BaseMinutes            int     `yaml:"baseMinutes"`
	PerPlatformMinutes     int     `yaml:"perPlatformMinutes"`
	VideoProcessingMinutes int     `yaml:"videoProcessingMinutes"`
	AdCampaignMinutes      int     `yaml:"adCampaignMinutes"`
	RevenuePerPost         float64 `yaml:"revenuePerPost"`
	RevenuePerCampaign     float64 `yaml:"revenuePerCampaign"`
	RevenuePerLink         float64 `yaml:"revenuePerLink"`
}

type BanditConfig struct {
	WindowMinutes        int     `yaml:"windowMinutes"`
	WindowMaxSize        int     `yaml:"windowMaxSize"`
	HalfLifeMinutes      int     `yaml:"halfLifeMinutes"`
	ExplorationCoeff     float64 `yaml:"explorationCoeff"`
	MinShareFloor        float64 `yaml:"minShareFloor"`
	ImprovementCapPct    float64 `yaml:"improvementCapPct"`
	ReallocateThreshold  float64 `yaml:"reallocateThreshold"`
	RewardScale          float64 `yaml:"rewardScale"`
	ScheduleWindows      int     `yaml:"scheduleWindows"`
	ScheduleWindowLength int     `yaml:"scheduleWindowLength"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"serviceName"`
	OTLPEndpoint string  `yaml:"otlpEndpoint"`
	OTLPInsecure bool    `yaml:"otlpInsecure"`
	SampleRatio  float64 `yaml:"sampleRatio"`
}

type Config struct {
	Port          int    `yaml:"port"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	Timezone      string `yaml:"timezone"`
	LogLevel      string `yaml:"logLevel"`
	LogFormat     string `yaml:"logFormat"`
	Env           string `yaml:"env"`

	// AuthSecret signs/validates HS256 bearer tokens on mutating endpoints.
	// Empty is allowed only in dev.
	AuthSecret string `yaml:"authSecret"`

	// GeminiAPIKey enables the LLM-backed idea generator; empty falls back to
	// the static idea sets.
	GeminiAPIKey string `yaml:"geminiApiKey"`
	GeminiModel  string `yaml:"geminiModel"`

	// RenderServiceURL enables the HTTP render farm video generator.
	// RenderPollBackoff shapes the inter-poll delay (fixed, linear,
	// exponential, exp_equal_jitter, exp_full_jitter).
	RenderServiceURL       string `yaml:"renderServiceUrl"`
	RenderPollMaxAttempts  int    `yaml:"renderPollMaxAttempts"`
	RenderPollDelaySeconds int    `yaml:"renderPollDelaySeconds"`
	RenderPollBackoff      string `yaml:"renderPollBackoff"`

	// ArtifactsDir is where fetched render outputs are stored.
	ArtifactsDir string `yaml:"artifactsDir"`

	MaxConcurrentTasks int `yaml:"maxConcurrentTasks"`
	MaxIdeasPerTask    int `yaml:"maxIdeasPerTask"`
	MaxLinksPerIdea    int `yaml:"maxLinksPerIdea"`

	// ArchiveRetentionMinutes bounds how long terminal tasks stay in the
	// in-memory registry before the sweeper moves them out.
	ArchiveRetentionMinutes int `yaml:"archiveRetentionMinutes"`
	ArchiveSweepSeconds     int `yaml:"archiveSweepSeconds"`

	Estimates EstimateConfig  `yaml:"estimates"`
	Bandit    BanditConfig    `yaml:"bandit"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// LoadConfigOptional behaves like LoadConfig but tolerates a missing or empty
// path, returning a defaulted config driven by env vars only.
func LoadConfigOptional(filePath string) (*Config, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		c := &Config{}
		c.applyEnv()
		c.applyDefaults()
		return c, nil
	}
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		c := &Config{}
		c.applyEnv()
		c.applyDefaults()
		return c, nil
	}
	return LoadConfig(filePath)
}

func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.applyEnv()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		c.AuthSecret = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.GeminiAPIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		c.GeminiModel = v
	}
	if v := os.Getenv("RENDER_SERVICE_URL"); v != "" {
		c.RenderServiceURL = v
	}
	if v := os.Getenv("MAX_CONCURRENT_TASKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrentTasks = n
		}
	}
	if v := os.Getenv("MAX_IDEAS_PER_TASK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxIdeasPerTask = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("ENV"); v != "" {
		c.Env = v
	}
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.GeminiModel == "" {
		c.GeminiModel = "gemini-1.5-flash"
	}
	if c.RenderPollMaxAttempts <= 0 {
		c.RenderPollMaxAttempts = 30
	}
	if c.RenderPollDelaySeconds <= 0 {
		c.RenderPollDelaySeconds = 10
	}
	if c.RenderPollBackoff == "" {
		c.RenderPollBackoff = "fixed"
	}
	if c.ArtifactsDir == "" {
		c.ArtifactsDir = "./artifacts"
	}
	if c.MaxConcurrentTasks <= 0 {
		c.MaxConcurrentTasks = 10
	}
	if c.MaxIdeasPerTask <= 0 {
		c.MaxIdeasPerTask = 3
	}
	if c.MaxLinksPerIdea <= 0 {
		c.MaxLinksPerIdea = 3
	}
	if c.ArchiveRetentionMinutes <= 0 {
		c.ArchiveRetentionMinutes = 240
	}
	if c.ArchiveSweepSeconds <= 0 {
		c.ArchiveSweepSeconds = 60
	}

	if c.Estimates.BaseMinutes <= 0 {
		c.Estimates.BaseMinutes = 10
	}
	if c.Estimates.PerPlatformMinutes <= 0 {
		c.Estimates.PerPlatformMinutes = 5
	}
	if c.Estimates.VideoProcessingMinutes <= 0 {
		c.Estimates.VideoProcessingMinutes = 15
	}
	if c.Estimates.AdCampaignMinutes <= 0 {
		c.Estimates.AdCampaignMinutes = 5
	}
	if c.Estimates.RevenuePerPost <= 0 {
		c.Estimates.RevenuePerPost = 12.5
	}
	if c.Estimates.RevenuePerCampaign <= 0 {
		c.Estimates.RevenuePerCampaign = 45
	}
	if c.Estimates.RevenuePerLink <= 0 {
		c.Estimates.RevenuePerLink = 3.2
	}

	if c.Bandit.WindowMinutes <= 0 {
		c.Bandit.WindowMinutes = 360
	}
	if c.Bandit.WindowMaxSize <= 0 {
		c.Bandit.WindowMaxSize = 50
	}
	if c.Bandit.HalfLifeMinutes <= 0 {
		c.Bandit.HalfLifeMinutes = 60
	}
	if c.Bandit.ExplorationCoeff <= 0 {
		c.Bandit.ExplorationCoeff = 1.5
	}
	if c.Bandit.MinShareFloor <= 0 {
		c.Bandit.MinShareFloor = 0.05
	}
	if c.Bandit.ImprovementCapPct <= 0 {
		c.Bandit.ImprovementCapPct = 50
	}
	if c.Bandit.ReallocateThreshold <= 0 {
		c.Bandit.ReallocateThreshold = 0.2
	}
	if c.Bandit.RewardScale <= 0 {
		c.Bandit.RewardScale = 100
	}
	if c.Bandit.ScheduleWindows <= 0 {
		c.Bandit.ScheduleWindows = 3
	}
	if c.Bandit.ScheduleWindowLength <= 0 {
		c.Bandit.ScheduleWindowLength = 2
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "promoq"
	}
	if c.Tracing.SampleRatio <= 0 {
		c.Tracing.SampleRatio = 1.0
	}
}

func (c *Config) Validate() error {
	var errs []string
	env := strings.ToLower(strings.TrimSpace(c.Env))
	dev := env == "dev"

	if strings.TrimSpace(c.AuthSecret) == "" && !dev {
		errs = append(errs, "authSecret is required in non-dev")
	}
	if c.Bandit.MinShareFloor >= 1.0 {
		errs = append(errs, "bandit.minShareFloor must be < 1.0")
	}
	if c.Bandit.WindowMaxSize < 1 {
		errs = append(errs, "bandit.windowMaxSize must be >= 1")
	}
	if c.MaxConcurrentTasks < 1 {
		errs = append(errs, "maxConcurrentTasks must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
