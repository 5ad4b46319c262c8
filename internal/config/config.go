package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql or postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	AI struct {
		Provider    string `yaml:"provider"` // vertex or openai
		Location    string `yaml:"location"`
		TextModel   string `yaml:"textModel"`
		VisionModel string `yaml:"visionModel"`
		EmbedModel  string `yaml:"embedModel"`
	} `yaml:"ai"`

	Media struct {
		FrameURLs []string `yaml:"frameUrls"`
		AudioURI  string   `yaml:"audioUri"`
	} `yaml:"media"`

	Audit struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"audit"`

	Trends struct {
		Schedule   string `yaml:"schedule"`
		WindowDays int    `yaml:"windowDays"`
	} `yaml:"trends"`

	RateLimit struct {
		Capacity   int `yaml:"capacity"`
		RefillRate int `yaml:"refillRate"`
	} `yaml:"rateLimit"`
}

// Load baca file config.yaml. Secrets never live in the file: the provider
// key JSON comes from GOOGLE_CLOUD_KEY, the OpenAI key from OPENAI_API_KEY,
// the token-verification secret from JWT_SECRET, and DB_PASSWORD overrides
// the database password when set.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "vertex"
	}
	if len(cfg.Media.FrameURLs) == 0 {
		cfg.Media.FrameURLs = []string{
			"https://example.com/frame1.jpg",
			"https://example.com/frame2.jpg",
		}
	}
	if cfg.Media.AudioURI == "" {
		cfg.Media.AudioURI = "gs://example-bucket/audio.mp3"
	}
	if cfg.Trends.Schedule == "" {
		cfg.Trends.Schedule = "0 6 * * *"
	}
	if cfg.Trends.WindowDays <= 0 {
		cfg.Trends.WindowDays = 7
	}

	return &cfg, nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}
