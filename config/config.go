package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath      string
	DatabaseURL string // optional Postgres warehouse
	ResultsDir  string
	LogLevel    string
	Scheduler   SchedulerConfig
	Scraper     ScraperConfig
	Proxy       ProxyConfig
	S3          S3Config
	Filters     map[string]*FilterConfig
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type ScraperConfig struct {
	MaxRetries          int
	DetailTimeout       time.Duration
	ItemTimeout         time.Duration
	MaxScrollIterations int // 0 = unbounded
	Headless            bool
}

type ProxyConfig struct {
	URL string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// FilterConfig describes one directory filter: the cohort batch, regions and
// team-size range baked into the listing URL, plus the selectors that locate
// listing items and founder cards on that site.
type FilterConfig struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	BaseURL     string    `yaml:"base_url"`
	Batch       string    `yaml:"batch"`
	Regions     []string  `yaml:"regions"`
	TeamSizeMin int       `yaml:"team_size_min"`
	TeamSizeMax int       `yaml:"team_size_max"`
	Selectors   Selectors `yaml:"selectors"`
}

type Selectors struct {
	Item         string `yaml:"item"`
	ItemName     string `yaml:"item_name"`
	ItemLocation string `yaml:"item_location"`
	FounderCard  string `yaml:"founder_card"`
	FounderName  string `yaml:"founder_name"`
	FounderLinks string `yaml:"founder_links"`
	Anchor       string `yaml:"anchor"`
}

// ListingURL builds the filtered directory URL for this filter.
func (f *FilterConfig) ListingURL() string {
	u, err := url.Parse(f.BaseURL)
	if err != nil {
		return f.BaseURL
	}
	q := u.Query()
	if f.Batch != "" {
		q.Set("batch", f.Batch)
	}
	for _, r := range f.Regions {
		q.Add("regions", r)
	}
	if f.TeamSizeMin > 0 || f.TeamSizeMax > 0 {
		q.Set("team_size", fmt.Sprintf("%d-%d", f.TeamSizeMin, f.TeamSizeMax))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:      getEnv("DB_PATH", "scrooper.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ResultsDir:  getEnv("RESULTS_DIR", "results"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCRAPE_CRON"),
		},
		Scraper: ScraperConfig{
			MaxRetries:          getEnvInt("DETAIL_MAX_RETRIES", 3),
			DetailTimeout:       getEnvDuration("DETAIL_TIMEOUT", 10*time.Second),
			ItemTimeout:         getEnvDuration("ITEM_TIMEOUT", 10*time.Second),
			MaxScrollIterations: getEnvInt("SCROLL_MAX_ITERATIONS", 0),
			Headless:            os.Getenv("HEADLESS") != "false",
		},
		Proxy: ProxyConfig{
			URL: os.Getenv("PROXY_URL"),
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		Filters: make(map[string]*FilterConfig),
	}

	if interval := os.Getenv("SCRAPE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadFilterConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFilterConfigs() error {
	configDir := getEnv("FILTERS_DIR", "config/filters")
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var filter FilterConfig
		if err := yaml.Unmarshal(data, &filter); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if filter.ID == "" {
			return fmt.Errorf("%s: filter id is required", path)
		}

		filter.applySelectorDefaults()
		c.Filters[filter.ID] = &filter
	}

	return nil
}

// DefaultSelectors returns the selector set used when a filter file omits
// its own.
func DefaultSelectors() Selectors {
	var f FilterConfig
	f.applySelectorDefaults()
	return f.Selectors
}

func (f *FilterConfig) applySelectorDefaults() {
	s := &f.Selectors
	if s.Item == "" {
		s.Item = "a[class*='_company_']"
	}
	if s.ItemName == "" {
		s.ItemName = "span[class*='_coName_']"
	}
	if s.ItemLocation == "" {
		s.ItemLocation = "span[class*='_coLocation_']"
	}
	if s.FounderCard == "" {
		s.FounderCard = "div[class*='ycdc-card']"
	}
	if s.FounderName == "" {
		s.FounderName = "div.font-bold"
	}
	if s.FounderLinks == "" {
		s.FounderLinks = "div[class*='space-x-2']"
	}
	if s.Anchor == "" {
		s.Anchor = "a"
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
