package workflow

import (
	"database/sql"
	"fmt"
	"time"
	configlibsql "visaworkflow-backend/lib/configutil/libsql"
	"visaworkflow-backend/lib/notify"
	"visaworkflow-backend/lib/posts"
	"visaworkflow-backend/lib/recordstore"
	"visaworkflow-backend/lib/scrapers/embassy"
)

const (
	SourceStatic  = "static"
	SourceFile    = "file"
	SourceEmbassy = "embassy"
)

type EmbassyConfig struct {
	UrlTemplate      string `json:"url_template"`
	Timeout          string `json:"timeout"`
	RetryCount       int    `json:"retry_count"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
	UserAgent        string `json:"user_agent"`
}

func (c EmbassyConfig) Options() (embassy.Options, error) {
	opts := embassy.Options{
		UrlTemplate:      c.UrlTemplate,
		RetryCount:       c.RetryCount,
		CloudflareBypass: c.CloudflareBypass,
		UserAgent:        c.UserAgent,
	}
	if c.Timeout != "" {
		timeout, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return embassy.Options{}, fmt.Errorf("embassy timeout: %w", err)
		}
		opts.Timeout = timeout
	}
	return opts, nil
}

type SourceConfig struct {
	// Kind is one of static, file or embassy.
	Kind     string        `json:"kind"`
	DataFile string        `json:"data_file"`
	Embassy  EmbassyConfig `json:"embassy"`
	// CacheTTL enables a read-through cache in the record store when set.
	CacheTTL string `json:"cache_ttl"`
}

type RefreshConfig struct {
	Interval string   `json:"interval"`
	Targets  []Target `json:"targets"`
}

func (c RefreshConfig) IntervalDuration() (time.Duration, error) {
	if c.Interval == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Interval)
}

type Config struct {
	Source SourceConfig `json:"source"`
	// Database is required by the cache and the refresh daemon.
	Database *configlibsql.Struct `json:"database"`
	// Posts replaces the built-in post directory when it is not empty.
	Posts   map[string]posts.Post `json:"posts"`
	Notify  notify.Config         `json:"notify"`
	Refresh RefreshConfig         `json:"refresh"`
}

func (c Config) Validate() error {
	switch c.Source.Kind {
	case "", SourceStatic:
	case SourceFile:
		if c.Source.DataFile == "" {
			return fmt.Errorf("source.data_file is required for the file source")
		}
	case SourceEmbassy:
		if c.Source.Embassy.UrlTemplate == "" {
			return fmt.Errorf("source.embassy.url_template is required for the embassy source")
		}
	default:
		return fmt.Errorf("unknown source kind %q (choose from static, file, embassy)", c.Source.Kind)
	}

	if c.Source.CacheTTL != "" {
		_, err := time.ParseDuration(c.Source.CacheTTL)
		if err != nil {
			return fmt.Errorf("source.cache_ttl: %w", err)
		}
		if c.Database == nil {
			return fmt.Errorf("source.cache_ttl requires a database")
		}
	}

	interval, err := c.Refresh.IntervalDuration()
	if err != nil {
		return fmt.Errorf("refresh.interval: %w", err)
	}
	if interval > 0 && len(c.Refresh.Targets) > 0 && c.Database == nil {
		return fmt.Errorf("the refresh daemon requires a database")
	}

	if c.Database != nil {
		err := c.Database.Validate()
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	return c.Notify.Validate()
}

// SourceKind is the configured source kind, static when unset.
func (c Config) SourceKind() string {
	if c.Source.Kind == "" {
		return SourceStatic
	}
	return c.Source.Kind
}

func (c Config) Directory() posts.Directory {
	if len(c.Posts) == 0 {
		return posts.DefaultDirectory()
	}
	return posts.NewDirectory(c.Posts)
}

// OpenUpstream builds the configured source without any caching.
func (c Config) OpenUpstream() (DataSource, error) {
	switch c.SourceKind() {
	case SourceStatic:
		return MockSource(), nil
	case SourceFile:
		return LoadFileSource(c.Source.DataFile)
	case SourceEmbassy:
		opts, err := c.Source.Embassy.Options()
		if err != nil {
			return nil, err
		}
		client, err := embassy.NewClient(opts)
		if err != nil {
			return nil, err
		}
		return NewEmbassySource(client), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}
}

// OpenDataSource builds the configured source, wrapped in a cache over
// database when a cache ttl is configured. database may be nil otherwise.
func (c Config) OpenDataSource(database *sql.DB) (DataSource, error) {
	upstream, err := c.OpenUpstream()
	if err != nil {
		return nil, err
	}
	if c.Source.CacheTTL == "" {
		return upstream, nil
	}
	if database == nil {
		return nil, fmt.Errorf("source.cache_ttl requires a database")
	}
	ttl, err := time.ParseDuration(c.Source.CacheTTL)
	if err != nil {
		return nil, err
	}
	return NewCachedSource(upstream, recordstore.NewStore(database), ttl, c.SourceKind()), nil
}
