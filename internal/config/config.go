package config

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v8"
)

const (
	DriverFirestore = "firestore"
	DriverRTDB      = "rtdb"
	DriverMemory    = "memory"
)

const (
	// InteractionsAuto picks the root from the driver.
	InteractionsAuto = "auto"
	// defaultInteractionsRoot is where the mobile app keeps likes and comments.
	defaultInteractionsRoot = "interactions"
)

type Database struct {
	Driver       string        `env:"DATABASE_DRIVER" envDefault:"firestore"`
	Url          string        `env:"FIREBASE_DATABASE_URL"`
	PollInterval time.Duration `env:"RTDB_POLL_INTERVAL" envDefault:"2s"`
	// InteractionsRoot prefixes the likes and comments nodes. "/" means no prefix.
	InteractionsRoot string `env:"INTERACTIONS_ROOT" envDefault:"auto"`
}

// Firebase is marshalled as the service account json, so the json tags must
// follow the google credentials format.
type Firebase struct {
	Type                    string        `env:"FIREBASE_TYPE" envDefault:"service_account" json:"type"`
	ProjectId               string        `env:"FIREBASE_PROJECT_ID" json:"project_id"`
	PrivateKeyId            string        `env:"FIREBASE_PRIVATE_KEY_ID" json:"private_key_id"`
	PrivateKey              string        `env:"FIREBASE_PRIVATE_KEY" json:"private_key"`
	ClientEmail             string        `env:"FIREBASE_CLIENT_EMAIL" json:"client_email"`
	ClientId                string        `env:"FIREBASE_CLIENT_ID" json:"client_id"`
	AuthUri                 string        `env:"FIREBASE_AUTH_URI" envDefault:"https://accounts.google.com/o/oauth2/auth" json:"auth_uri"`
	TokenUri                string        `env:"FIREBASE_TOKEN_URI" envDefault:"https://oauth2.googleapis.com/token" json:"token_uri"`
	AuthProviderX509CertUrl string        `env:"FIREBASE_AUTH_PROVIDER_X509_CERT_URL" envDefault:"https://www.googleapis.com/oauth2/v1/certs" json:"auth_provider_x509_cert_url"`
	ClientX509CertUrl       string        `env:"FIREBASE_CLIENT_X509_CERT_URL" json:"client_x509_cert_url"`
	WriteTimeout            time.Duration `env:"FIREBASE_WRITE_TIMEOUT" json:"-"`
}

// HasCredentials reports whether a service account was configured. Without it
// the firebase app falls back to application default credentials.
func (f Firebase) HasCredentials() bool {
	return f.PrivateKey != "" && f.ClientEmail != ""
}

type Http struct {
	Addr               string   `env:"HTTP_ADDR" envDefault:":8080"`
	AllowOrigins       []string `env:"HTTP_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`
	RateLimitPerMinute int      `env:"HTTP_RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	RateLimitBurst     int      `env:"HTTP_RATE_LIMIT_BURST" envDefault:"20"`
}

type Redis struct {
	Addr          string        `env:"REDIS_ADDR"`
	Password      string        `env:"REDIS_PASSWORD"`
	DB            int           `env:"REDIS_DB" envDefault:"0"`
	Prefix        string        `env:"REDIS_PREFIX" envDefault:"shopfeed:"`
	FlushInterval time.Duration `env:"REDIS_FLUSH_INTERVAL" envDefault:"30s"`
}

func (r Redis) Enabled() bool {
	return r.Addr != ""
}

type Feed struct {
	AdInterval      int  `env:"FEED_AD_INTERVAL" envDefault:"2"`
	IncludeImageAds bool `env:"FEED_INCLUDE_IMAGE_ADS" envDefault:"false"`
	PageSize        int  `env:"FEED_PAGE_SIZE" envDefault:"10"`
	MaxPageSize     int  `env:"FEED_MAX_PAGE_SIZE" envDefault:"50"`
	// PriceStyle is "plain" ("USD 19.99") or "locale" ("$19.99" for en-US).
	PriceStyle  string `env:"FEED_PRICE_STYLE" envDefault:"plain"`
	PriceLocale string `env:"FEED_PRICE_LOCALE" envDefault:"en-US"`
}

// DemoUser is used when a request carries no user headers.
type DemoUser struct {
	UserId     string `env:"DEMO_USER_ID" envDefault:"user_demo_123"`
	UserName   string `env:"DEMO_USER_NAME" envDefault:"Demo User"`
	UserAvatar string `env:"DEMO_USER_AVATAR"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

type Config struct {
	Database
	Firebase
	Http
	Redis
	Feed
	DemoUser
	Log
}

func LoadConfigOrPanic() Config {
	config, err := Load()
	if err != nil {
		panic(err)
	}
	return config
}

func Load() (Config, error) {
	var config *Config = new(Config)
	if err := env.Parse(config); err != nil {
		return Config{}, err
	}

	if err := config.normalize(); err != nil {
		return Config{}, err
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return *config, nil
}

func (c *Config) normalize() error {

	if c.Firebase.PrivateKey != "" {
		decodedBytes, err := base64.StdEncoding.DecodeString(c.Firebase.PrivateKey)
		if err != nil {
			return fmt.Errorf("decode FIREBASE_PRIVATE_KEY: %w", err)
		}
		c.Firebase.PrivateKey = string(decodedBytes)
		c.Firebase.PrivateKey = strings.ReplaceAll(c.Firebase.PrivateKey, "\\n", "\n")
	}

	if c.WriteTimeout == 0 {
		c.WriteTimeout = time.Second * 30
	}

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))

	root := strings.TrimSpace(c.Database.InteractionsRoot)
	if strings.EqualFold(root, InteractionsAuto) {
		// in firestore the second segment is a document, so a prefix would
		// put the likes of every video into one document
		root = defaultInteractionsRoot
		if c.Database.Driver == DriverFirestore {
			root = ""
		}
	}
	c.Database.InteractionsRoot = strings.Trim(root, "/")

	if c.Feed.PageSize <= 0 {
		c.Feed.PageSize = 10
	}
	if c.Feed.MaxPageSize < c.Feed.PageSize {
		c.Feed.MaxPageSize = c.Feed.PageSize
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverMemory:
	case DriverFirestore:
		if c.Firebase.ProjectId == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for the %s driver", c.Database.Driver)
		}
	case DriverRTDB:
		if c.Database.Url == "" {
			return fmt.Errorf("FIREBASE_DATABASE_URL is required for the %s driver", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.Database.Driver)
	}

	if root := c.Database.InteractionsRoot; root != "" {
		for _, seg := range strings.Split(root, "/") {
			if seg == "" || strings.ContainsAny(seg, ".#$[]") {
				return fmt.Errorf("INTERACTIONS_ROOT %q is not a valid path", root)
			}
		}
	}

	if c.Feed.AdInterval < 0 {
		return fmt.Errorf("FEED_AD_INTERVAL must not be negative")
	}
	return nil
}
