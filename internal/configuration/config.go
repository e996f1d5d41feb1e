package configuration

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/pkg/errors"

	"groceryhub/internal/logger"
)

type Config struct {
	ServerAddress  string
	DatabaseURI    string
	RedisURI       string
	MaxiPaliURL    string
	MasxMenosURL   string
	PushKey        string
	LocalStorePath string
	SearchCacheTTL time.Duration
	LogLevel       logger.Level
	LogToFile      bool
	AuthSecretKey  jwk.Key
}

type tomlConfig struct {
	ServerAddress  string `toml:"server_address"`
	DatabaseURI    string `toml:"database_uri"`
	RedisURI       string `toml:"redis_uri"`
	MaxiPaliURL    string `toml:"maxipali_url"`
	MasxMenosURL   string `toml:"masxmenos_url"`
	PushKey        string `toml:"push_key"`
	LocalStorePath string `toml:"local_store_path"`
	SearchCacheTTL string `toml:"search_cache_ttl"`
	LogLevel       string `toml:"log_level"`
	LogToFile      bool   `toml:"log_to_file"`
	AuthSecretKey  string `toml:"auth_secret_key"`
}

func GetConfig(path string) (*Config, error) {
	var tc tomlConfig
	_, err := toml.DecodeFile(path, &tc)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode toml file with path: %s", path)
	}

	if tc.ServerAddress == "" {
		tc.ServerAddress = "localhost:8888"
	}

	if tc.DatabaseURI == "" {
		tc.DatabaseURI = "mongodb://localhost:27017"
	}

	if tc.MaxiPaliURL == "" {
		return nil, errors.New("maxipali_url is not set")
	}
	if tc.MasxMenosURL == "" {
		return nil, errors.New("masxmenos_url is not set")
	}

	if tc.LocalStorePath == "" {
		tc.LocalStorePath = "data/grocery_lists.json"
	}

	if tc.SearchCacheTTL == "" {
		tc.SearchCacheTTL = "15m"
	}
	searchCacheTTL, err := time.ParseDuration(tc.SearchCacheTTL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse search_cache_ttl: %s", tc.SearchCacheTTL)
	}
	if searchCacheTTL < time.Minute {
		return nil, errors.Errorf("search_cache_ttl too short (%v), minimum TTL: 1m", searchCacheTTL)
	}

	if tc.LogLevel == "" {
		tc.LogLevel = "info"
	}
	logLevel, err := logger.ParseLevel(tc.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse log_level: %s", tc.LogLevel)
	}

	if tc.AuthSecretKey == "" {
		return nil, errors.New("auth_secret_key is not set")
	}

	authSecretKey, err := jwk.FromRaw([]byte(tc.AuthSecretKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create key from auth_secret_key")
	}

	return &Config{
		ServerAddress:  tc.ServerAddress,
		DatabaseURI:    tc.DatabaseURI,
		RedisURI:       tc.RedisURI,
		MaxiPaliURL:    tc.MaxiPaliURL,
		MasxMenosURL:   tc.MasxMenosURL,
		PushKey:        tc.PushKey,
		LocalStorePath: tc.LocalStorePath,
		SearchCacheTTL: searchCacheTTL,
		LogLevel:       logLevel,
		LogToFile:      tc.LogToFile,
		AuthSecretKey:  authSecretKey,
	}, nil
}
