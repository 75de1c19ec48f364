package internal

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const DEFAULT_HOST = "127.0.0.1"
const DEFAULT_PORT = 9999
const DEFAULT_HTTP_PORT = 9998
const DEFAULT_DATA_DIR = "./data"

// Config is shared by the server binary (all fields) and the client
// (Host and Port only).
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	HTTPPort int    `mapstructure:"http_port"` // <= 0 disables the HTTP API

	DataDir       string `mapstructure:"data_dir"`
	CatalogFile   string `mapstructure:"catalog_file"`
	CatalogIndex  string `mapstructure:"catalog_index"`
	PurchaseFile  string `mapstructure:"purchase_file"`
	PurchaseIndex string `mapstructure:"purchase_index"`

	IndexCache int64 `mapstructure:"index_cache"` // max cached index entries, 0 disables

	LogLevel    string `mapstructure:"log_level"`
	Development bool   `mapstructure:"development"`
	LogFile     string `mapstructure:"log_file"`
}

func DefaultConfig() *Config {
	return &Config{
		Host:          DEFAULT_HOST,
		Port:          DEFAULT_PORT,
		HTTPPort:      DEFAULT_HTTP_PORT,
		DataDir:       DEFAULT_DATA_DIR,
		CatalogFile:   "catalog.dat",
		CatalogIndex:  "catalog.idx",
		PurchaseFile:  "purchases.dat",
		PurchaseIndex: "purchases.idx",
		IndexCache:    1 << 20,
		LogLevel:      "info",
	}
}

// Path resolves name inside the data directory unless it is already absolute.
func (c *Config) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// LoadConfig reads jewelstore.yaml (from path when given, otherwise from "."
// or "./config") and JEWELSTORE_* environment variables on top of
// DefaultConfig. A missing config file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("host", def.Host)
	v.SetDefault("port", def.Port)
	v.SetDefault("http_port", def.HTTPPort)
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("catalog_file", def.CatalogFile)
	v.SetDefault("catalog_index", def.CatalogIndex)
	v.SetDefault("purchase_file", def.PurchaseFile)
	v.SetDefault("purchase_index", def.PurchaseIndex)
	v.SetDefault("index_cache", def.IndexCache)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("development", def.Development)
	v.SetDefault("log_file", def.LogFile)

	v.SetEnvPrefix("JEWELSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("jewelstore")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &cfg, nil
}
