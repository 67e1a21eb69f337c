package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	API    APIConfig    `yaml:"api"`
	Login  LoginConfig  `yaml:"login"`
	Tasks  TasksConfig  `yaml:"tasks"`
	Store  StoreConfig  `yaml:"store"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	PagesDir       string   `yaml:"pages_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type APIConfig struct {
	Server    string        `yaml:"server"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	Proxy     ProxyConfig   `yaml:"proxy"`
}

type ProxyConfig struct {
	Enable bool   `yaml:"enable"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
}

type LoginConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

type TasksConfig struct {
	SignInInterval time.Duration `yaml:"sign_in_interval"`
	RewardInterval time.Duration `yaml:"reward_interval"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the configuration used for any field the config file
// leaves unset. The API server default matches the public
// NeteaseCloudMusicApi deployment the original service targets.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		API: APIConfig{
			Server:    "https://netease-cloud-music-api-binaryify.vercel.app/",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/95.0.4638.69 Safari/537.36",
			Timeout:   45 * time.Second,
		},
		Login: LoginConfig{
			PollInterval: 5 * time.Second,
		},
		Tasks: TasksConfig{
			SignInInterval: 4 * time.Hour,
			RewardInterval: 3 * time.Hour,
		},
		Store: StoreConfig{
			Path: "accounts.json",
		},
	}
}
