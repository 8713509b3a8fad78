// Package config gathers every tunable of the watcher. Values are layered: built-in
// defaults, then an optional YAML file, then .env, then environment variables; flags are
// applied last by the binary.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"watcher/browser"
	"watcher/session"
)

const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

type Config struct {
	QueuePath    string `yaml:"queue_path"`
	ExportPath   string `yaml:"export_path"`
	IdentityPath string `yaml:"identity_path"`
	ProfileDir   string `yaml:"profile_dir"`
	LoginURL     string `yaml:"login_url"`

	Browser BrowserConfig `yaml:"browser"`
	Session SessionConfig `yaml:"session"`
	Store   StoreConfig   `yaml:"store"`
	Events  EventsConfig  `yaml:"events"`
	Status  StatusConfig  `yaml:"status"`

	// Selectors replaces individual locator chains; empty fields keep the defaults.
	Selectors session.Selectors `yaml:"selectors"`
}

type BrowserConfig struct {
	Engine         string        `yaml:"engine"`
	Headless       bool          `yaml:"headless"`
	ExecutablePath string        `yaml:"executable_path"`
	DefaultTimeout time.Duration `yaml:"default_timeout"`
}

type SessionConfig struct {
	SettleDelay      time.Duration `yaml:"settle_delay"`
	PopupPause       time.Duration `yaml:"popup_pause"`
	TypingDelay      time.Duration `yaml:"typing_delay"`
	SendAttempts     int           `yaml:"send_attempts"`
	SendBackoff      time.Duration `yaml:"send_backoff"`
	ScreenshotPath   string        `yaml:"screenshot_path"`
	CommentInputWait time.Duration `yaml:"comment_input_wait"`
	ReplyWrapperWait time.Duration `yaml:"reply_wrapper_wait"`
	SendButtonWait   time.Duration `yaml:"send_button_wait"`
}

type StoreConfig struct {
	Backend  string `yaml:"backend"`
	RedisURL string `yaml:"redis_url"`
	RedisKey string `yaml:"redis_key"`
}

type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

type StatusConfig struct {
	Addr string `yaml:"addr"`
}

func Default() Config {
	opts := session.DefaultOptions()
	waits := session.DefaultWaits()
	return Config{
		QueuePath:    "links.json",
		ExportPath:   "videos_progress.xlsx",
		IdentityPath: "user_info.txt",
		ProfileDir:   "PlaywrightUserData",
		LoginURL:     "https://rutube.ru/",
		Browser: BrowserConfig{
			Engine:         browser.EnginePlaywright,
			DefaultTimeout: 30 * time.Second,
		},
		Session: SessionConfig{
			SettleDelay:      opts.SettleDelay,
			PopupPause:       opts.PopupPause,
			TypingDelay:      opts.TypingDelay,
			SendAttempts:     opts.SendAttempts,
			SendBackoff:      opts.SendBackoff,
			ScreenshotPath:   opts.ScreenshotPath,
			CommentInputWait: waits.CommentInput,
			ReplyWrapperWait: waits.ReplyWrapper,
			SendButtonWait:   waits.SendButton,
		},
		Store: StoreConfig{
			Backend:  BackendFile,
			RedisURL: "redis://localhost:6379",
			RedisKey: "watcher:queue",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped when
// path is empty), the .env file in the working directory and the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := godotenv.Load(".env"); err == nil {
		log.Printf("✅ [ENV] Loaded .env file from current directory")
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables looked up through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("WATCHER_QUEUE", &c.QueuePath)
	str("WATCHER_EXPORT", &c.ExportPath)
	str("WATCHER_IDENTITY", &c.IdentityPath)
	str("WATCHER_PROFILE_DIR", &c.ProfileDir)
	str("WATCHER_LOGIN_URL", &c.LoginURL)
	str("WATCHER_BROWSER", &c.Browser.Engine)
	str("PLAYWRIGHT_EXECUTABLE_PATH", &c.Browser.ExecutablePath)
	if v, ok := lookup("WATCHER_HEADLESS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("WATCHER_HEADLESS: %w", err))
		} else {
			c.Browser.Headless = b
		}
	}
	dur("WATCHER_TYPING_DELAY", &c.Session.TypingDelay)
	dur("WATCHER_SEND_BACKOFF", &c.Session.SendBackoff)
	if v, ok := lookup("WATCHER_SEND_ATTEMPTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("WATCHER_SEND_ATTEMPTS: %w", err))
		} else {
			c.Session.SendAttempts = n
		}
	}
	str("WATCHER_SCREENSHOT", &c.Session.ScreenshotPath)
	str("WATCHER_STORE", &c.Store.Backend)
	str("REDIS_URL", &c.Store.RedisURL)
	str("WATCHER_REDIS_KEY", &c.Store.RedisKey)
	str("NATS_URL", &c.Events.NATSURL)
	str("WATCHER_NATS_SUBJECT", &c.Events.Subject)
	str("WATCHER_STATUS_ADDR", &c.Status.Addr)
	return errors.Join(errs...)
}

func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Browser.Engine) {
	case browser.EnginePlaywright, browser.EngineRod:
	default:
		errs = append(errs, fmt.Errorf("unknown browser engine %q", c.Browser.Engine))
	}
	switch c.Store.Backend {
	case BackendFile:
	case BackendRedis:
		if c.Store.RedisKey == "" {
			errs = append(errs, fmt.Errorf("redis store needs a key"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	if c.Session.SendAttempts < 1 {
		errs = append(errs, fmt.Errorf("send_attempts must be at least 1, got %d", c.Session.SendAttempts))
	}
	if c.QueuePath == "" {
		errs = append(errs, fmt.Errorf("queue_path is required"))
	}
	if c.IdentityPath == "" {
		errs = append(errs, fmt.Errorf("identity_path is required"))
	}
	return errors.Join(errs...)
}

// SessionOptions turns the config into driver options, selector overrides included.
func (c Config) SessionOptions() session.Options {
	opts := session.DefaultOptions()
	waits := session.Waits{
		CommentInput: c.Session.CommentInputWait,
		ReplyWrapper: c.Session.ReplyWrapperWait,
		SendButton:   c.Session.SendButtonWait,
	}
	opts.Selectors = session.DefaultSelectors(waits).Merge(c.Selectors)
	opts.SettleDelay = c.Session.SettleDelay
	opts.PopupPause = c.Session.PopupPause
	opts.TypingDelay = c.Session.TypingDelay
	opts.SendAttempts = c.Session.SendAttempts
	opts.SendBackoff = c.Session.SendBackoff
	opts.ScreenshotPath = c.Session.ScreenshotPath
	return opts
}

func (c Config) LaunchOptions() browser.LaunchOptions {
	return browser.LaunchOptions{
		Engine:         strings.ToLower(c.Browser.Engine),
		ProfileDir:     c.ProfileDir,
		Headless:       c.Browser.Headless,
		ExecutablePath: c.Browser.ExecutablePath,
		DefaultTimeout: c.Browser.DefaultTimeout,
	}
}
