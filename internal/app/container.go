package app

import (
	"fmt"
	"time"

	"github.com/ochronus/gosendspace/internal/config"
	"github.com/ochronus/gosendspace/internal/services/sendspace"
	"github.com/sirupsen/logrus"
)

// Container centralizes the core dependencies used across the application.
// It is intentionally small and uses interfaces so callers (and tests) can
// substitute implementations easily.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	Client sendspace.ClientAPI
}

// Option allows customizing the container during construction.
type Option func(*Container) error

// WithLogger overrides the default logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Container) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.Logger = logger
		return nil
	}
}

// WithClient overrides the default Sendspace client.
func WithClient(client sendspace.ClientAPI) Option {
	return func(c *Container) error {
		if client == nil {
			return fmt.Errorf("sendspace client cannot be nil")
		}
		c.Client = client
		return nil
	}
}

// NewContainer builds a Container with sensible defaults derived from cfg.
// Options can be supplied to override specific dependencies (useful in tests).
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	container := &Container{
		Config: cfg,
		Logger: buildDefaultLogger(cfg.Loglevel),
	}

	// Apply options early so tests can inject mocks before defaults are created.
	for _, opt := range opts {
		if err := opt(container); err != nil {
			return nil, err
		}
	}

	if container.Client == nil {
		client, err := buildClient(cfg, container.Logger)
		if err != nil {
			return nil, err
		}
		container.Client = client
	}

	return container, nil
}

func buildDefaultLogger(levelStr string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

func buildClient(cfg *config.Config, logger *logrus.Logger) (*sendspace.Client, error) {
	opts := []sendspace.Option{
		sendspace.WithLogger(logger),
		sendspace.WithSpeedLimit(cfg.SpeedLimit),
		sendspace.WithStrictFileSize(cfg.StrictFileSize),
	}
	if cfg.APIURL != "" {
		opts = append(opts, sendspace.WithBaseURL(cfg.APIURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, sendspace.WithTimeout(time.Duration(cfg.Timeout)*time.Second))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, sendspace.WithUserAgent(cfg.UserAgent))
	}

	client, err := sendspace.NewClient(cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sendspace client: %w", err)
	}
	return client, nil
}

// UploadOptions returns the configured upload.getinfo defaults.
func (c *Container) UploadOptions() sendspace.UploadOptions {
	up := c.Config.Upload
	opts := sendspace.UploadOptions{
		sendspace.OptionDescription:    up.Description,
		sendspace.OptionPassword:       up.Password,
		sendspace.OptionFolderID:       up.FolderID,
		sendspace.OptionRecipientEmail: up.RecipientEmail,
		sendspace.OptionRedirectURL:    up.RedirectURL,
	}
	if up.NotifyUploader {
		opts[sendspace.OptionNotifyUploader] = "1"
	}
	return opts
}
