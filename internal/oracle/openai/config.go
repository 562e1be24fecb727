package openai

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/freightdocs/invoice-matcher/internal/llm"
	"github.com/freightdocs/invoice-matcher/internal/oracle"
)

// Config for the oracle client.
type Config struct {
	APIKey      string
	BaseURL     string // default https://api.openai.com/v1
	Model       string
	Temperature float32
	Timeout     time.Duration
}

type Client struct {
	cfg       Config
	http      *http.Client
	logger    *slog.Logger
	schemaMap map[string]any
	schema    *jsonschema.Schema
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	schemaMap := oracle.BuildVerdictJSONSchema()
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
		schemaMap: schemaMap,
		schema:    llm.MustCompileSchema(schemaMap),
	}
}
