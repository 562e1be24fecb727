package openai

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/freightdocs/invoice-matcher/internal/extract"
	"github.com/freightdocs/invoice-matcher/internal/llm"
)

// Config for the extraction client.
type Config struct {
	APIKey      string
	BaseURL     string // default https://api.openai.com/v1
	Model       string
	Temperature float32
	Timeout     time.Duration
	// MaxTextChars truncates the document text sent to the model.
	MaxTextChars int
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
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxTextChars <= 0 {
		cfg.MaxTextChars = 12000
	}
	if logger == nil {
		logger = slog.Default()
	}
	schemaMap := extract.BuildInvoiceJSONSchema()
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
		schemaMap: schemaMap,
		schema:    llm.MustCompileSchema(schemaMap),
	}
}
