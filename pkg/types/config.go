package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RetryConfig controls automatic retries of idempotent requests.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// BaseDelay is the first backoff delay; it doubles on every retry (default 1s).
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay"`
}

// CrawlConfig holds settings for the website crawl stage.
type CrawlConfig struct {
	HTTPConfig `yaml:",inline"`

	Retry RetryConfig `json:"retry" yaml:"retry"`

	// SitemapIndex is the root sitemap-index URL.
	SitemapIndex string `json:"sitemap_index" yaml:"sitemap_index"`

	// MaxSitemaps limits how many child sitemaps are expanded (default 2, 0 = all).
	MaxSitemaps int `json:"max_sitemaps" yaml:"max_sitemaps"`

	// Workers bounds the number of parallel downloads (default 8).
	Workers int `json:"workers" yaml:"workers"`

	// Delay is the pause each worker takes after writing a page (default 500ms).
	Delay time.Duration `json:"delay" yaml:"delay"`

	// HTMLDir receives the downloaded pages.
	HTMLDir string `json:"html_dir" yaml:"html_dir"`

	// ManifestPath is the page manifest CSV.
	ManifestPath string `json:"manifest_path" yaml:"manifest_path"`

	// RespectRobots drops URLs disallowed by the site's robots.txt.
	RespectRobots bool `json:"respect_robots" yaml:"respect_robots"`
}

// AwardConfig holds settings for award metadata extraction.
type AwardConfig struct {
	HTTPConfig `yaml:",inline"`

	// AwardID is the NSF award number (e.g. "2117997").
	AwardID string `json:"award_id" yaml:"award_id"`

	// ManifestPath is the paper metadata CSV.
	ManifestPath string `json:"manifest_path" yaml:"manifest_path"`
}

// AcquisitionConfig holds settings for the PDF acquisition stage.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDelay is the minimum spacing between network downloads.
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// PDFDir receives the downloaded PDFs.
	PDFDir string `json:"pdf_dir" yaml:"pdf_dir"`

	// FailedPath is the failed-entry manifest CSV.
	FailedPath string `json:"failed_path" yaml:"failed_path"`

	// Email is the contact address sent to the open-access lookup service.
	Email string `json:"email" yaml:"email"`

	// RetryFailed makes the run read its input from FailedPath instead of
	// the paper manifest.
	RetryFailed bool `json:"retry_failed" yaml:"retry_failed"`
}

// EmbeddingConfig selects the embedding model server.
type EmbeddingConfig struct {
	// Endpoint is the Ollama base URL (default http://localhost:11434).
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Model is the embedding model name (default all-minilm).
	Model string `json:"model" yaml:"model"`

	// BatchSize is the number of chunks embedded per transaction (default 32).
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// IndexConfig holds settings for building the vector index.
type IndexConfig struct {
	PDFDir  string `json:"pdf_dir" yaml:"pdf_dir"`
	HTMLDir string `json:"html_dir" yaml:"html_dir"`

	// StoreDir holds index.db and export.yaml.
	StoreDir string `json:"store_dir" yaml:"store_dir"`

	// Collection names the chunk collection (default a3d3-knowledge).
	Collection string `json:"collection" yaml:"collection"`

	// ChunkSize and ChunkOverlap are measured in characters (default 1000/150).
	ChunkSize    int `json:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`

	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
}

// ChatConfig holds settings for the chat orchestrator.
type ChatConfig struct {
	// Endpoint is the Ollama base URL for generation.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Model is the generation model name.
	Model string `json:"model" yaml:"model"`

	Temperature float64 `json:"temperature" yaml:"temperature"`
	ContextSize int     `json:"context_size" yaml:"context_size"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`

	// TopK is the number of chunks placed in the prompt (default 2).
	TopK int `json:"top_k" yaml:"top_k"`

	// FetchK is the candidate pool for maximal marginal relevance (default 20).
	FetchK int `json:"fetch_k" yaml:"fetch_k"`

	// MMRLambda trades relevance (1.0) against diversity (0.0).
	MMRLambda float64 `json:"mmr_lambda" yaml:"mmr_lambda"`

	// UseRAG is the initial state of the retrieval toggle.
	UseRAG bool `json:"use_rag" yaml:"use_rag"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Crawl       CrawlConfig       `json:"crawl" yaml:"crawl"`
	Award       AwardConfig       `json:"award" yaml:"award"`
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition"`
	Index       IndexConfig       `json:"index" yaml:"index"`
	Chat        ChatConfig        `json:"chat" yaml:"chat"`
}

// DefaultUserAgent is sent when no User-Agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"

// DefaultPipelineConfig returns the configuration used when no config file
// or flag overrides a value. Paths are relative to the working directory.
func DefaultPipelineConfig() PipelineConfig {
	http := HTTPConfig{Timeout: 15 * time.Second, UserAgent: DefaultUserAgent}
	embedding := EmbeddingConfig{
		Endpoint:  "http://localhost:11434",
		Model:     "all-minilm",
		BatchSize: 32,
	}
	return PipelineConfig{
		Crawl: CrawlConfig{
			HTTPConfig:   http,
			Retry:        RetryConfig{MaxRetries: 5, BaseDelay: time.Second},
			SitemapIndex: "https://a3d3.ai/sitemap_index.xml",
			MaxSitemaps:  2,
			Workers:      8,
			Delay:        500 * time.Millisecond,
			HTMLDir:      "data/htmls",
			ManifestPath: "data/a3d3_webs.csv",
		},
		Award: AwardConfig{
			HTTPConfig:   http,
			AwardID:      "2117997",
			ManifestPath: "data/nsf_award_papers_filtered.csv",
		},
		Acquisition: AcquisitionConfig{
			HTTPConfig:    http,
			DownloadDelay: 0,
			PDFDir:        "data/pdfs",
			FailedPath:    "data/failed_pdfs.csv",
			Email:         "test@gmail.com",
		},
		Index: IndexConfig{
			PDFDir:       "data/pdfs",
			HTMLDir:      "data/htmls",
			StoreDir:     "rag",
			Collection:   "a3d3-knowledge",
			ChunkSize:    1000,
			ChunkOverlap: 150,
			Embedding:    embedding,
		},
		Chat: ChatConfig{
			Endpoint:    "http://localhost:11434",
			Model:       "olmo2:7b-instruct-q4_K_M",
			Temperature: 0.8,
			ContextSize: 2048,
			MaxTokens:   512,
			TopK:        2,
			FetchK:      20,
			MMRLambda:   0.5,
			UseRAG:      true,
		},
	}
}
