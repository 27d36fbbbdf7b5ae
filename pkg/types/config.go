package types

import (
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// HTTPConfig holds shared HTTP settings used by stages that talk to the
// vendor APIs.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "kmsync/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// VaultConfig locates the local Markdown archive.
type VaultConfig struct {
	// BaseDir is the archive root. The remaining paths default relative
	// to it when empty.
	BaseDir string `json:"base_dir" yaml:"base_dir" mapstructure:"base_dir"`

	// ArchiveDir holds conversation archives, one month per subdirectory.
	ArchiveDir string `json:"archive_dir" yaml:"archive_dir" mapstructure:"archive_dir"`

	// ThreadsFile is the thread-tracking document.
	ThreadsFile string `json:"threads_file" yaml:"threads_file" mapstructure:"threads_file"`

	// KnowledgeDir holds distilled knowledge notes.
	KnowledgeDir string `json:"knowledge_dir" yaml:"knowledge_dir" mapstructure:"knowledge_dir"`

	// ReviewDir holds generated weekly reviews.
	ReviewDir string `json:"review_dir" yaml:"review_dir" mapstructure:"review_dir"`

	// ProjectsFile is the project-status summary document.
	ProjectsFile string `json:"projects_file" yaml:"projects_file" mapstructure:"projects_file"`

	// StatePath is the sync-state SQLite database. Defaults to
	// BaseDir/.kmsync/state.db.
	StatePath string `json:"state_path" yaml:"state_path" mapstructure:"state_path"`
}

// Validate checks that the vault is locatable.
func (c VaultConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseDir, validation.Required),
	)
}

// WithDefaults fills unset paths relative to BaseDir using the vault's
// conventional layout.
func (c VaultConfig) WithDefaults() VaultConfig {
	def := func(p *string, rel string) {
		if *p == "" {
			*p = filepath.Join(c.BaseDir, rel)
		}
	}
	def(&c.ArchiveDir, "对话归档")
	def(&c.KnowledgeDir, "知识沉淀")
	def(&c.ReviewDir, "复盘报告")
	def(&c.ThreadsFile, "线头追踪.md")
	def(&c.ProjectsFile, "项目状态.md")
	def(&c.StatePath, filepath.Join(".kmsync", "state.db"))
	return c
}

// FeishuConfig holds bitable workspace credentials and tokens.
type FeishuConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	AppID     string `json:"app_id" yaml:"app_id" mapstructure:"app_id"`
	AppSecret string `json:"app_secret,omitempty" yaml:"app_secret,omitempty" mapstructure:"app_secret"`

	// FolderToken is the cloud-document folder detail documents are
	// created in.
	FolderToken string `json:"folder_token" yaml:"folder_token" mapstructure:"folder_token"`

	// BitableToken is the bitable app token. Created by `kmsync init`
	// on first run.
	BitableToken string `json:"bitable_token" yaml:"bitable_token" mapstructure:"bitable_token"`

	// DocHost is the tenant host used to build detail-document links.
	DocHost string `json:"doc_host" yaml:"doc_host" mapstructure:"doc_host"`
}

// Validate checks that API credentials are present.
func (c FeishuConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.AppID, validation.Required),
		validation.Field(&c.AppSecret, validation.Required),
	)
}

// Enabled reports whether the bitable target is configured.
func (c FeishuConfig) Enabled() bool {
	return c.AppID != "" && c.AppSecret != ""
}

// NotionConfig holds page-database credentials.
type NotionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
	DatabaseID string `json:"database_id" yaml:"database_id" mapstructure:"database_id"`
}

// Validate checks that API credentials are present.
func (c NotionConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.APIKey, validation.Required),
		validation.Field(&c.DatabaseID, validation.Required),
	)
}

// Enabled reports whether the page-database target is configured.
func (c NotionConfig) Enabled() bool {
	return c.APIKey != "" && c.DatabaseID != ""
}

// ReportConfig holds settings for the daily/weekly report monitor.
type ReportConfig struct {
	// BitableToken is the daily-report bitable app token.
	BitableToken string `json:"bitable_token" yaml:"bitable_token" mapstructure:"bitable_token"`

	// TableID is the daily-report table within that bitable.
	TableID string `json:"table_id" yaml:"table_id" mapstructure:"table_id"`

	// WebhookURL is the chat-bot webhook notifications post to.
	WebhookURL string `json:"webhook_url" yaml:"webhook_url" mapstructure:"webhook_url"`

	// ExpectedMembers lists everyone who should file a daily report.
	ExpectedMembers []string `json:"expected_members" yaml:"expected_members" mapstructure:"expected_members"`

	// NameMapping maps opaque user identifiers to display names.
	NameMapping map[string]string `json:"name_mapping,omitempty" yaml:"name_mapping,omitempty" mapstructure:"name_mapping"`
}

// Validate checks that the monitor can reach its table and webhook.
func (c ReportConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BitableToken, validation.Required),
		validation.Field(&c.TableID, validation.Required),
		validation.Field(&c.WebhookURL, validation.Required),
	)
}

// SyncConfig holds settings for the sync engine itself.
type SyncConfig struct {
	// DebounceWindow batches filesystem events in watch mode (default 2s).
	DebounceWindow time.Duration `json:"debounce_window" yaml:"debounce_window" mapstructure:"debounce_window"`

	// DocBatchSize caps blocks per document-upload call (default 50, a
	// transport limit of the docx API).
	DocBatchSize int `json:"doc_batch_size" yaml:"doc_batch_size" mapstructure:"doc_batch_size"`
}

// Config groups all stage configurations.
type Config struct {
	Vault  VaultConfig  `json:"vault" yaml:"vault" mapstructure:"vault"`
	Feishu FeishuConfig `json:"feishu" yaml:"feishu" mapstructure:"feishu"`
	Notion NotionConfig `json:"notion" yaml:"notion" mapstructure:"notion"`
	Report ReportConfig `json:"report" yaml:"report" mapstructure:"report"`
	Sync   SyncConfig   `json:"sync" yaml:"sync" mapstructure:"sync"`
}
