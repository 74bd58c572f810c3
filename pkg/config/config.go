package config

import (
	"fmt"
	"time"
)

// Config represents the complete configuration for the agent service.
// It is constructed once at process start from environment variables and is
// immutable thereafter (tests excepted).
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Google     GoogleConfig     `koanf:"google"`
	MCP        MCPConfig        `koanf:"mcp"`
	RequestLog RequestLogConfig `koanf:"request_log"`
}

// ServerConfig contains the HTTP serving surface configuration.
type ServerConfig struct {
	Host             string `koanf:"host"               env:"AGENT_HOST"`
	Port             int    `koanf:"port"               env:"AGENT_PORT"`
	SSLKeyfile       string `koanf:"ssl_keyfile"        env:"AGENT_SSL_KEYFILE"`
	SSLCertfile      string `koanf:"ssl_certfile"       env:"AGENT_SSL_CERTFILE"`
	LogLevel         string `koanf:"log_level"          env:"PYTHON_LOG_LEVEL"`
	UseInMemorySaver bool   `koanf:"use_inmemory_saver" env:"USE_INMEMORY_SAVER"`
}

// DatabaseConfig contains the PostgreSQL connection parts.
type DatabaseConfig struct {
	User     string `koanf:"user"     env:"POSTGRES_USER"`
	Password string `koanf:"password" env:"POSTGRES_PASSWORD"`
	DBName   string `koanf:"name"     env:"POSTGRES_DB"`
	Host     string `koanf:"host"     env:"POSTGRES_HOST"`
	Port     int    `koanf:"port"     env:"POSTGRES_PORT"`
}

// GoogleConfig contains the Google Generative AI credential fields.
type GoogleConfig struct {
	APIKey string `koanf:"api_key" env:"GOOGLE_API_KEY"`
	// CredentialsContent is the deprecated combined credential field: base64
	// service-account JSON, a file path, or inline JSON.
	CredentialsContent string `koanf:"credentials_content"  env:"GOOGLE_APPLICATION_CREDENTIALS_CONTENT"`
	ServiceAccountFile string `koanf:"service_account_file" env:"GOOGLE_SERVICE_ACCOUNT_FILE"`
}

// MCPConfig contains the remote tool-server connection parts.
type MCPConfig struct {
	ServerName        string `koanf:"server_name"        env:"MCP_SERVER_NAME"`
	ServerURL         string `koanf:"server_url"         env:"MCP_SERVER_URL"        validate:"omitempty,url"`
	TransportProtocol string `koanf:"transport_protocol" env:"MCP_TRANSPORT_PROTOCOL"`
	// ConnectionTimeoutSeconds bounds the tool-list fetch. The variable is a
	// plain seconds count for compatibility with existing deployments.
	ConnectionTimeoutSeconds int  `koanf:"connection_timeout" env:"MCP_CONNECTION_TIMEOUT" validate:"min=0"`
	SSLVerify                bool `koanf:"ssl_verify"         env:"MCP_SSL_VERIFY"`
}

// Timeout returns the configured tool-fetch timeout as a duration.
func (c *MCPConfig) Timeout() time.Duration {
	return time.Duration(c.ConnectionTimeoutSeconds) * time.Second
}

// RequestLogConfig controls request/response logging on the HTTP surface.
type RequestLogConfig struct {
	Enabled bool `koanf:"enabled"       env:"REQUEST_LOGGING_ENABLED"`
	Headers bool `koanf:"headers"       env:"REQUEST_LOG_HEADERS"`
	Body    bool `koanf:"body"          env:"REQUEST_LOG_BODY"`
	// BodyMaxSize is the maximum body size in bytes to log; 0 means unlimited.
	BodyMaxSize int `koanf:"body_max_size" env:"REQUEST_LOG_BODY_MAX_SIZE" validate:"min=0"`
}

// Default returns the documented defaults for every field. No field is
// required; deployments override through environment variables only.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8081,
			LogLevel:         "INFO",
			UseInMemorySaver: false,
		},
		Database: DatabaseConfig{
			User:     "pgvector",
			Password: "pgvector",
			DBName:   "pgvector",
			Host:     "pgvector",
			Port:     5432,
		},
		MCP: MCPConfig{
			ServerName:               "template-mcp-server",
			ServerURL:                "http://localhost:5001/mcp/",
			TransportProtocol:        "streamable_http",
			ConnectionTimeoutSeconds: 30,
			SSLVerify:                false,
		},
		RequestLog: RequestLogConfig{
			Enabled:     true,
			Headers:     true,
			Body:        false,
			BodyMaxSize: 10240,
		},
	}
}

// DatabaseURI composes the PostgreSQL connection string from the individual
// database fields. It is derived on every call, never cached.
func (c *Config) DatabaseURI() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}
