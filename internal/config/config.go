package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"        validate:"required"`
	Redis        RedisConfig        `mapstructure:"redis"         validate:"required"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Auth         AuthConfig         `mapstructure:"auth"          validate:"required"`
	Publish      PublishConfig      `mapstructure:"publish"       validate:"required"`
	Callback     CallbackConfig     `mapstructure:"callback"`
	ContentStore ContentStoreConfig `mapstructure:"content_store" validate:"required"`
	Notify       NotifyConfig       `mapstructure:"notify"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// RedisConfig contains connection settings for the keyed store backing
// task and callback persistence.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"   validate:"gte=0"`
}

// DatabaseConfig contains settings for the optional audit log sink.
// When URL is empty the audit log is disabled.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// Identity describes one caller allowed to use the publish endpoint.
// PasswordHash is a bcrypt hash; plaintext passwords are never stored.
type Identity struct {
	Username     string `mapstructure:"username"      validate:"required"`
	PasswordHash string `mapstructure:"password_hash" validate:"required"`
	CanPublish   bool   `mapstructure:"can_publish"`
}

// AuthConfig contains authentication and signing settings. The two
// secret materials are hashed together to derive the key that encrypts
// the webhook signing secret at rest.
type AuthConfig struct {
	SecretMaterial string     `mapstructure:"secret_material" validate:"required,min=16"`
	SecretSalt     string     `mapstructure:"secret_salt"     validate:"required,min=16"`
	AdminJWTSecret string     `mapstructure:"admin_jwt_secret" validate:"omitempty,min=32"`
	Identities    []Identity `mapstructure:"identities"`
}

// PublishConfig contains publication defaults and admission limits.
type PublishConfig struct {
	DefaultStatus    string   `mapstructure:"default_status"     validate:"required,oneof=draft pending-review published"`
	DefaultPostType  string   `mapstructure:"default_post_type"  validate:"required"`
	AllowedPostTypes []string `mapstructure:"allowed_post_types" validate:"required,min=1"`
	DefaultCategory  string   `mapstructure:"default_category"   validate:"required"`
}

// CallbackConfig contains the destination for outbound status
// callbacks. Both fields must be set for delivery to happen; the
// dispatcher discards callbacks when either is missing.
type CallbackConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
	Key string `mapstructure:"key"`
}

// ContentStoreConfig contains the remote content store endpoint and
// credentials.
type ContentStoreConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	Token   string `mapstructure:"token"    validate:"required"`
}

// NotifyConfig contains the operator notification channel settings.
// When SMTPAddr is empty, notifications fall back to error-level logs.
type NotifyConfig struct {
	SMTPAddr string `mapstructure:"smtp_addr"`
	From     string `mapstructure:"from" validate:"omitempty,email"`
	To       string `mapstructure:"to"   validate:"omitempty,email"`
}
