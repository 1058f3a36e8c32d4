package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Store    StoreConfig
	Firebase FirebaseConfig
	Session  SessionConfig
	SMTP     SMTPConfig
	Storage  StorageConfig
	Admin    BootstrapAdminConfig
}

// ServerConfig HTTP 服务
type ServerConfig struct {
	Port            string        `env:"SERVER_PORT" envDefault:"8080"`
	GinMode         string        `env:"GIN_MODE" envDefault:"release"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// LogConfig 日志
type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Encoding    string `env:"LOG_ENCODING" envDefault:"console"`
	Development bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
	File        string `env:"LOG_FILE"`
	MaxSizeMB   int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	MaxBackups  int    `env:"LOG_MAX_BACKUPS" envDefault:"7"`
	MaxAgeDays  int    `env:"LOG_MAX_AGE_DAYS" envDefault:"30"`
}

// StoreConfig 数据存储
// Driver: memory | sqlite | postgres | firebase | rest
type StoreConfig struct {
	Driver      string `env:"STORE_DRIVER" envDefault:"sqlite"`
	DSN         string `env:"STORE_DSN" envDefault:"shop_admin.db"`
	RefreshSpec string `env:"STORE_REFRESH_CRON" envDefault:"*/15 * * * * *"`
}

// FirebaseConfig Firebase Realtime Database
type FirebaseConfig struct {
	ProjectID       string `env:"FIREBASE_PROJECT_ID"`
	DatabaseURL     string `env:"FIREBASE_DATABASE_URL"`
	CredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`

	// REST 模式（模拟器或数据库密钥）
	RestURL   string `env:"FIREBASE_REST_URL" envDefault:"http://127.0.0.1:9000"`
	Namespace string `env:"FIREBASE_NAMESPACE"`
	AuthToken string `env:"FIREBASE_AUTH_TOKEN"`
}

// SessionConfig 会话
type SessionConfig struct {
	Secret string        `env:"JWT_SECRET,required"`
	Issuer string        `env:"JWT_ISSUER" envDefault:"shop-admin"`
	TTL    time.Duration `env:"SESSION_TTL" envDefault:"480h"`
}

// SMTPConfig 邮件发送
type SMTPConfig struct {
	Host      string `env:"SMTP_HOST"`
	Port      int    `env:"SMTP_PORT" envDefault:"587"`
	Username  string `env:"SMTP_USERNAME"`
	Password  string `env:"SMTP_PASSWORD"`
	FromName  string `env:"SMTP_FROM_NAME" envDefault:"Shop Admin"`
	FromEmail string `env:"SMTP_FROM_EMAIL"`
}

// StorageConfig 商品图片存储
type StorageConfig struct {
	Provider  string `env:"STORAGE_PROVIDER" envDefault:"local"`
	Bucket    string `env:"AWS_BUCKET"`
	Region    string `env:"AWS_REGION"`
	AccessKey string `env:"AWS_ACCESS_KEY_ID"`
	SecretKey string `env:"AWS_SECRET_ACCESS_KEY"`
	Endpoint  string `env:"AWS_ENDPOINT"` // S3 兼容存储（COS / MinIO）
	CDNDomain string `env:"AWS_CDN_DOMAIN"`
	BasePath  string `env:"STORAGE_BASE_PATH" envDefault:"shop-admin"`
	LocalDir  string `env:"STORAGE_LOCAL_DIR" envDefault:"uploads"`
	LocalURL  string `env:"STORAGE_LOCAL_URL" envDefault:"/uploads"`
}

// BootstrapAdminConfig 首次启动时创建的管理员（不设置则不创建）
type BootstrapAdminConfig struct {
	Email    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	Password string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
	Name     string `env:"BOOTSTRAP_ADMIN_NAME" envDefault:"Administrator"`
}

// Load 读取 .env（可选）并解析环境变量
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	// .env 不存在时直接使用进程环境变量
	_ = godotenv.Load(files...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return cfg, nil
}

// IsRemoteStore 是否为远程存储（需要定时拉取外部变更）
func (c *Config) IsRemoteStore() bool {
	return c.Store.Driver == "firebase" || c.Store.Driver == "rest"
}
