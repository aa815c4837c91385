package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// カートの保存先
type StorageKind string

const (
	StorageSession StorageKind = "session"
	StorageDB      StorageKind = "db"
)

// CartConfigは起動時に一度だけ解決し、カートに値で渡す
type CartConfig struct {
	MaxCount                int64       // 1明細あたりの数量上限（1000）
	AllowDeleted            bool        // 削除済み商品も追加可
	AllowUnpublished        bool        // 非公開商品も追加可
	IgnorePerContextScoping bool        // ctxを無視して1つのスコープにまとめる
	Storage                 StorageKind // session / db
	DefaultContext          string      // web
}

func DefaultCartConfig() CartConfig {
	return CartConfig{
		MaxCount:       1000,
		Storage:        StorageSession,
		DefaultContext: "web",
	}
}

// Configはアプリ全体の設定
type Config struct {
	Port     string // サーバーポート（8080）
	GoEnv    string // dev/prod
	LogLevel string // debug/info/warn/error

	JWTSecret string // JWT署名シークレット

	RedisAddr  string        // 空ならメモリ上のセッション
	SessionTTL time.Duration // セッションカートの保持期間

	Cart CartConfig
}

// Loadは環境変数
func Load() (Config, error) {
	cart := DefaultCartConfig()

	maxCount, err := atoiOr("CART_MAX_COUNT", cart.MaxCount)
	if err != nil {
		return Config{}, err
	}
	if maxCount <= 0 {
		return Config{}, fmt.Errorf("CART_MAX_COUNT must be positive")
	}
	cart.MaxCount = maxCount

	if cart.AllowDeleted, err = boolOr("CART_ALLOW_DELETED", false); err != nil {
		return Config{}, err
	}
	if cart.AllowUnpublished, err = boolOr("CART_ALLOW_UNPUBLISHED", false); err != nil {
		return Config{}, err
	}
	if cart.IgnorePerContextScoping, err = boolOr("CART_IGNORE_CONTEXT", false); err != nil {
		return Config{}, err
	}

	switch StorageKind(getenv("CART_STORAGE", string(StorageSession))) {
	case StorageSession:
		cart.Storage = StorageSession
	case StorageDB:
		cart.Storage = StorageDB
	default:
		return Config{}, fmt.Errorf("CART_STORAGE must be session or db")
	}
	cart.DefaultContext = getenv("CART_DEFAULT_CONTEXT", cart.DefaultContext)

	ttl, err := time.ParseDuration(getenv("SESSION_TTL", "168h"))
	if err != nil {
		return Config{}, fmt.Errorf("SESSION_TTL must be duration: %w", err)
	}

	cfg := Config{
		Port:     getenv("PORT", "8080"),
		GoEnv:    getenv("GO_ENV", "dev"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		RedisAddr:  os.Getenv("REDIS_ADDR"),
		SessionTTL: ttl,

		Cart: cart,
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// ":8080" 形式のアドレス
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiOr(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func boolOr(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be bool: %w", key, err)
	}
	return b, nil
}
