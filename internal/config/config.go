package config

import (
	"context"
	"fmt"
	"time"

	"github.com/brojonat/influencechain/evm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sethvargo/go-envconfig"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Chain    ChainConfig    `env:",prefix=CHAIN_"`
	Cache    CacheConfig    `env:",prefix=CACHE_"`
	Temporal TemporalConfig `env:",prefix=TEMPORAL_"`
	Auth     AuthConfig     `env:",prefix=AUTH_"`
	CORS     CORSConfig     `env:",prefix=CORS_"`
}

type ServerConfig struct {
	Port        string `env:"PORT,default=8080"`
	Env         string `env:"ENV,default=dev"`
	MaxBodySize int64  `env:"MAX_BODY_SIZE,default=1048576"`
	// RateLimit is requests per minute per client IP.
	RateLimit int `env:"RATE_LIMIT,default=120"`
	// TrustProxy keys the rate limit on the X-Forwarded-For hop appended by
	// the proxy in front of the server. Leave off when clients connect
	// directly, since they can set the header themselves.
	TrustProxy bool `env:"TRUST_PROXY,default=false"`
}

// ChainConfig selects the network and contract set. Every route reads
// through the same client, so there is one RPC fallback.
type ChainConfig struct {
	RPCURL            string        `env:"RPC_URL,default=https://1rpc.io/sepolia"`
	ChainID           int64         `env:"CHAIN_ID,default=11155111"`
	CallTimeout       time.Duration `env:"CALL_TIMEOUT,default=15s"`
	RequestsPerSecond float64       `env:"REQUESTS_PER_SECOND,default=20"`
	Burst             int           `env:"BURST,default=40"`

	PlatformCore    string `env:"PLATFORM_CORE_ADDRESS,default=0x88be409BaD965786B38CDe89587A750338800FD3"`
	CampaignManager string `env:"CAMPAIGN_MANAGER_ADDRESS,default=0x72dE7047B87EC45cC1e3871E39467bC1AF69D65d"`
	PaymentEscrow   string `env:"PAYMENT_ESCROW_ADDRESS,default=0xC01aEC49bA01EDD3d65BB7B12df2176F1D098819"`
	UserRegistry    string `env:"USER_REGISTRY_ADDRESS,default=0xA3406227A5523e79f3956a025CEb8a7c280d647e"`
	AIVerification  string `env:"AI_VERIFICATION_ADDRESS,default=0xFDDa2A840CAe089f046B94E9E6A7A4299B3b9260"`
	PYUSD           string `env:"PYUSD_ADDRESS,default=0xCaC524BcA292aaade2DF8A05cC58F0a65B1B3bB9"`
}

// CacheConfig picks the response cache backend: "memory", "redis" or
// "none".
type CacheConfig struct {
	Backend  string `env:"BACKEND,default=memory"`
	RedisURL string `env:"REDIS_URL,default=redis://localhost:6379/0"`
	Size     int    `env:"SIZE,default=1024"`
}

type TemporalConfig struct {
	Address      string        `env:"ADDRESS,default=localhost:7233"`
	Namespace    string        `env:"NAMESPACE,default=default"`
	TaskQueue    string        `env:"TASK_QUEUE,default=influencechain"`
	PollInterval time.Duration `env:"VERIFICATION_POLL_INTERVAL,default=15s"`
	Timeout      time.Duration `env:"VERIFICATION_TIMEOUT,default=30m"`
}

type AuthConfig struct {
	SecretKey string        `env:"SECRET_KEY"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,default=336h"`
}

type CORSConfig struct {
	Headers []string `env:"HEADERS,default=Authorization,Content-Type,X-Requested-With"`
	Methods []string `env:"METHODS,default=GET,POST,OPTIONS"`
	Origins []string `env:"ORIGINS,default=*"`
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

// LoadFrom is Load over an explicit lookuper, mainly for tests.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

// Addresses parses the configured contract addresses.
func (c *ChainConfig) Addresses() (evm.Addresses, error) {
	var a evm.Addresses
	for _, f := range []struct {
		name string
		raw  string
		dst  *common.Address
	}{
		{"platform core", c.PlatformCore, &a.PlatformCore},
		{"campaign manager", c.CampaignManager, &a.CampaignManager},
		{"payment escrow", c.PaymentEscrow, &a.PaymentEscrow},
		{"user registry", c.UserRegistry, &a.UserRegistry},
		{"ai verification", c.AIVerification, &a.AIVerification},
		{"pyusd", c.PYUSD, &a.PYUSD},
	} {
		if !common.IsHexAddress(f.raw) {
			return evm.Addresses{}, fmt.Errorf("invalid %s address %q", f.name, f.raw)
		}
		*f.dst = common.HexToAddress(f.raw)
	}
	return a, nil
}

// EVMConfig builds the chain client configuration.
func (c *ChainConfig) EVMConfig() (evm.Config, error) {
	addrs, err := c.Addresses()
	if err != nil {
		return evm.Config{}, err
	}
	return evm.Config{
		RPCEndpoint:       c.RPCURL,
		ChainID:           c.ChainID,
		Addresses:         addrs,
		CallTimeout:       c.CallTimeout,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
	}, nil
}

// IsProduction returns true if running in production environment
func (c *ServerConfig) IsProduction() bool {
	return c.Env == "prod"
}
