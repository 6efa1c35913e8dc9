package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

var lookupEnv = os.LookupEnv

// parseEnv overlays values from environment variables. Unparseable numbers
// are ignored and the previous value is kept.
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("PORT"); ok {
		config.EndpointAddrHTTP = ":" + v
	}
	if v, ok := get("HTTP_ADDR"); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := get("DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := get("JWT_SECRET"); ok {
		config.SecretKey = v
	}
	if v, ok := get("TOKEN_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.TokenValidityDuration = d
		}
	}
	if v, ok := get("BCRYPT_COST"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.BcryptCost = n
		}
	}
	if v, ok := get("CORS_ORIGINS"); ok {
		config.AllowedOrigins = splitList(v)
	}
	if v, ok := get("RATE_LIMIT_PER_MINUTE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.RateLimitPerMinute = n
		}
	}
	if v, ok := get("TRUSTED_PROXIES"); ok {
		config.TrustedProxies = splitList(v)
	}
	if v, ok := get("REDIS_ADDR"); ok {
		config.RedisAddr = v
	}
	if v, ok := get("REDIS_PASSWORD"); ok {
		config.RedisPassword = v
	}
	if v, ok := get("S3_ROOT_USER"); ok {
		config.S3RootUser = v
	}
	if v, ok := get("S3_ROOT_PASSWORD"); ok {
		config.S3RootPassword = v
	}
	if v, ok := get("S3_BUCKET"); ok {
		config.S3Bucket = v
	}
	if v, ok := get("S3_REGION"); ok {
		config.S3Region = v
	}
	if v, ok := get("S3_BASE_ENDPOINT"); ok {
		config.S3BaseEndpoint = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		config.LogLevel = v
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
