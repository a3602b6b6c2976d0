package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// envString returns $HYPBOUND_<key>, or def when unset.
func envString(key, def string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return def
}

// envInt64 returns $HYPBOUND_<key> as an int64, or def when unset or
// malformed.
func envInt64(key string, def int64) int64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return def
}

func envInt(key string, def int) int {
	return int(envInt64(key, int64(def)))
}

// envBool accepts true/1/yes and false/0/no, case-insensitively.
func envBool(key string, def bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return def
}

// envDuration accepts time.ParseDuration syntax ("30s", "1h30m").
func envDuration(key string, def time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return def
}

// isFlagSet reports whether any of names was given on the command line.
func isFlagSet(fs *flag.FlagSet, names ...string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				found = true
			}
		}
	})
	return found
}

// applyEnvOverrides fills every setting whose flag was not given from the
// matching HYPBOUND_* variable, so that flags take precedence over the
// environment and the environment over defaults.
//
// Variables: HYPBOUND_K, _A, _B, _R, _Z, _TK, _TOL, _MAX_ITER, _TIMEOUT,
// _JSON, _QUIET, _NO_COLOR, _BATCH, _CONCURRENCY, _SERVER, _PORT,
// _CACHE_SIZE, _LOG_LEVEL.
func applyEnvOverrides(c *AppConfig, fs *flag.FlagSet) {
	int64s := []struct {
		flag, key string
		dst       *int64
	}{
		{"K", "K", &c.K},
		{"A", "A", &c.A},
		{"B", "B", &c.B},
		{"tol", "TOL", &c.Tol},
		{"max-iter", "MAX_ITER", &c.MaxIterations},
	}
	for _, o := range int64s {
		if !isFlagSet(fs, o.flag) {
			*o.dst = envInt64(o.key, *o.dst)
		}
	}

	ints := []struct {
		flag, key string
		dst       *int
	}{
		{"r", "R", &c.R},
		{"concurrency", "CONCURRENCY", &c.Concurrency},
		{"cache-size", "CACHE_SIZE", &c.CacheSize},
	}
	for _, o := range ints {
		if !isFlagSet(fs, o.flag) {
			*o.dst = envInt(o.key, *o.dst)
		}
	}

	strs := []struct {
		flag, key string
		dst       *string
	}{
		{"z", "Z", &c.Z},
		{"tk", "TK", &c.TK},
		{"batch", "BATCH", &c.BatchFile},
		{"port", "PORT", &c.Port},
		{"log-level", "LOG_LEVEL", &c.LogLevel},
	}
	for _, o := range strs {
		if !isFlagSet(fs, o.flag) {
			*o.dst = envString(o.key, *o.dst)
		}
	}

	if !isFlagSet(fs, "timeout") {
		c.Timeout = envDuration("TIMEOUT", c.Timeout)
	}
	if !isFlagSet(fs, "json") {
		c.JSONOutput = envBool("JSON", c.JSONOutput)
	}
	if !isFlagSet(fs, "quiet", "q") {
		c.Quiet = envBool("QUIET", c.Quiet)
	}
	if !isFlagSet(fs, "no-color") {
		c.NoColor = envBool("NO_COLOR", c.NoColor)
	}
	if !isFlagSet(fs, "server") {
		c.ServerMode = envBool("SERVER", c.ServerMode)
	}
}
