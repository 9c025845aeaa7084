package config

import (
	"os"
	"strconv"
	"time"
)

// EngineConfig bundles the tunables of the reservation engine: the
// TTL windows for holds and order sessions, the reconciliation sweep
// schedule, and the check-in grace policy.  Holds and sessions are
// created and extended together, so SessionTTL must not be shorter
// than HoldTTL; Load corrects that silently rather than failing.
type EngineConfig struct {
	HoldTTL       time.Duration // lifetime of a seat hold
	SessionTTL    time.Duration // lifetime of an order session
	StaleOrderAge time.Duration // PENDING orders older than this get cancelled
	SweepInterval time.Duration // how often the reconciliation sweeps run
	GraceMinutes  int           // check-in accepted until showtime start + grace
	QRTTLMinutes  int           // default lifetime of a check-in token
	QRRegenLimit  int           // how many times a ticket token may be reissued
}

// LoadEngineConfig reads engine tunables from the environment, falling
// back to production defaults when unset.
func LoadEngineConfig() EngineConfig {
	cfg := EngineConfig{
		HoldTTL:       envDur("HOLD_TTL", 5*time.Minute),
		SessionTTL:    envDur("SESSION_TTL", 10*time.Minute),
		StaleOrderAge: envDur("STALE_ORDER_AGE", 24*time.Hour),
		SweepInterval: envDur("SWEEP_INTERVAL", 24*time.Hour),
		GraceMinutes:  envInt("CHECKIN_GRACE_MIN", 30),
		QRTTLMinutes:  envInt("QR_TTL_MIN", 10),
		QRRegenLimit:  envInt("QR_REGEN_LIMIT", 3),
	}
	if cfg.SessionTTL < cfg.HoldTTL {
		cfg.SessionTTL = cfg.HoldTTL
	}
	if cfg.QRRegenLimit < 1 {
		cfg.QRRegenLimit = 1
	}
	return cfg
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
