package main

import (
	"fmt"
	"time"
)

type Config struct {
	BadgerFilepath string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string        `env:"LOG_LEVEL,default=INFO"`
	Host           string        `env:"HOST,default=localhost"`
	Port           int           `env:"PORT,default=5000"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL,default=15s"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT,default=10s"`
	CensoredWords  []string      `env:"CENSORED_WORDS"`
	CensorMask     string        `env:"CENSOR_MASK,default=*"`
}

// censorRune converts the configured mask into a single rune.
func censorRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("CENSOR_MASK must be a single character, got %q", str)
	}
	return r[0], nil
}
