package config

import "time"

type App struct {
	Port          string        `env:"APP_PORT" default:"8080"`
	DatabaseURL   string        `env:"DATABASE_URL,required"`
	JWTSecret     string        `env:"JWT_SECRET,required"`
	Env           string        `env:"APP_ENV" default:"dev"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" default:"1m"`
}
