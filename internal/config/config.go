package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string   `env:"HTTP_PORT" envDefault:"8080"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`

	SessionTTLSeconds int `env:"SESSION_TTL_SECONDS" envDefault:"1800"`

	InstagramBaseURL             string  `env:"INSTAGRAM_BASE_URL"`
	InstagramRequestDelaySeconds float64 `env:"INSTAGRAM_REQUEST_DELAY_SECONDS" envDefault:"2"`

	MaxNonFollowersShown int `env:"MAX_NON_FOLLOWERS_SHOWN" envDefault:"100"`
	PostsToAnalyze       int `env:"POSTS_TO_ANALYZE" envDefault:"12"`
	AnalysisWorkers      int `env:"ANALYSIS_WORKERS" envDefault:"4"`

	UnfollowDelaySeconds float64 `env:"UNFOLLOW_DELAY_SECONDS" envDefault:"15"`

	TwoFactorTokenSecret     string `env:"TWO_FACTOR_TOKEN_SECRET,required"`
	TwoFactorTokenTTLMinutes int    `env:"TWO_FACTOR_TOKEN_TTL_MINUTES" envDefault:"5"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Opcional: habilita el historial de analisis en Postgres.
	DatabaseURL string `env:"DATABASE_URL"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
