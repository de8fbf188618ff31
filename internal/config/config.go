package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env               string        `mapstructure:"ENV"`
	Port              string        `mapstructure:"PORT"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	AdminKey          string        `mapstructure:"ADMIN_KEY"`
	ClassifierURL     string        `mapstructure:"CLASSIFIER_URL"`
	ClassifierAPIKey  string        `mapstructure:"CLASSIFIER_API_KEY"`
	ClassifierTimeout time.Duration `mapstructure:"CLASSIFIER_TIMEOUT"`
	CORSAllowed       string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	MaxUploadSizeMB   int64         `mapstructure:"MAX_UPLOAD_MB"`

	// Provider scoring weights; see service.ScoreWeights.
	ScoreSpecialty     float64 `mapstructure:"SCORE_SPECIALTY"`
	ScoreRatingMax     float64 `mapstructure:"SCORE_RATING_MAX"`
	ScorePreferred     float64 `mapstructure:"SCORE_PREFERRED"`
	ScoreExperienceMax float64 `mapstructure:"SCORE_EXPERIENCE_MAX"`
	ScoreAvailability  float64 `mapstructure:"SCORE_AVAILABILITY"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("CLASSIFIER_TIMEOUT", "10s")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 20)

	v.SetDefault("SCORE_SPECIALTY", 40)
	v.SetDefault("SCORE_RATING_MAX", 25)
	v.SetDefault("SCORE_PREFERRED", 20)
	v.SetDefault("SCORE_EXPERIENCE_MAX", 10)
	v.SetDefault("SCORE_AVAILABILITY", 15)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
