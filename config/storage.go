package config

import "strings"

// StorageConfig contains drawing object storage configuration. Any
// S3-compatible endpoint works; MinIO is the development default.
type StorageConfig struct {
	Endpoint  string `env:"ENDPOINT"   envDefault:"http://localhost:9000"`
	Region    string `env:"REGION"     envDefault:"us-east-1"`
	AccessKey string `env:"ACCESS_KEY" envDefault:"partkeep"`
	SecretKey string `env:"SECRET_KEY" envDefault:"partkeep"`
	Bucket    string `env:"BUCKET"     envDefault:"partkeep-drawings"`

	// Enabled controls whether drawing uploads are available. When false
	// components can still be submitted, just without attached PDFs.
	Enabled bool `env:"ENABLED" envDefault:"true"`
}

// Sanitize applies guardrails to storage configuration values.
func (s *StorageConfig) Sanitize() {
	s.Endpoint = strings.TrimSpace(s.Endpoint)
	s.Bucket = strings.TrimSpace(s.Bucket)
	if s.Endpoint == "" || s.Bucket == "" {
		s.Enabled = false
	}
}
