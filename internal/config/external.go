package config

// ExternalConfig configures loading of references outside the corpus.
type ExternalConfig struct {
	// CacheSize bounds the in-memory LRU of loaded externals; 0 disables it.
	CacheSize int       `yaml:"cache_size"`
	S3        S3Config  `yaml:"s3"`
	GCS       GCSConfig `yaml:"gcs"`
}

// S3Config configures the s3:// loader. Any S3-compatible endpoint works.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"` // host[:port], no scheme
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// GCSConfig configures the gs:// loader.
type GCSConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentials_file"` // empty = application default credentials
}

// IsS3Enabled reports whether an S3 endpoint is configured.
func (c *ExternalConfig) IsS3Enabled() bool {
	return c.S3.Endpoint != ""
}

// IsGCSEnabled reports whether the GCS loader should be created.
func (c *ExternalConfig) IsGCSEnabled() bool {
	return c.GCS.Enabled
}
