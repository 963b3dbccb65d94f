package models

// MConfig Structure
type MConfig struct {
	Name      string          `yaml:"name" default:"nday-analyzer" validate:"required"`
	Host      string          `yaml:"host" default:"127.0.0.1" validate:"required"`
	Port      int             `yaml:"port" default:"8600" validate:"gt=1024,lte=65535"`
	LogLevel  string          `yaml:"log_level" default:"INFO" validate:"oneof=DEBUG INFO WARNING ERROR"`
	LogFormat string          `yaml:"log_format" default:"console" validate:"oneof=console json"`
	GrpcHost  string          `yaml:"grpc_host" default:"127.0.0.1"`
	GrpcPort  int             `yaml:"grpc_port" default:"0" validate:"gte=0,lte=65535"` // 0 disables gRPC
	Storage   MStorageConfig  `yaml:"storage"`
	Network   MNetworkConfig  `yaml:"network"`
	Cache     MCacheConfig    `yaml:"cache"`
	Analysis  MAnalysisConfig `yaml:"analysis"`
	Sources   []MSourceConfig `yaml:"sources" validate:"required,min=1,dive"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type" default:"sqlite" validate:"oneof=sqlite postgres none"`
	DBPath             string `yaml:"db_path" default:"nday-analyzer.db"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days" default:"90" validate:"gt=0"`
}

type MNetworkConfig struct {
	Enabled            bool     `yaml:"enabled"` // enables the proxy list
	Proxies            []string `yaml:"proxies"`
	RequestTimeout     int      `yaml:"timeout" default:"10" validate:"gt=0"`
	MaxRetries         int      `yaml:"retries" default:"3" validate:"gte=0"`
	RequestsPerSecond  float64  `yaml:"requests_per_second" default:"2" validate:"gt=0"`
	ConcurrentRequests int      `yaml:"concurrent_requests" default:"4" validate:"gt=0"`
	UserAgent          string   `yaml:"user_agent"`
}

type MCacheConfig struct {
	Backend    string `yaml:"backend" default:"memory" validate:"oneof=memory redis none"`
	TTLSeconds int    `yaml:"ttl_seconds" default:"60" validate:"gte=0"`
	RedisAddr  string `yaml:"redis_addr" default:"localhost:6379"`
	RedisDB    int    `yaml:"redis_db"`
	RedisPass  string `yaml:"redis_password"`
	Prefix     string `yaml:"prefix" default:"nday"`
}

type MAnalysisConfig struct {
	Defaults          MAnalysisParams `yaml:"defaults"`
	MaxConcurrency    int             `yaml:"max_concurrency" default:"4" validate:"gt=0"`
	LookaheadPresets  []int           `yaml:"lookahead_presets"`
	DropThresholdMin  float64         `yaml:"drop_threshold_min" default:"0.5"`
	DropThresholdMax  float64         `yaml:"drop_threshold_max" default:"20"`
	DropThresholdStep float64         `yaml:"drop_threshold_step" default:"0.5"`
}

type MSourceConfig struct {
	Name       string `yaml:"name" validate:"required"`
	Type       string `yaml:"type" default:"yahoo" validate:"oneof=yahoo"`
	BaseURL    string `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
	PriceField string `yaml:"price_field" default:"adjclose" validate:"oneof=adjclose close"`
	APIKey     string `yaml:"api_key"` // Optional
}
