package config

type Config interface {
	EnvConfig
	TokenConfig
	StoreConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Tokens
	Store
	Cors
}

func New() Config {
	return mainConfig{}
}
