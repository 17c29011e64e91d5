package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel     string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort     string `yaml:"http-port" env:"HTTP_PORT" env-default:"8000"`
	SocketPort   string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8001"`
	JWTSecretKey string `yaml:"jwt-secret-key" env:"JWT_SECRET_KEY" env-default:"change-me"`

	Redis  Redis  `yaml:"redis"`
	Engine Engine `yaml:"engine"`

	// GameTTL bounds the lifetime of a game record and a user session.
	GameTTL time.Duration `yaml:"game-ttl" env:"GAME_TTL" env-default:"24h"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Engine points at the external move-selection service. MCTSPath serves the
// medium difficulty, AlphaZeroPath the hard one.
type Engine struct {
	BaseURL       string        `yaml:"base-url" env:"ENGINE_BASE_URL" env-default:"http://localhost:8081"`
	MCTSPath      string        `yaml:"mcts-path" env-default:"/mcts"`
	AlphaZeroPath string        `yaml:"alphazero-path" env-default:"/alphazero"`
	Timeout       time.Duration `yaml:"timeout" env:"ENGINE_TIMEOUT" env-default:"3s"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
