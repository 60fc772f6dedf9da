package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	SMTP   SMTPConfig
	AMQP   AMQPConfig
	Chat   ChatConfig
}

type ServerConfig struct {
	Address   string
	JWTSecret string
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     int
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

// ChatConfig 集中聊天與交接流程的時間參數
type ChatConfig struct {
	HeartbeatInterval  time.Duration // 前端心跳的預期間隔，也是 lastSeen 回寫的節流間隔
	ConfirmationWindow time.Duration // 慈善機構確認收件的期限
	SweepInterval      time.Duration // 到期掃描的執行間隔
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./internal/config")

	viper.SetDefault("chat.heartbeatinterval", 30*time.Second)
	viper.SetDefault("chat.confirmationwindow", 24*time.Hour)
	viper.SetDefault("chat.sweepinterval", time.Hour)
	viper.SetDefault("amqp.exchange", "foodshare.notifications")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
