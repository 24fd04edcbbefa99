package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Clinic   ClinicConfig
	Video    VideoConfig
	Schedule ScheduleConfig
	Notify   NotifyConfig
}

type AppConfig struct {
	Port     string
	Env      string
	Timezone string
	LogLevel string
}

type DBConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxIdleConns int
	MaxOpenConns int
	Debug        bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// ClinicConfig holds the time windows of the appointment workflow.
type ClinicConfig struct {
	CheckInLead         time.Duration
	CancelCutoff        time.Duration
	VideoJoinLead       time.Duration
	NoShowGrace         time.Duration
	NoShowSweepInterval time.Duration
	BookingLockTTL      time.Duration
}

type VideoConfig struct {
	AppID           string
	Secret          string
	TokenTTL        time.Duration
	RenewInterval   time.Duration
	ProviderTimeout time.Duration
}

// ScheduleConfig selects where doctor shifts come from: "db" or "http".
type ScheduleConfig struct {
	Provider string
	BaseURL  string
	Timeout  time.Duration
	Retries  int
}

// NotifyConfig selects the notification transport: "redis", "mqtt" or "none".
type NotifyConfig struct {
	Driver          string
	Stream          string
	MQTTBroker      string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string
	Timeout         time.Duration
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	setDefaults()

	config := &Config{
		App: AppConfig{
			Port:     viper.GetString("APP_PORT"),
			Env:      viper.GetString("APP_ENV"),
			Timezone: viper.GetString("APP_TIMEZONE"),
			LogLevel: viper.GetString("LOG_LEVEL"),
		},
		DB: DBConfig{
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASSWORD"),
			Name:         viper.GetString("DB_NAME"),
			SSLMode:      viper.GetString("DB_SSLMODE"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
			Debug:        viper.GetBool("DB_DEBUG"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       viper.GetString("JWT_SECRET"),
			AccessExpiry: duration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		},
		Clinic: ClinicConfig{
			CheckInLead:         duration("CLINIC_CHECKIN_LEAD", 2*time.Hour),
			CancelCutoff:        duration("CLINIC_CANCEL_CUTOFF", 24*time.Hour),
			VideoJoinLead:       duration("CLINIC_VIDEO_JOIN_LEAD", time.Hour),
			NoShowGrace:         duration("CLINIC_NO_SHOW_GRACE", 30*time.Minute),
			NoShowSweepInterval: duration("CLINIC_NO_SHOW_SWEEP_INTERVAL", 5*time.Minute),
			BookingLockTTL:      duration("CLINIC_BOOKING_LOCK_TTL", 5*time.Second),
		},
		Video: VideoConfig{
			AppID:           viper.GetString("VIDEO_APP_ID"),
			Secret:          viper.GetString("VIDEO_SECRET"),
			TokenTTL:        duration("VIDEO_TOKEN_TTL", time.Hour),
			RenewInterval:   duration("VIDEO_RENEW_INTERVAL", 30*time.Minute),
			ProviderTimeout: duration("VIDEO_PROVIDER_TIMEOUT", 3*time.Second),
		},
		Schedule: ScheduleConfig{
			Provider: viper.GetString("SCHEDULE_PROVIDER"),
			BaseURL:  viper.GetString("SCHEDULE_BASE_URL"),
			Timeout:  duration("SCHEDULE_TIMEOUT", 3*time.Second),
			Retries:  viper.GetInt("SCHEDULE_RETRIES"),
		},
		Notify: NotifyConfig{
			Driver:          viper.GetString("NOTIFY_DRIVER"),
			Stream:          viper.GetString("NOTIFY_STREAM"),
			MQTTBroker:      viper.GetString("NOTIFY_MQTT_BROKER"),
			MQTTClientID:    viper.GetString("NOTIFY_MQTT_CLIENT_ID"),
			MQTTUsername:    viper.GetString("NOTIFY_MQTT_USERNAME"),
			MQTTPassword:    viper.GetString("NOTIFY_MQTT_PASSWORD"),
			MQTTTopicPrefix: viper.GetString("NOTIFY_MQTT_TOPIC_PREFIX"),
			Timeout:         duration("NOTIFY_TIMEOUT", 2*time.Second),
		},
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_TIMEZONE", "Asia/Jakarta")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("DB_MAX_OPEN_CONNS", 100)
	viper.SetDefault("SCHEDULE_PROVIDER", "db")
	viper.SetDefault("SCHEDULE_RETRIES", 2)
	viper.SetDefault("NOTIFY_DRIVER", "none")
	viper.SetDefault("NOTIFY_STREAM", "clinic:notifications")
	viper.SetDefault("NOTIFY_MQTT_CLIENT_ID", "clinic-orchestrator")
	viper.SetDefault("NOTIFY_MQTT_TOPIC_PREFIX", "clinic/events")
}

// duration parses key with time.ParseDuration, falling back to def.
func duration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Location resolves the clinic timezone, UTC when unknown.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
