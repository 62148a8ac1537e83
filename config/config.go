package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// It follows the 12-factor app methodology by prioritizing environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Chat     ChatConfig
	Calendar CalendarConfig
	Agent    AgentConfig
	API      APIConfig
}

type ServerConfig struct {
	Port        string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ChatConfig configures the chat-platform gateway: the REST API used for
// messages and scheduled events, and the websocket endpoint that delivers
// interaction callbacks.
type ChatConfig struct {
	APIBaseURL          string
	GatewayURL          string
	BotToken            string
	GuildID             string
	ModerationChannelID string
	EventLocation       string
}

type CalendarConfig struct {
	CredentialsFile string
	CalendarID      string
}

type AgentConfig struct {
	OpenAIAPIKey string
	Model        string
}

type APIConfig struct {
	Token string
}

// LoadConfig loads configuration from environment variables.
// A .env file is honored when present.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "podium"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Chat: ChatConfig{
			APIBaseURL:          getEnv("CHAT_API_BASE_URL", "https://api.chat.example.com/v1"),
			GatewayURL:          getEnv("CHAT_GATEWAY_URL", "wss://gateway.chat.example.com"),
			BotToken:            getEnv("CHAT_BOT_TOKEN", ""),
			GuildID:             getEnv("CHAT_GUILD_ID", ""),
			ModerationChannelID: getEnv("CHAT_MOD_REVIEW_CHANNEL_ID", ""),
			EventLocation:       getEnv("CHAT_EVENT_LOCATION", "Speech voice channel"),
		},
		Calendar: CalendarConfig{
			CredentialsFile: getEnv("GOOGLE_CALENDAR_CREDENTIALS_FILE", "google.credentials.json"),
			CalendarID:      getEnv("GOOGLE_CALENDAR_ID", ""),
		},
		Agent: AgentConfig{
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			Model:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		API: APIConfig{
			Token: getEnv("API_TOKEN", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
