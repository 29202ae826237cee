package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	GroqAPIKey    string
	GroqModel     string
	GeminiAPIKey  string
	GeminiModel   string
	SupabaseURL   string
	SupabaseKey   string
	CRMWebhookURL string
	ZaloToken     string
	AdminToken    string
	HTTPPort      string
	LogLevel      string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		GroqAPIKey:    getEnv("GROQ_API_KEY", ""),
		GroqModel:     getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		SupabaseURL:   getEnv("SUPABASE_URL", ""),
		SupabaseKey:   getEnv("SUPABASE_SERVICE_KEY", ""),
		CRMWebhookURL: getEnv("CRM_WEBHOOK_URL", ""),
		ZaloToken:     getEnv("ZALO_OA_ACCESS_TOKEN", ""),
		AdminToken:    getEnv("ADMIN_API_TOKEN", ""),
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
	}

	if AppConfig.GroqAPIKey == "" {
		log.Fatal("GROQ_API_KEY environment variable is required")
	}
	if AppConfig.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable is required")
	}
	if AppConfig.SupabaseURL == "" || AppConfig.SupabaseKey == "" {
		log.Fatal("SUPABASE_URL and SUPABASE_SERVICE_KEY environment variables are required")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
