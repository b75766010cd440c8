package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port       string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	MongoURI   string
	MongoDB    string
	JWTSecret  string

	// NimStartObjects is the pile size a fresh Nim game starts with.
	NimStartObjects int

	// MoveTimeout forfeits the seat whose turn it is after this much
	// inactivity. Zero disables the timeout.
	MoveTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Port:            getEnv("PORT", "8000"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "user"),
		DBPassword:      getEnv("DB_PASSWORD", "password"),
		DBName:          getEnv("DB_NAME", "dbname"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getEnv("MONGO_DB", "stackarena"),
		JWTSecret:       getEnv("JWT_SECRET", "secret"),
		NimStartObjects: getEnvInt("NIM_START_OBJECTS", 21),
		MoveTimeout:     getEnvDuration("MOVE_TIMEOUT", 0),
	}
}

// getEnv reads an environment variable and returns its value or a default value
func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = defaultValue
		log.Printf("Environment variable %s not set, using default value: %s", key, defaultValue)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Environment variable %s is not a number, using default value: %d", key, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Environment variable %s is not a duration, using default value: %s", key, defaultValue)
		return defaultValue
	}
	return d
}
