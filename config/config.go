package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration. Everything is sourced from
// the environment (optionally via a .env file) with sensible defaults.
type Config struct {
	MPDHost    string        // MPD daemon host
	MPDPort    int           // MPD daemon port
	MPDTimeout time.Duration // upper bound for a single MPD command

	HTTPPort int // port the HTTP/websocket server listens on

	PlaylistPath string // directory holding .m3u station playlists
	StationFile  string // JSON file with the static station list

	LastFMAPIKey  string // Last.fm API key for track.getinfo lookups
	LastFMBaseURL string // Last.fm API base URL (overridable for testing)

	// Redis is optional; an empty addr disables the playlist cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvSeconds reads an integer number of seconds from the environment.
func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	return &Config{
		MPDHost:       getEnv("MPD_HOST", "localhost"),
		MPDPort:       getEnvInt("MPD_PORT", 6600),
		MPDTimeout:    getEnvSeconds("MPD_TIMEOUT", 5*time.Second),
		HTTPPort:      getEnvInt("PORT", 8080),
		PlaylistPath:  getEnv("PLAYLIST_PATH", "playlists"),
		StationFile:   getEnv("STATION_FILE", "data/stations.json"),
		LastFMAPIKey:  os.Getenv("LASTFM_APIKEY"),
		LastFMBaseURL: getEnv("AUDIOSCROBBLER", "http://ws.audioscrobbler.com/2.0"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogPath:       os.Getenv("LOG_PATH"),
	}
}
