package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Matchmaking is the configuration of the matchmaking service.
type Matchmaking struct {
	// Environment
	Environment string

	// Bind addresses
	SocketAddr string
	HTTPAddr   string

	// Peer game server: RPC base URL, and the socket address announced to
	// clients in MatchFound.
	GameServerURL        string
	GameServerPublicAddr string

	// Persistence
	DatabaseURL string
	RedisURL    string

	// Pairing
	GamesToWin    uint8
	PairingTickMS int
	PushTickMS    int
}

// GameServer is the configuration of the game service.
type GameServer struct {
	// Environment
	Environment string

	// Bind addresses
	SocketAddr string
	HTTPAddr   string

	// Matchmaking service base URL for result reporting. Empty disables
	// reporting.
	MatchmakingURL string

	PushTickMS int
}

// LoadMatchmaking reads the matchmaking configuration from the environment.
func LoadMatchmaking() *Matchmaking {
	// Load .env file if it exists
	godotenv.Load()

	return &Matchmaking{
		Environment: getEnv("APP_ENV", "development"),

		SocketAddr: getEnv("MM_SOCKET_ADDR", "0.0.0.0:3001"),
		HTTPAddr:   getEnv("MM_HTTP_ADDR", "0.0.0.0:8081"),

		GameServerURL:        getEnv("GAME_SERVER_URL", "http://localhost:8082"),
		GameServerPublicAddr: getEnv("GAME_SERVER_PUBLIC_ADDR", "ws://localhost:3002"),

		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/rpsarena?sslmode=disable"),
		RedisURL:    getEnv("REDIS_URL", ""),

		GamesToWin:    uint8(getEnvInt("GAMES_TO_WIN", 1)),
		PairingTickMS: getEnvInt("PAIRING_TICK_MS", 50),
		PushTickMS:    getEnvInt("MM_PUSH_TICK_MS", 50),
	}
}

// LoadGameServer reads the game server configuration from the environment.
func LoadGameServer() *GameServer {
	godotenv.Load()

	return &GameServer{
		Environment: getEnv("APP_ENV", "development"),

		SocketAddr: getEnv("GS_SOCKET_ADDR", "0.0.0.0:3002"),
		HTTPAddr:   getEnv("GS_HTTP_ADDR", "0.0.0.0:8082"),

		MatchmakingURL: getEnv("MATCHMAKING_URL", "http://localhost:8081"),

		PushTickMS: getEnvInt("GS_PUSH_TICK_MS", 1000),
	}
}

// PairingTick is the interval of the matchmaking pairing scan.
func (c *Matchmaking) PairingTick() time.Duration {
	return time.Duration(c.PairingTickMS) * time.Millisecond
}

// PushTick is the queue-socket push drain interval.
func (c *Matchmaking) PushTick() time.Duration {
	return time.Duration(c.PushTickMS) * time.Millisecond
}

// PushTick is the game-socket push drain interval.
func (c *GameServer) PushTick() time.Duration {
	return time.Duration(c.PushTickMS) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
