package main

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"notevault-api/ai"
	"notevault-api/api"
	"notevault-api/search"
	"notevault-api/storage"
	"notevault-api/store"
)

func main() {
	logger := log.New()
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		logger.SetLevel(log.DebugLevel)
	}

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	notesTable := envDefault("NOTES_TABLE", "notes")
	foldersTable := envDefault("FOLDERS_TABLE", "folders")
	tasksTable := envDefault("TASKS_TABLE", "tasks")
	if connStr == "" {
		log.Fatal("missing storage config")
	}

	redisConn := os.Getenv("REDIS_CONNECTION_STRING")
	if redisConn == "" {
		log.Fatal("missing redis config")
	}
	rc := redis.NewClient(parseRedisOptions(redisConn))
	channelPrefix := envDefault("CHANGE_CHANNEL_PREFIX", "notevault")

	backing, err := storage.New(connStr, notesTable, foldersTable, tasksTable, rc, channelPrefix, logger)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	cacheTTL := envDuration("LIST_CACHE_TTL", 5*time.Minute)
	cache := storage.NewCache(backing, rc, cacheTTL)

	sessions := store.NewManager(cache, rc, channelPrefix, logger)
	defer sessions.Close()

	gateway := ai.NewGateway(ai.Config{
		Endpoint:    os.Getenv("AI_ENDPOINT"),
		APIKey:      os.Getenv("AI_API_KEY"),
		MinInterval: envDuration("AI_MIN_INTERVAL", 0),
		MaxRetries:  envInt("AI_MAX_RETRIES", 0),
		Backoff:     envDuration("AI_BACKOFF", 0),
	}, logger)
	defer gateway.Close()

	testMode := os.Getenv("AUTH_TEST_MODE") == "1"
	var auth *api.Auth
	if testMode {
		auth = api.NewAuth(nil, "", "")
	} else {
		jwtAudience := os.Getenv("AUTH_AUDIENCE")
		domain := os.Getenv("AUTH_DOMAIN")
		if jwtAudience == "" || domain == "" {
			log.Fatal("missing auth config")
		}
		jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		auth = api.NewAuth(jwks, jwtAudience, "https://"+domain+"/")
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(api.GzipRequestMiddleware())

	api.Register(e, api.Deps{
		Sessions:  sessions,
		Auth:      auth,
		Assistant: gateway,
		Search: search.Config{
			Threshold:      envInt("SEARCH_THRESHOLD", 0),
			MinQueryLength: envInt("SEARCH_MIN_QUERY", 0),
		},
		Logger: logger,
	})

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return d
}

// parseRedisOptions accepts either a redis URL or the comma-separated
// host,password,ssl form some managed providers hand out.
func parseRedisOptions(redisConn string) *redis.Options {
	opts, err := redis.ParseURL(redisConn)
	if err == nil {
		return opts
	}
	parts := strings.Split(redisConn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
