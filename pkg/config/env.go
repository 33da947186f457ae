package config

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// EnvFiles are read, in order, when APP_ENV is "local". A variable set by an
// earlier file, or by the process environment, is never overwritten.
var EnvFiles = []string{".env.local", ".env"}

// LoadEnv fills unset variables from EnvFiles for local runs. Other
// environments rely on the process environment alone.
func LoadEnv() {
	appEnv := getenv("APP_ENV", "development")
	os.Setenv("APP_ENV", appEnv)

	if appEnv != "local" {
		log.Printf("Running in %s environment. Not loading env files.", appEnv)
		return
	}

	loaded := loadEnvFiles(EnvFiles...)
	if len(loaded) == 0 {
		log.Println("Warning: no env file found. Relying on system environment variables.")
		return
	}
	log.Printf("Loaded %v for local development.", loaded)
}

func loadEnvFiles(files ...string) []string {
	var loaded []string
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Printf("Warning: failed to load %s: %v", f, err)
			}
			continue
		}
		loaded = append(loaded, f)
	}
	return loaded
}
