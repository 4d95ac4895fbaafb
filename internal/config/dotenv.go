package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is the dotenv file read by LoadDotEnv when no path is given.
const DefaultEnvFile = ".env"

// LoadDotEnv copies variables from a dotenv file into the process
// environment before Load runs. Variables already set in the environment
// win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
