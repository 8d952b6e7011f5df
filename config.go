package registry

import (
	"os"

	"github.com/joho/godotenv"
)

const (
	defaultStorePath    = "logstore"
	defaultSecretKeyHex = "c668bcc0d81d647f2c9ac035df7a6d7e672de709abb8bbd5fe5bb8778f748263"
)

// Config is the process-wide configuration resolved once at startup and
// passed explicitly to the coordinator — nothing in the core package
// reads the environment directly.
type Config struct {
	StorePath string
	SecretKey SecretKey
}

// LoadConfig reads STORE_PATH and SECRET_KEY from the environment,
// loading envFile first if it exists. A missing envFile is not an error.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	storePath := os.Getenv("STORE_PATH")
	if storePath == "" {
		storePath = defaultStorePath
	}

	secretHex := os.Getenv("SECRET_KEY")
	if secretHex == "" {
		secretHex = defaultSecretKeyHex
	}
	sk, err := ParseSecretKeyHex(secretHex)
	if err != nil {
		return Config{}, errKind(KindMalformedInput, "invalid SECRET_KEY: %v", err)
	}

	return Config{StorePath: storePath, SecretKey: sk}, nil
}
