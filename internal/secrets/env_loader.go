package secrets

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// DotEnvLoader returns a Loader for keys. Each load starts from the process
// environment and then applies the dotenv file at path, which is re-read
// every time so edits to it take effect on reload. A missing file is not an
// error. Keys without a value are omitted.
func DotEnvLoader(path string, keys ...string) Loader {
	return func() (map[string]string, error) {
		vals := make(map[string]string, len(keys))
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				vals[k] = v
			}
		}

		file, err := godotenv.Read(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		for _, k := range keys {
			if v := file[k]; v != "" {
				vals[k] = v
			}
		}
		return vals, nil
	}
}
