package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DotEnvPath returns the path of byht's dotenv file inside dir.
func DotEnvPath(dir string) string {
	return filepath.Join(dir, ".env")
}

// dotEnvParser keeps BYHT_* keys with a non-empty value, renamed the same
// way as process environment variables.
func dotEnvParser() *dotenv.DotEnv {
	return dotenv.ParserEnvWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return envKey(key), value
	})
}

// LoadDotEnv reads <dir>/.env. A missing file yields an empty Koanf.
func LoadDotEnv(dir string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	p := DotEnvPath(dir)
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return k, nil
	}
	if err := k.Load(file.Provider(p), dotEnvParser()); err != nil {
		return nil, fmt.Errorf("cannot read dotenv file %s: %w", p, err)
	}
	return k, nil
}

// EnsureDotEnvTemplate creates <dir>/.env if it does not already exist.
//
// Every key is commented out so the template changes nothing until edited.
func EnsureDotEnvTemplate(dir string) (bool, error) {
	p := DotEnvPath(dir)
	if _, err := os.Stat(p); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("cannot stat dotenv file %s: %w", p, err)
	}

	body := "" +
		"# byht settings; process environment variables take precedence.\n" +
		"# BYHT_REPO=" + DefaultRepo + "\n" +
		"# BYHT_DIR_BIN=\n" +
		"# BYHT_DIR_CACHE=\n" +
		"# BYHT_LOCAL_INDEX=\n" +
		"# BYHT_S3_REGION=\n" +
		"# BYHT_S3_ENDPOINT=\n"

	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		return false, fmt.Errorf("cannot write dotenv template %s: %w", p, err)
	}
	return true, nil
}
