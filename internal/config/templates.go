package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const templateHeader = `# nocrt runtime configuration
#   capacity  deferred-handler slots; registrations beyond it overflow
#   order     fifo | lifo
#   overflow  drop | fatal
#   log_level trace | debug | info | warn | error | off
`

// Template renders cfg as a commented TOML file.
func Template(cfg Config) ([]byte, error) {
	raw := fileConfig{
		Capacity: cfg.Capacity,
		Order:    cfg.Order.String(),
		Overflow: cfg.Overflow.String(),
		LogLevel: cfg.LogLevel.String(),
	}
	var buf bytes.Buffer
	buf.WriteString(templateHeader)
	if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
		return nil, fmt.Errorf("encode runtime config: %w", err)
	}
	return buf.Bytes(), nil
}

func WriteTemplate(path string, overwrite bool) error {
	data, err := Template(Default())
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, data, 0o600)
}
