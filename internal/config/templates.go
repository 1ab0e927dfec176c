package config

import (
	"fmt"
	"os"
)

const DefaultPath = "savectl.toml"

func Template() string {
	return saveTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(saveTemplate), 0o600)
}

const saveTemplate = `[save]
dir = "save"
extension = "krg"
label = ""

[thumbnail]
max_width = 480
max_height = 270

[server]
addr = ":9300"
cors_origins = ["http://localhost:3000"]
# 0 disables the cap on thumbnail rescaling
rescale_per_second = 10.0

[log]
level = "info"
`
