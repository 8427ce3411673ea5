package config

import "os"

func IsDebug() bool {
	return os.Getenv("LOOPBOT_DEBUG") == "1"
}
