// Package autoload initializes the global logger from environment
// configuration when imported for side effects.
package autoload

import (
	configx "github.com/marquev/warranty-agent/pkg/config"
	logx "github.com/marquev/warranty-agent/pkg/logger"
)

func init() {
	cfg, err := configx.New[logx.Config]("LOGGER")
	if err != nil {
		logx.Init()
		return
	}
	logx.Init(*cfg)
}
