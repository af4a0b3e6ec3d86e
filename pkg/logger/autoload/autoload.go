// Package autoload initializes the global logger from LOG_* variables on import.
package autoload

import (
	"github.com/rs/zerolog/log"
	configx "github.com/tanpawarit/chative-sei/pkg/config"
	logx "github.com/tanpawarit/chative-sei/pkg/logger"
)

func init() {
	cfg, err := configx.New[logx.Config]("LOG")
	if err != nil {
		logx.Init()
		log.Warn().Err(err).Msg("logger config invalid, using defaults")
		return
	}
	logx.Init(*cfg)
}
