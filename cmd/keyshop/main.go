package main

import (
	"log"

	"github.com/m3rciful/keyshop/config"
	corecmd "github.com/m3rciful/keyshop/core/cmd"
	"github.com/m3rciful/keyshop/internal/bot"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return bot.New(cfg.(*config.Config))
		},
	})
	if err != nil {
		log.Fatalf("keyshop: %v", err)
	}
}
