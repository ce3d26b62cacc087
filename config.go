package main

import "github.com/kelseyhightower/envconfig"

type Config struct {
	Port           string `envconfig:"PORT" default:"8080"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	StickerDir     string `envconfig:"STICKER_DIR" default:"static/stickers"`
	StaticDir      string `envconfig:"STATIC_DIR" default:"static"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"16777216"`
}

func loadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
