package cmd

import (
	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/deck/cmd/config"
	"github.com/spf13/afero"
)

func defaultParamEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

// loadConfig reads the config file and lets non-empty CLI values win.
func loadConfig(fs afero.Fs, path, mediaDir, logLevel string) (*config.Config, error) {
	cfg, err := config.Load(fs, path)
	if err != nil {
		return nil, err
	}
	if mediaDir != "" {
		cfg.MediaDir = mediaDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
