package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/deck/cmd/audio"
	"github.com/gigurra/deck/cmd/common"
	"github.com/gigurra/deck/cmd/player"
	"github.com/gigurra/deck/cmd/ui"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type PlayParams struct {
	Dir      string `pos:"true" optional:"true" help:"Media directory. Overrides media_dir from the config file." default:""`
	Config   string `short:"c" help:"Config file (default ~/.deck/config.yaml)." default:""`
	LogLevel string `short:"l" help:"Log level: debug, info, warn or error." default:""`
	Silent   bool   `short:"s" help:"Discard audio at the nominal bit rate instead of using the speaker." optional:"true"`
}

func PlayCmd() *cobra.Command {
	return boa.CmdT[PlayParams]{
		Use:         "play",
		Short:       "Play the media directory on a terminal touch panel",
		Long:        "Scan the media directory, then run the player tasks with the terminal as display and the mouse as touch screen. Press q to quit.",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *PlayParams, cmd *cobra.Command, args []string) {
			if err := runPlay(params); err != nil {
				fmt.Fprintf(os.Stderr, "deck play: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runPlay(params *PlayParams) error {
	fs := afero.NewOsFs()
	cfg, err := loadConfig(fs, params.Config, params.Dir, params.LogLevel)
	if err != nil {
		return err
	}

	logPath := filepath.Join(common.CacheDir(), "deck.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	log := common.SetupLogger(cfg.LogLevel, logFile)

	var out audio.Output
	if params.Silent || !audio.SpeakerAvailable {
		out = audio.NewPacedOutput(cfg.BitRate)
	} else {
		out = audio.NewOutput(cfg.BitRate, log.With("component", "speaker"))
	}

	width, height := ui.PanelSize(80, 24)
	panel := ui.NewTerminal(width, height)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sys, err := player.Startup(ctx, player.Options{
		Config: cfg,
		Fs:     fs,
		Output: out,
		Panel:  panel,
		Logger: log,
	})
	if err != nil {
		return err
	}

	err = sys.Run(ctx)
	switch {
	case errors.Is(err, ui.ErrQuit), errors.Is(err, context.Canceled):
		log.Info("player stopped")
		return nil
	case err != nil:
		log.Error("player failed", slog.Any("error", err))
		return err
	}
	return nil
}
