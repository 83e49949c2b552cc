package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/deck/cmd/common"
	"github.com/gigurra/deck/cmd/library"
	"github.com/gigurra/deck/cmd/playback"
	"github.com/gigurra/deck/cmd/ui"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type ScanParams struct {
	Dir    string `pos:"true" optional:"true" help:"Media directory. Overrides media_dir from the config file." default:""`
	Config string `short:"c" help:"Config file (default ~/.deck/config.yaml)." default:""`
}

func ScanCmd() *cobra.Command {
	return boa.CmdT[ScanParams]{
		Use:         "scan",
		Short:       "List the songs the player would find at startup",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *ScanParams, cmd *cobra.Command, args []string) {
			if err := runScan(params); err != nil {
				fmt.Fprintf(os.Stderr, "deck scan: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runScan(params *ScanParams) error {
	fs := afero.NewOsFs()
	cfg, err := loadConfig(fs, params.Config, params.Dir, "")
	if err != nil {
		return err
	}

	songs, err := library.Scan(fs, cfg.MediaDir, cfg.Extension, cfg.MaxSongs)
	if err != nil {
		return err
	}
	songs = library.WithBitRate(songs, cfg.BitRate)
	if len(songs) == 0 {
		fmt.Printf("No %s files under %s\n", cfg.Extension, cfg.MediaDir)
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Path", "Title", "Artist", "Album", "Size", "Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	for i, s := range songs {
		t.AppendRow(table.Row{i + 1, s.Path, s.Meta.Title, s.Meta.Artist, s.Meta.Album, formatSize(s.Size), ui.FormatClock(s.Duration)})
	}

	total := lo.SumBy(songs, func(s playback.Song) time.Duration { return s.Duration })
	size := lo.SumBy(songs, func(s playback.Song) int64 { return s.Size })
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d songs", len(songs)), "", "", "", formatSize(size), ui.FormatClock(total)})
	t.Render()
	return nil
}

func formatSize(n int64) string {
	switch {
	case n >= common.GB:
		return fmt.Sprintf("%.1fG", float64(n)/float64(common.GB))
	case n >= common.MB:
		return fmt.Sprintf("%.1fM", float64(n)/float64(common.MB))
	case n >= common.KB:
		return fmt.Sprintf("%.1fK", float64(n)/float64(common.KB))
	}
	return fmt.Sprintf("%dB", n)
}
