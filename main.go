package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"lutgrade/grade"
	"lutgrade/lutcmd"
	"lutgrade/parallel"
	"lutgrade/raster"
	"lutgrade/tonecurve"
)

var cli struct {
	Workers int  `help:"Number of files processed concurrently. Defaults to the number of CPUs" short:"j" default:"0"`
	Verbose bool `help:"Log debug messages" short:"v" default:"false"`

	Grade grade.CLICmd  `cmd:"" help:"Grade pictures with tone curves or a 3D LUT"`
	Lut   lutcmd.CLICmd `cmd:"" help:"Generate, convert and check LUT files"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("lutgrade"),
		kong.Description("Colour grading with tone curves and 3D LUTs."),
		kong.UsageOnError(),
		kong.Vars{
			"formats": strings.Join(raster.Formats, ","),
			"shapes":  strings.Join(tonecurve.ShapeNames(), ", "),
		},
	)

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	pool := parallel.Start(cli.Workers)
	err := kctx.Run(pool.Do, pool.Wait)
	kctx.FatalIfErrorf(err)
}
