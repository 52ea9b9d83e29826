// Command gopq inspects and builds Parquet files: gopq meta dumps the
// footer, gopq cat streams assembled records as JSON, gopq write builds a
// file from a JSON schema declaration and JSON records.
package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var cli struct {
	Verbose bool     `help:"Enable debug logging." short:"v"`
	Meta    MetaCmd  `cmd:"" help:"Dump a Parquet file's footer metadata."`
	Cat     CatCmd   `cmd:"" help:"Stream a Parquet file's records as JSON."`
	Write   WriteCmd `cmd:"" help:"Build a Parquet file from a JSON schema and records."`
}

func main() {
	parser := kong.Must(
		&cli,
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Description("gopq is a small command-line utility for inspecting and building Parquet files."),
	)

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if cli.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx.FatalIfErrorf(ctx.Run())
}
