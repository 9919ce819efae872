// Command speechkit transcribes audio with the configured backends.
//
//	speechkit transcribe meeting.mp3
//	ffmpeg -i talk.mp4 -f f32le -ar 16000 -ac 1 - | speechkit transcribe --backend whisper -
//	speechkit parse whisper-cli.stdout --format turns
package main

import (
	"github.com/alecthomas/kong"

	"github.com/kbukum/speechkit/version"
)

// Globals are flags shared by every command.
type Globals struct {
	Config string `short:"c" help:"Config file, otherwise config.yml is looked up in the usual places." type:"path"`
	Debug  bool   `help:"Log at debug level."`
}

// CLI is the command tree.
type CLI struct {
	Globals

	Transcribe TranscribeCmd `cmd:"" help:"Transcribe an audio file, or stdin with -."`
	Parse      ParseCmd      `cmd:"" help:"Parse saved whisper-cli output into segments or turns."`
	Models     ModelsCmd     `cmd:"" help:"List the models batch backends accept."`
	Version    VersionCmd    `cmd:"" help:"Print version information."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("speechkit"),
		kong.Description("Speech to text over whisper-cli, whisper.cpp and whisper sidecars."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Short()},
	)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}
