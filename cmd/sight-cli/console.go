package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fpang/sight-assist/internal/assist"
	"github.com/fpang/sight-assist/internal/cli"
	"github.com/fpang/sight-assist/internal/intake"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive session: load an image, then run actions on it",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := runConsole(ctx, initEngines(ctx, "console").NewAssistant()); err != nil {
			log.Fatal().Err(err).Msg("Console failed")
		}
	},
}

const consoleHelp = `Commands:
  load <path>   load a JPG or PNG image
  pick          choose an image with the system file dialog
  describe      describe the scene
  extract       extract the visible text
  speak         read the visible text aloud
  status        show the loaded image and state
  clear         unload the image
  help          show this help
  quit          exit`

func runConsole(ctx context.Context, asst *assist.Assistant) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sight> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("load"),
			readline.PcItem("pick"),
			readline.PcItem("describe"),
			readline.PcItem("extract"),
			readline.PcItem("speak"),
			readline.PcItem("status"),
			readline.PcItem("clear"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()

	c := &console{asst: asst, out: rl.Stdout(), pick: cli.PickImage}
	fmt.Fprintln(c.out, "Sight Assist console. Type 'help' for commands.")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil { // io.EOF
			return nil
		}
		if c.exec(ctx, line) {
			return nil
		}
	}
}

// console interprets one line at a time against a single assistant.
type console struct {
	asst *assist.Assistant
	out  io.Writer
	pick func() (string, error)
}

// exec runs one command line and reports whether the console should exit.
func (c *console) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, rest := strings.ToLower(fields[0]), strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch cmd {
	case "quit", "exit":
		return true
	case "help", "?":
		fmt.Fprintln(c.out, consoleHelp)
	case "load":
		if rest == "" {
			fmt.Fprintln(c.out, "usage: load <path>")
			return false
		}
		c.load(strings.Trim(rest, `"'`))
	case "pick":
		path, err := c.pick()
		if err != nil {
			if !errors.Is(err, cli.ErrCanceled) {
				fmt.Fprintln(c.out, err)
			}
			return false
		}
		c.load(path)
	case "status":
		c.status()
	case "clear":
		c.asst.Clear()
		fmt.Fprintln(c.out, "Image cleared.")
	default:
		action, err := assist.ParseAction(cmd)
		if err != nil {
			fmt.Fprintf(c.out, "Unknown command %q. Type 'help' for commands.\n", cmd)
			return false
		}
		c.trigger(ctx, action)
	}
	return false
}

func (c *console) load(path string) {
	file, err := intake.LoadFile(path)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	img, err := c.asst.Upload(file)
	if err != nil {
		fmt.Fprintln(c.out, assist.Notice(err))
		return
	}
	fmt.Fprintf(c.out, "Loaded %s (%dx%d, %s).\n", img.Name, img.Width(), img.Height(), img.MIMEType)
	if img.Metadata != nil {
		if summary := img.Metadata.Summary(); summary != "" {
			fmt.Fprintln(c.out, summary)
		}
	}
}

func (c *console) status() {
	fmt.Fprintf(c.out, "State: %s\n", c.asst.State())
	if img := c.asst.Image(); img != nil {
		fmt.Fprintf(c.out, "Image: %s (%dx%d, %s)\n", img.Name, img.Width(), img.Height(), img.MIMEType)
	}
}

func (c *console) trigger(ctx context.Context, action assist.Action) {
	fmt.Fprintf(c.out, "%s...\n", action.Label())
	res, err := c.asst.Trigger(ctx, action)
	if err != nil {
		fmt.Fprintln(c.out, assist.Notice(err))
		return
	}
	fmt.Fprintln(c.out, res.Message())
	fmt.Fprintf(c.out, "(done in %s)\n", cli.FormatElapsed(res.Duration))
}
