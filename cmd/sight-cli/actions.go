package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fpang/sight-assist/internal/assist"
	"github.com/fpang/sight-assist/internal/cli"
	"github.com/fpang/sight-assist/internal/intake"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var pickFlag bool

// actionCommands returns the describe, extract and speak subcommands.
func actionCommands() []*cobra.Command {
	short := map[assist.Action]string{
		assist.ActionDescribeScene: "Describe the scene in an image with Gemini",
		assist.ActionExtractText:   "Extract visible text from an image",
		assist.ActionSpeakText:     "Read the text in an image aloud",
	}

	cmds := make([]*cobra.Command, 0, len(assist.Actions))
	for _, action := range assist.Actions {
		cmd := &cobra.Command{
			Use:   action.String() + " [image]",
			Short: short[action],
			Args:  cobra.MaximumNArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				runAction(cmd.Context(), action, args)
			},
		}
		cmd.Flags().BoolVar(&pickFlag, "pick", false, "Choose the image with a native file dialog")
		cmds = append(cmds, cmd)
	}
	return cmds
}

// resolveImagePath takes the path from args, the picker, or stdin, in that order.
func resolveImagePath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if pickFlag {
		return cli.PickImage()
	}
	return cli.PromptForImage(os.Stdin, os.Stdout)
}

func runAction(ctx context.Context, action assist.Action, args []string) {
	if ctx == nil {
		ctx = context.Background()
	}

	path, err := resolveImagePath(args)
	if err != nil {
		log.Fatal().Err(err).Msg("No image to process")
	}

	engines := initEngines(ctx, action.String())
	asst := engines.NewAssistant()

	res, err := loadAndTrigger(ctx, asst, path, action)
	if err != nil {
		fmt.Fprintln(os.Stderr, assist.Notice(err))
		os.Exit(1)
	}
	fmt.Println(res.Message())
}

// loadAndTrigger uploads the file at path and runs one action on it.
func loadAndTrigger(ctx context.Context, asst *assist.Assistant, path string, action assist.Action) (*assist.Result, error) {
	file, err := intake.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if _, err := asst.Upload(file); err != nil {
		return nil, err
	}
	return asst.Trigger(ctx, action)
}
