package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kpauljoseph/ankicopycard/internal/furigana"
	"github.com/kpauljoseph/ankicopycard/internal/pipeline"
	"github.com/kpauljoseph/ankicopycard/internal/session"
	"github.com/kpauljoseph/ankicopycard/internal/textnorm"
	"github.com/kpauljoseph/ankicopycard/pkg/version"
)

// ErrNoCompletion is returned by fire when the attempt produced no card
// within the wait.
var ErrNoCompletion = errors.New("no card was submitted")

// Launcher starts the window; it is invoked when no subcommand is given.
type Launcher func(flags *Flags) error

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags, launch Launcher) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ankicopycard",
		Short: "Copy the card Anki is showing into your Immersion deck",
		Long: `ankicopycard reads the card currently shown in Anki's reviewer through
AnkiConnect and opens the Add dialog with an annotated copy of it.

Examples:
  ankicopycard                                 # Launch the window (default)
  ankicopycard fire --back "to stifle a yawn"  # Copy the current card once
  ankicopycard guide "噛[か]み 殺[ころ]す"      # Print the audio guide`,
		Args:          cobra.NoArgs,
		Version:       version.Version,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if launch == nil {
				return cmd.Help()
			}
			return launch(flags)
		},
	}

	setupFlags(rootCmd, flags)

	rootCmd.AddCommand(
		newFireCommand(flags),
		newCurrentCommand(flags),
		newGuideCommand(),
		newFuriganaCommand(),
		newPingCommand(flags),
	)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (YAML)")
	cmd.PersistentFlags().StringVar(&flags.URL, "url", "", "AnkiConnect URL (overrides config)")
	cmd.PersistentFlags().BoolVar(&flags.Verbose, "verbose", false, "enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "enable debug mode with trace logging")
}

func newFireCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fire",
		Short: "Submit one copy of the current card and wait for it",
		Long: `fire builds a card from the reviewer's current card, applying any
overrides given as flags, and submits it. When no audio guide is given it
follows the front.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log := flags.newLogger(cmd.ErrOrStderr(), cfg)

			wake := make(chan struct{}, 1)
			state := session.New(
				pipeline.New(flags.NewService(cfg, log), log),
				session.WithLogger(log),
				session.WithWake(func() {
					select {
					case wake <- struct{}{}:
					default:
					}
				}),
			)

			state.SetFront(flags.Front)
			if cmd.Flags().Changed("guide") {
				state.SetFollowFront(false)
				state.SetAudioGuide(flags.AudioGuide)
			}
			state.SetBack(flags.Back)

			state.Fire()

			done := make(chan struct{})
			go func() {
				state.Wait()
				close(done)
			}()

			select {
			case <-wake:
			case <-done:
			case <-time.After(flags.Wait):
			}

			card, ok := state.PollCompletion()
			if !ok {
				return fmt.Errorf("%w within %s (fired: %d, rerun with --verbose for details)",
					ErrNoCompletion, flags.Wait, state.FiredCount())
			}
			return writeYAML(cmd, card)
		},
	}

	cmd.Flags().StringVar(&flags.Front, "front", "", "custom front, e.g. 噛[か]み 殺[ころ]す")
	cmd.Flags().StringVar(&flags.AudioGuide, "guide", "", "custom audio guide (default: follows --front)")
	cmd.Flags().StringVar(&flags.Back, "back", "", "custom back; newlines become line breaks")
	cmd.Flags().DurationVar(&flags.Wait, "wait", flags.Wait, "how long to wait for the submission")

	return cmd
}

func newCurrentCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Print the card currently shown in Anki",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log := flags.newLogger(cmd.ErrOrStderr(), cfg)

			snapshot, err := flags.NewService(cfg, log).CurrentCard(cmd.Context())
			if err != nil {
				return err
			}
			return writeYAML(cmd, snapshot)
		},
	}
}

func newGuideCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "guide <text>",
		Short: "Print the audio guide derived from a front",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), textnorm.DeriveAudioGuide(strings.Join(args, " ")))
			return nil
		},
	}
}

func newFuriganaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "furigana <text>",
		Short: "Print text with kana readings in Anki's bracket syntax",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			annotator, err := furigana.NewAnnotator()
			if err != nil {
				return fmt.Errorf("failed to load dictionary: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), annotator.Annotate(strings.Join(args, " ")))
			return nil
		},
	}
}

func newPingCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that Anki and AnkiConnect are reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log := flags.newLogger(cmd.ErrOrStderr(), cfg)

			if err := flags.NewService(cfg, log).CheckConnection(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "AnkiConnect is reachable at %s\n", cfg.AnkiConnectURL)
			return nil
		},
	}
}

func writeYAML(cmd *cobra.Command, v interface{}) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
