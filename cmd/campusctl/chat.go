package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garyellow/campus-navigator/internal/assistant"
	"github.com/garyellow/campus-navigator/internal/campus"
	"github.com/garyellow/campus-navigator/internal/config"
	"github.com/garyellow/campus-navigator/internal/ctxutil"
	"github.com/garyellow/campus-navigator/internal/dialogue"
	"github.com/garyellow/campus-navigator/internal/logger"
	"github.com/garyellow/campus-navigator/internal/nlu"
	"github.com/garyellow/campus-navigator/internal/pathgraph"
	"github.com/garyellow/campus-navigator/internal/session"
)

const cliChannel = "cli"

func newChatCmd(opts *rootOptions) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant on stdin/stdout",
		Long:  `Each input line is one message. Type "/reset" to start over, "/quit" or EOF to leave.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := opts.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			log := logger.NewWithWriter(opts.logLevel, cmd.ErrOrStderr())
			a, err := newLocalAssistant(catalog, config.DefaultDialogueConfig(), log)
			if err != nil {
				return err
			}
			return runChat(cmd, a, sessionID)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "terminal", "Session ID to converse under")
	return cmd
}

// newLocalAssistant wires the assistant over in-process sessions and an
// uncached graph. No rate limiting or metrics apply.
func newLocalAssistant(catalog *campus.Catalog, cfg config.DialogueConfig, log *logger.Logger) (*assistant.Assistant, error) {
	graph, err := pathgraph.FromCatalog(catalog)
	if err != nil {
		return nil, err
	}
	sessions := session.NewManager(session.NewMemoryStore(0, 0), log)
	controller := dialogue.NewController(graph, catalog, sessions, cfg, log)
	return assistant.New(assistant.Config{
		Classifier: nlu.NewClassifier(nlu.ClassifierOptions{
			AffirmTokens: cfg.AffirmTokens,
			CancelTokens: cfg.CancelTokens,
			MinScore:     cfg.ClassifierMinScore,
			Logger:       log,
		}),
		Extractor:        nlu.NewExtractor(catalog),
		Handler:          controller,
		Sessions:         sessions,
		Logger:           log,
		MaxMessageLength: cfg.MaxMessageLength,
	}), nil
}

func runChat(cmd *cobra.Command, a *assistant.Assistant, sessionID string) error {
	in := cmd.InOrStdin()
	out := cmd.OutOrStdout()
	ctx := ctxutil.WithChannel(cmd.Context(), cliChannel)

	interactive := in == os.Stdin
	prompt := func() {
		if interactive {
			printf(out, "> ")
		}
	}

	scanner := bufio.NewScanner(in)
	prompt()
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "/quit", "/exit":
			return nil
		case "/reset":
			if err := a.Reset(ctx, sessionID); err != nil {
				return fmt.Errorf("reset session: %w", err)
			}
			printf(out, "Session cleared.\n")
		default:
			reply := a.Reply(ctx, sessionID, line)
			printf(out, "%s\n", reply.Text)
			for i, option := range reply.ChoiceOptions {
				printf(out, "  %d) %s\n", i+1, option)
			}
		}
		prompt()
	}
	return scanner.Err()
}
