package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	channelCLI    = "cli"
	chatWordWrap  = 80
	chatBannerMsg = `Chatbot SEI TRE-RN

Pergunte sobre processos do SEI, por exemplo:
  "O processo XXX/XXXX existe?"
  "Quantos documentos tem o processo XXX/XXXX?"
  "Quais são os documentos do tipo xxxxxx do processo XXX/XXXX?"
  "Quais são os documentos de X a Y do processo XXX/XXXX?"

Comandos: /nova inicia uma nova conversa, /sair encerra.
`
)

var chatCmd = &cobra.Command{
	Use:         "chat",
	Short:       "Start an interactive chat in the terminal",
	Annotations: map[string]string{annotationOwnsStdout: "true"},
	RunE:        runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	status := startBundle(ctx, app.bundle, app.store.Root())

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(chatWordWrap),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}

	out := cmd.OutOrStdout()
	prompt := color.New(color.FgCyan, color.Bold)
	notice := color.New(color.FgYellow)
	failure := color.New(color.FgRed)

	color.New(color.Bold).Fprintln(out, chatBannerMsg)

	sessionID := uuid.NewString()
	log.Info().Str("session_id", sessionID).Msg("chat session started")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		prompt.Fprint(out, "você> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/sair", "/exit":
			return nil
		case "/nova":
			if err := app.chat.Reset(ctx, sessionID); err != nil {
				log.Warn().Err(err).Str("session_id", sessionID).Msg("reset session")
			}
			sessionID = uuid.NewString()
			notice.Fprintln(out, "Nova conversa iniciada.")
			continue
		}

		if status.Loading() {
			notice.Fprintln(out, "O download dos arquivos ainda está em andamento. Algumas funcionalidades podem estar limitadas.")
		}

		res, err := app.chat.Handle(ctx, sessionID, channelCLI, line)
		if err != nil {
			failure.Fprintf(out, "Não foi possível responder: %v\n", err)
			continue
		}
		printReply(out, renderer, res.Reply)
	}
	return scanner.Err()
}

func printReply(out io.Writer, renderer *glamour.TermRenderer, reply string) {
	rendered, err := renderer.Render(reply)
	if err != nil {
		fmt.Fprintln(out, reply)
		return
	}
	fmt.Fprint(out, rendered)
}
