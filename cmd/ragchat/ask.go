package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"ragchat/internal/dependency"
	"ragchat/internal/persona"
	"ragchat/internal/service"
)

var (
	askExpertise string
	askStyle     string
	askModel     string
	askRAG       bool
	askSimilar   bool
	askSource    string
	askHTML      bool
)

var errAnswerFailed = errors.New("answer failed")

var askCmd = &cobra.Command{
	Use:   "ask QUESTION...",
	Short: "Answer one question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askExpertise, "expertise", "e", "", "Expertise persona (NONE, LINGUIST, LAWYER, ENGINEER, DOCTOR, SCIENTIST, AUTO)")
	askCmd.Flags().StringVarP(&askStyle, "style", "s", "", "Style persona (NONE, POET, COMEDIAN, PROFESSIONAL, AUTO)")
	askCmd.Flags().StringVarP(&askModel, "model", "m", persona.AutoModel, "Model name or auto for the default")
	askCmd.Flags().BoolVar(&askRAG, "rag", false, "Ground the answer in ingested documents")
	askCmd.Flags().BoolVar(&askSimilar, "similar", false, "Print the retrieved context instead of answering")
	askCmd.Flags().StringVar(&askSource, "source", "", "With --similar, search only this ingested file")
	askCmd.Flags().BoolVar(&askHTML, "html", false, "Print the rendered HTML instead of markdown")
}

func runAsk(cmd *cobra.Command, args []string) error {
	expertise, err := persona.ParseExpertise(askExpertise)
	if err != nil {
		return err
	}
	style, err := persona.ParseStyle(askStyle)
	if err != nil {
		return err
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to build services: %w", err)
	}
	defer func() {
		_ = container.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	question := strings.Join(args, " ")
	out := cmd.OutOrStdout()

	if askSimilar {
		res, err := container.ChatService().Similar(ctx, service.SimilarRequest{
			Question: question,
			Model:    askModel,
			Source:   askSource,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "query: %s\n", res.Query)
		for _, d := range res.Documents {
			fmt.Fprintf(os.Stderr, "  %.3f  %s\n", d.Score, d.Source)
		}
		fmt.Fprintln(out, res.Context)
		return nil
	}

	answer, err := container.ChatService().Answer(ctx, service.AnswerRequest{
		Message:      question,
		Expertise:    expertise,
		Style:        style,
		Model:        askModel,
		UseRetrieval: askRAG,
	})
	if err != nil {
		return err
	}

	if askHTML {
		fmt.Fprintln(out, answer.HTML)
	} else {
		fmt.Fprintln(out, answer.Text)
	}
	if answer.Error != "" {
		return errAnswerFailed
	}
	return nil
}
