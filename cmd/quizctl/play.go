package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"bizquiz/internal/cli"
	"bizquiz/internal/quiz"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Take a business readiness test interactively",
	RunE: func(cmd *cobra.Command, _ []string) error {
		creds, err := openCredentials(cfg)
		if err != nil {
			return err
		}
		if !creds.LoggedIn() {
			return eris.New("not logged in; run 'quizctl login' or 'quizctl register' first")
		}

		client := newAPIClient(cfg, creds)
		classifier, err := newClassifier(cfg)
		if err != nil {
			return eris.Wrap(err, "result bands")
		}
		gate, err := newGate(cfg, client, creds)
		if err != nil {
			return eris.Wrap(err, "advice gate")
		}

		session := quiz.NewSession(client, cfg.Variant())
		greeting := ""
		if user := creds.User(); user.Fullname != "" {
			greeting = fmt.Sprintf("Welcome, %s.", user.Fullname)
		}

		app := cli.New(cli.Config{
			ServerURL: client.BaseURL(),
			Language:  cfg.Language(),
			Greeting:  greeting,
		}, client, session, classifier, gate)
		return app.Run(cmd.Context(), os.Stdin, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverOverride, "server", "", "quiz backend base URL (default from config)")
	rootCmd.AddCommand(playCmd)
}
