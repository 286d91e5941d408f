package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"bizquiz/internal/apiclient"
	"bizquiz/internal/wire"
)

var (
	adminToken     string
	questionBizID  int
	questionText   string
	questionOpts   []string
	questionScores []int
	questionAnswer string
	questionLang   string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage business categories and questions",
}

var adminBusinessCmd = &cobra.Command{
	Use:   "business",
	Short: "Add or remove business categories",
}

var adminBusinessAddCmd = &cobra.Command{
	Use:   "add <label>",
	Short: "Create a business category",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := adminClient()
		if err != nil {
			return err
		}
		business, err := client.CreateBusiness(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return eris.Wrap(err, "create business")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created business %d: %s\n", business.ID, business.Types)
		return nil
	},
}

var adminBusinessRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a business category and its questions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := positiveID(args[0])
		if err != nil {
			return err
		}
		client, err := adminClient()
		if err != nil {
			return err
		}
		if err := client.DeleteBusiness(cmd.Context(), id); err != nil {
			return eris.Wrapf(err, "delete business %d", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted business %d\n", id)
		return nil
	},
}

var adminQuestionCmd = &cobra.Command{
	Use:   "question",
	Short: "List, add or remove questions",
}

var adminQuestionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List every question",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := adminClient()
		if err != nil {
			return err
		}
		questions, err := client.ListQuestions(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "list questions")
		}
		out := cmd.OutOrStdout()
		for _, q := range questions {
			business := "-"
			if q.Business != nil {
				business = q.Business.Types
			}
			lang := q.Lang
			if lang == "" {
				lang = "*"
			}
			fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", q.ID, business, lang, q.Question)
		}
		return nil
	},
}

var adminQuestionAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a question",
	RunE: func(cmd *cobra.Command, _ []string) error {
		request, err := newQuestionRequest(questionBizID, questionText, questionOpts, questionScores, questionAnswer, questionLang)
		if err != nil {
			return err
		}
		client, err := adminClient()
		if err != nil {
			return err
		}
		created, err := client.CreateQuestion(cmd.Context(), request)
		if err != nil {
			return eris.Wrap(err, "create question")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created question %d\n", created.ID)
		return nil
	},
}

var adminQuestionRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := positiveID(args[0])
		if err != nil {
			return err
		}
		client, err := adminClient()
		if err != nil {
			return err
		}
		if err := client.DeleteQuestion(cmd.Context(), id); err != nil {
			return eris.Wrapf(err, "delete question %d", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted question %d\n", id)
		return nil
	},
}

func adminClient() (*apiclient.Client, error) {
	token := adminToken
	if token == "" {
		token = cfg.Server.AdminToken
	}
	if token == "" {
		return nil, eris.New("admin token is required (--token or QUIZ_SERVER_ADMIN_TOKEN)")
	}
	return newAPIClient(cfg, apiclient.StaticToken(token)), nil
}

func positiveID(value string) (int, error) {
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, eris.Errorf("id must be a positive integer, got %q", value)
	}
	return id, nil
}

// newQuestionRequest maps option and score flags onto the a..d slots.
func newQuestionRequest(businessID int, text string, options []string, scores []int, answer, lang string) (wire.NewQuestion, error) {
	if businessID <= 0 {
		return wire.NewQuestion{}, eris.New("--business must be a positive id")
	}
	if strings.TrimSpace(text) == "" {
		return wire.NewQuestion{}, eris.New("--text is required")
	}
	if len(options) < 2 || len(options) > 4 {
		return wire.NewQuestion{}, eris.Errorf("between 2 and 4 --option values are required, got %d", len(options))
	}
	if len(scores) > 0 && len(scores) != len(options) {
		return wire.NewQuestion{}, eris.Errorf("got %d --score values for %d options", len(scores), len(options))
	}

	var slots [4]string
	var weights [4]*int
	for idx, option := range options {
		slots[idx] = option
		if len(scores) > 0 {
			score := scores[idx]
			weights[idx] = &score
		}
	}
	return wire.NewQuestion{
		BusinessID:   businessID,
		Question:     text,
		OptionA:      slots[0],
		OptionB:      slots[1],
		OptionC:      slots[2],
		OptionD:      slots[3],
		OptionAScore: weights[0],
		OptionBScore: weights[1],
		OptionCScore: weights[2],
		OptionDScore: weights[3],
		Answer:       answer,
		Lang:         lang,
	}, nil
}

func init() {
	adminCmd.PersistentFlags().StringVar(&adminToken, "token", "", "admin bearer token (default from server.admin_token)")

	adminQuestionAddCmd.Flags().IntVar(&questionBizID, "business", 0, "business category id (required)")
	adminQuestionAddCmd.Flags().StringVar(&questionText, "text", "", "question text (required)")
	adminQuestionAddCmd.Flags().StringArrayVar(&questionOpts, "option", nil, "option text, repeat 2-4 times in A..D order")
	adminQuestionAddCmd.Flags().IntSliceVar(&questionScores, "score", nil, "option weights in A..D order")
	adminQuestionAddCmd.Flags().StringVar(&questionAnswer, "answer", "", "correct option text, for percentage scoring")
	adminQuestionAddCmd.Flags().StringVar(&questionLang, "lang", "", "language tag; empty serves every language")

	adminBusinessCmd.AddCommand(adminBusinessAddCmd, adminBusinessRmCmd)
	adminQuestionCmd.AddCommand(adminQuestionLsCmd, adminQuestionAddCmd, adminQuestionRmCmd)
	adminCmd.AddCommand(adminBusinessCmd, adminQuestionCmd)
	rootCmd.AddCommand(adminCmd)
}
