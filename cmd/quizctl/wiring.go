package main

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"bizquiz/internal/advice"
	"bizquiz/internal/apiclient"
	"bizquiz/internal/config"
	"bizquiz/internal/credentials"
	"bizquiz/internal/quiz"
	"bizquiz/internal/result"
)

var serverOverride string

func openCredentials(c *config.Config) (*credentials.Store, error) {
	return credentials.Open(c.Credentials.Path)
}

func baseURL(c *config.Config) string {
	if serverOverride != "" {
		return serverOverride
	}
	return c.API.BaseURL
}

func newAPIClient(c *config.Config, tokens apiclient.TokenSource) *apiclient.Client {
	retry := apiclient.DefaultRetryConfig()
	retry.MaxAttempts = c.API.Retries

	opts := []apiclient.Option{
		apiclient.WithTimeout(c.API.Timeout),
		apiclient.WithRetry(retry),
		apiclient.WithSkipBrowserWarning(c.API.SkipBrowserWarning),
	}
	if tokens != nil {
		opts = append(opts, apiclient.WithTokenSource(tokens))
	}
	return apiclient.New(baseURL(c), opts...)
}

func newClassifier(c *config.Config) (*result.Classifier, error) {
	table := result.DefaultTable()
	if c.Quiz.BandsFile != "" {
		loaded, err := result.LoadTable(c.Quiz.BandsFile)
		if err != nil {
			return nil, err
		}
		table = loaded
	}
	classifier, err := result.NewClassifier(table, c.Language())
	if err != nil {
		return nil, err
	}

	lo, hi := classifier.Range()
	if c.Quiz.Scoring == string(quiz.VariantPercentage) && (lo > 0 || hi < 100) {
		zap.L().Warn("band table does not cover percentage scores",
			zap.Int("min", lo),
			zap.Int("max", hi),
		)
	}
	return classifier, nil
}

var ackKeys = map[advice.LinkID]string{
	advice.LinkPrimary:   credentials.KeyAckPrimary,
	advice.LinkSecondary: credentials.KeyAckSecondary,
}

// newGate builds the advice gate, restoring link acknowledgements from the
// credentials file and saving new ones back to it.
func newGate(c *config.Config, client *apiclient.Client, creds *credentials.Store) (*advice.Gate, error) {
	mode, err := advice.ParseMode(c.Advice.Mode)
	if err != nil {
		return nil, err
	}

	gateCfg := advice.Config{
		Mode:       mode,
		Primary:    advice.Link{Name: c.Advice.PrimaryName, URL: c.Advice.PrimaryLink},
		Secondary:  advice.Link{Name: c.Advice.SecondaryName, URL: c.Advice.SecondaryLink},
		Unanswered: c.Advice.Unanswered,
	}
	if c.Advice.TemplateFile != "" {
		data, err := os.ReadFile(c.Advice.TemplateFile)
		if err != nil {
			return nil, eris.Wrapf(err, "read advice template %s", c.Advice.TemplateFile)
		}
		gateCfg.Template = string(data)
	}

	var restored []advice.LinkID
	for id, key := range ackKeys {
		if value, ok := creds.Get(key); ok && value == "true" {
			restored = append(restored, id)
		}
	}

	opts := []advice.Option{
		advice.WithAcknowledged(restored...),
		advice.OnAcknowledge(func(id advice.LinkID) {
			if err := creds.Set(ackKeys[id], "true"); err != nil {
				zap.L().Warn("could not save link acknowledgement", zap.Stringer("link", id), zap.Error(err))
			}
		}),
	}
	if mode == advice.ModeRemote {
		opts = append(opts, advice.WithGenerator(client))
	}
	if c.Advice.CheckSubscription {
		opts = append(opts, advice.WithSubscriptionCheck(client, creds.User().ID))
	}
	return advice.NewGate(gateCfg, opts...)
}
