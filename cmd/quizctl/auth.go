package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bizquiz/internal/credentials"
	"bizquiz/internal/wire"
)

var (
	authPhone    string
	authPassword string
	authFullname string
	authAge      int
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and remember the access token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		password, err := passwordOrPrompt(cmd.InOrStdin(), cmd.OutOrStdout(), authPassword)
		if err != nil {
			return err
		}

		creds, err := openCredentials(cfg)
		if err != nil {
			return err
		}
		client := newAPIClient(cfg, nil)
		auth, err := client.Login(cmd.Context(), authPhone, password)
		if err != nil {
			return eris.Wrap(err, "login")
		}
		return remember(cmd.OutOrStdout(), creds, auth)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and remember the access token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		password, err := passwordOrPrompt(cmd.InOrStdin(), cmd.OutOrStdout(), authPassword)
		if err != nil {
			return err
		}

		creds, err := openCredentials(cfg)
		if err != nil {
			return err
		}
		client := newAPIClient(cfg, nil)
		auth, err := client.Register(cmd.Context(), wire.RegisterRequest{
			Fullname:    authFullname,
			Age:         authAge,
			PhoneNumber: authPhone,
			Password:    password,
		})
		if err != nil {
			return eris.Wrap(err, "register")
		}
		return remember(cmd.OutOrStdout(), creds, auth)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		creds, err := openCredentials(cfg)
		if err != nil {
			return err
		}
		if err := creds.End(); err != nil {
			return err
		}
		zap.L().Debug("credentials cleared", zap.String("path", creds.Path()), zap.Strings("kept", creds.Keys()))
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

func remember(out io.Writer, creds *credentials.Store, auth wire.AuthResponse) error {
	err := creds.Begin(auth.AccessToken, credentials.User{
		ID:          auth.User.ID,
		PhoneNumber: auth.User.PhoneNumber,
		Fullname:    auth.User.Fullname,
	})
	if err != nil {
		return err
	}
	zap.L().Debug("credentials saved", zap.String("path", creds.Path()), zap.Int("user_id", auth.User.ID))

	name := auth.User.Fullname
	if name == "" {
		name = auth.User.PhoneNumber
	}
	fmt.Fprintf(out, "Logged in as %s.\n", name)
	return nil
}

// passwordOrPrompt returns flagValue, or reads one line from in when it is empty.
func passwordOrPrompt(in io.Reader, out io.Writer, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(out, "Password: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", eris.Wrap(err, "read password")
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", eris.New("password is required")
	}
	return password, nil
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&authPhone, "phone", "", "phone number (required)")
		c.Flags().StringVar(&authPassword, "password", "", "password (prompted when omitted)")
		_ = c.MarkFlagRequired("phone")
	}
	registerCmd.Flags().StringVar(&authFullname, "name", "", "full name (required)")
	registerCmd.Flags().IntVar(&authAge, "age", 0, "age (required)")
	_ = registerCmd.MarkFlagRequired("name")
	_ = registerCmd.MarkFlagRequired("age")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd)
}
