package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/osa911/formrelay/internal/form"
	"github.com/osa911/formrelay/internal/server"
	"github.com/osa911/formrelay/internal/service"
	"github.com/osa911/formrelay/internal/version"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "formrelay",
	Short: "formrelay CLI - render and relay website form submissions",
	Long: `formrelay renders website form submissions into emails and relays them
through the configured mail provider. The CLI skips bot verification and is
meant for operators checking templates and mail credentials.`,
	SilenceUsage: true,
}

var renderCmd = &cobra.Command{
	Use:   "render <file|->",
	Short: "Render a submission without sending it",
	Long: `Render a JSON form submission and print the resulting subject and body.

Example:
  formrelay render referral.json
  cat contact.json | formrelay render -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, err := renderFile(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Subject: %s\n\n%s\n", email.Subject, email.Body)
		for _, a := range email.Attachments {
			fmt.Fprintf(out, "\n[attachment] %s (%s)\n", a.Filename, a.ContentType)
		}
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <file|->",
	Short: "Render a submission and send it with the configured mail provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, err := renderFile(args[0])
		if err != nil {
			return err
		}

		cfg, logger, err := server.Bootstrap()
		if err != nil {
			return err
		}
		defer logger.Close()

		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		mailer, err := service.NewMailSender(ctx, cfg, &http.Client{Timeout: cfg.HTTPClientTimeout}, logger)
		if err != nil {
			return err
		}

		s := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
		s.Suffix = fmt.Sprintf(" Sending via %s...", cfg.MailProvider)
		s.Writer = cmd.ErrOrStderr()
		s.Start()
		err = mailer.Send(ctx, email)
		s.Stop()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Sent %q via %s\n", email.Subject, cfg.MailProvider)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "formrelay version: %s\n", version.Info())
	},
}

func init() {
	sendCmd.Flags().Duration("timeout", 30*time.Second, "Overall time limit for the send")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(versionCmd)
}

func renderFile(path string) (*form.Email, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var submission form.Submission
	if err := json.NewDecoder(r).Decode(&submission); err != nil {
		return nil, fmt.Errorf("invalid submission: %w", err)
	}

	return form.NewNormalizer().Normalize(&submission)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
