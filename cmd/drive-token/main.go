// Command drive-token runs the installed-app OAuth flow once and prints the
// credentials the bot needs to upload to a personal Google Drive.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"signbot/internal/infra/drive"
)

const callbackPath = "/oauth2/callback"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		secretPath string
		port       int
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "drive-token",
		Short: "Obtain a Google Drive refresh token for the bot",
		Long: `Reads an OAuth client secret JSON (desktop application), opens a loopback
callback server and prints the access token, refresh token, client id and client
secret once the browser flow completes. Put the last three into GOOGLE_CLIENT_ID,
GOOGLE_CLIENT_SECRET and GOOGLE_REFRESH_TOKEN.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(secretPath)
			if err != nil {
				return fmt.Errorf("reading client secret failed: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return run(ctx, data, port, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&secretPath, "client-secret", "client_secret.json", "path to the OAuth client secret JSON")
	cmd.Flags().IntVar(&port, "port", 0, "loopback port for the OAuth callback (0 picks a free one)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "how long to wait for the browser flow")
	return cmd
}

func run(ctx context.Context, secretJSON []byte, port int, out io.Writer) error {
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("opening callback listener failed: %w", err)
	}
	redirect := fmt.Sprintf("http://%s%s", ln.Addr().String(), callbackPath)

	conf, err := oauthConfig(secretJSON, redirect)
	if err != nil {
		_ = ln.Close()
		return err
	}
	state, err := newState()
	if err != nil {
		_ = ln.Close()
		return err
	}

	codes := make(chan callbackResult, 1)
	app := callbackApp(state, codes)
	go func() { _ = app.Listener(ln) }()
	defer func() { _ = app.Shutdown() }()

	fmt.Fprintf(out, "Open this URL in a browser and grant access:\n\n%s\n\n", authURL(conf, state))

	var res callbackResult
	select {
	case res = <-codes:
	case <-ctx.Done():
		return fmt.Errorf("waiting for oauth callback: %w", ctx.Err())
	}
	if res.err != nil {
		return res.err
	}

	tok, err := conf.Exchange(ctx, res.code)
	if err != nil {
		return fmt.Errorf("exchanging authorization code failed: %w", err)
	}
	return printCredentials(out, conf, tok)
}

// oauthConfig parses a client secret JSON for the Drive file scope.
func oauthConfig(secretJSON []byte, redirect string) (*oauth2.Config, error) {
	conf, err := google.ConfigFromJSON(secretJSON, drive.Scope)
	if err != nil {
		return nil, fmt.Errorf("parsing client secret failed: %w", err)
	}
	conf.RedirectURL = redirect
	return conf, nil
}

// authURL asks for offline access and forces the consent screen so Google
// issues a refresh token even for a previously authorized client.
func authURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating state failed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

type callbackResult struct {
	code string
	err  error
}

// callbackApp serves the OAuth redirect and forwards the first result.
func callbackApp(state string, results chan<- callbackResult) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get(callbackPath, func(c *fiber.Ctx) error {
		var res callbackResult
		switch {
		case c.Query("error") != "":
			res.err = fmt.Errorf("authorization denied: %s", c.Query("error"))
		case c.Query("state") != state:
			return c.Status(fiber.StatusBadRequest).SendString("state mismatch")
		case c.Query("code") == "":
			res.err = errors.New("authorization code is missing")
		default:
			res.code = c.Query("code")
		}

		select {
		case results <- res:
		default:
		}
		if res.err != nil {
			return c.Status(fiber.StatusBadRequest).SendString(res.err.Error())
		}
		return c.SendString("Authorization complete. You can close this tab.")
	})
	return app
}

func printCredentials(w io.Writer, conf *oauth2.Config, tok *oauth2.Token) error {
	if tok.RefreshToken == "" {
		return errors.New("google returned no refresh token; revoke the app's access and retry")
	}
	_, err := fmt.Fprintf(w, "ACCESS TOKEN:  %s\nREFRESH TOKEN: %s\nCLIENT ID:     %s\nCLIENT SECRET: %s\n",
		tok.AccessToken, tok.RefreshToken, conf.ClientID, conf.ClientSecret)
	return err
}
