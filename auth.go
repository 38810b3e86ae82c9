package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

const defaultAccount = "default"

func newOAuthConfig(config *Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{calendar.CalendarScope},
	}
}

// googleHTTPClient returns an authorized client. A service-account (or any
// Google credentials JSON) file wins; otherwise an OAuth token previously
// stored by the auth command is used. Anything else is ErrAuthFailure.
func googleHTTPClient(ctx context.Context, config *Config, db *sql.DB) (*http.Client, error) {
	if data, err := os.ReadFile(config.CredentialsFile); err == nil {
		creds, err := google.CredentialsFromJSON(ctx, data, calendar.CalendarScope)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid credentials file %s: %v", ErrAuthFailure, config.CredentialsFile, err)
		}
		log.WithField("credentials", config.CredentialsFile).Debug("Using Google credentials file")
		return oauth2.NewClient(ctx, creds.TokenSource), nil
	}

	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("%w: no credentials file at %s and no OAuth client configured", ErrAuthFailure, config.CredentialsFile)
	}

	oauthConfig := newOAuthConfig(config)
	token, err := loadToken(db, defaultAccount)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, fmt.Errorf("%w: no token stored for account %s, run `tourneysync auth`", ErrAuthFailure, defaultAccount)
	}

	newToken, err := oauthConfig.TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: token expired or revoked for account %s: %v", ErrAuthFailure, defaultAccount, err)
	}
	if newToken.AccessToken != token.AccessToken {
		log.WithField("account", defaultAccount).Info("Token refreshed")
		if err := saveToken(db, defaultAccount, newToken); err != nil {
			log.WithError(err).Warn("Failed to save refreshed token")
		}
	}
	return oauthConfig.Client(ctx, newToken), nil
}

func getTokenFromWeb(ctx context.Context, config *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Go to the following link in your browser then type the "+
		"authorization code: \n%v\n", authURL)

	authCode, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}
	authCode = strings.TrimSpace(authCode)
	if authCode == "" {
		return nil, fmt.Errorf("no authorization code entered")
	}

	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

func saveToken(db *sql.DB, accountName string, token *oauth2.Token) error {
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return err
	}

	_, err = db.Exec("INSERT OR REPLACE INTO tokens (account_name, token) VALUES (?, ?)", accountName, tokenJSON)
	return err
}

// loadToken returns nil without error when no token is stored.
func loadToken(db *sql.DB, accountName string) (*oauth2.Token, error) {
	var tokenJSON []byte
	err := db.QueryRow("SELECT token FROM tokens WHERE account_name = ?", accountName).Scan(&tokenJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving token from database: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("error unmarshaling token: %w", err)
	}
	return &token, nil
}

// authorize runs the interactive installed-app flow and stores the token.
func authorize(ctx context.Context, config *Config, db *sql.DB, in io.Reader, out io.Writer) error {
	if config.ClientID == "" || config.ClientSecret == "" {
		return fmt.Errorf("client_id and client_secret must be set in %s", configFileName)
	}
	token, err := getTokenFromWeb(ctx, newOAuthConfig(config), in, out)
	if err != nil {
		return err
	}
	if err := saveToken(db, defaultAccount, token); err != nil {
		return fmt.Errorf("error saving token: %w", err)
	}
	fmt.Fprintf(out, "✅ Token saved for account %s\n", defaultAccount)
	return nil
}

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize a Google account with the OAuth client from the config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "🚀 Starting authorization...")
			return authorize(cmd.Context(), a.config, a.db, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
