package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"discogscatalog/pkg/auth"
	"discogscatalog/pkg/config"
	"discogscatalog/pkg/discogs"
	"discogscatalog/pkg/ratelimit"
	"discogscatalog/pkg/ui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored Discogs token",
	Long: `Manage the Discogs personal access token used when no token is given on
the command line, in the environment or in the config file.

Tokens are stored in:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
DISCOGS_AUTH_TOKEN is read as a last resort.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify and store a personal access token",
	Long: `Prompt for a Discogs personal access token, check it against the
identity endpoint and store it for the account it belongs to.

When stdin is not a terminal the token is read from its first line.`,
	Example: `  # Interactive
  discogscatalog auth login

  # From a secret manager
  pass show discogs | discogscatalog auth login`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove a stored token",
	Long: `Remove the stored token of one account. Without a username the only
stored account is removed; --all removes every account.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List stored accounts",
	Long:  `List stored accounts with their tokens masked. --verify checks each token against Discogs.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var authGuideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Explain how to create a personal access token",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowTokenGuide(cmd.OutOrStdout())
	},
}

var (
	logoutAll    bool
	verifyTokens bool
)

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authGuideCmd)

	authLogoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove every stored account")
	authStatusCmd.Flags().BoolVar(&verifyTokens, "verify", false, "check each token against Discogs")
}

// identityClient builds a client for one-off identity checks
func identityClient(cfg *config.Config, token string) *discogs.Client {
	opts := discogs.OptionsFromConfig(cfg)
	opts.Token = token
	opts.Limiter = ratelimit.NewInterval(cfg.MinInterval())
	return discogs.NewClient(opts)
}

// verifyToken resolves the account a token belongs to
func verifyToken(ctx context.Context, cfg *config.Config, token string) (*auth.Account, error) {
	identity, err := identityClient(cfg, token).GetIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("token rejected by Discogs: %w", err)
	}
	return &auth.Account{Username: identity.Username, Token: token}, nil
}

func readToken(in *os.File, prompt io.Writer) (string, error) {
	if term.IsTerminal(int(in.Fd())) {
		auth.ShowTokenGuide(prompt)
		fmt.Fprint(prompt, "\nPersonal access token (hidden): ")
		raw, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadUnvalidated(configFile, globalFlags())
	if err != nil {
		return err
	}

	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	tok, err := readToken(os.Stdin, cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	if tok == "" {
		return errors.New("no token entered")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout()+5*time.Second)
	defer cancel()

	account, err := login(ctx, cfg, manager, tok)
	if err != nil {
		return err
	}

	ui.PrintSuccess("Token stored for " + account.Username)
	ui.Println("Build a catalog with: discogscatalog build --folder <name>")
	return nil
}

// login verifies tok and stores it under the Discogs username it belongs to
func login(ctx context.Context, cfg *config.Config, manager *auth.Manager, tok string) (*auth.Account, error) {
	account, err := verifyToken(ctx, cfg, tok)
	if err != nil {
		return nil, err
	}
	if err := manager.Store(account); err != nil {
		return nil, err
	}
	return account, nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if logoutAll {
		if err := manager.DeleteAll(); err != nil {
			return err
		}
		ui.PrintSuccess("All stored accounts removed")
		return nil
	}

	username, err := logoutTarget(manager, args)
	if err != nil {
		return err
	}
	if err := manager.Delete(username); err != nil {
		return err
	}
	ui.PrintSuccess("Removed stored token for " + username)
	return nil
}

// logoutTarget picks the account to remove: the argument, or the only one
func logoutTarget(manager *auth.Manager, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	accounts, err := manager.List()
	if err != nil {
		return "", err
	}
	switch len(accounts) {
	case 0:
		return "", auth.ErrCredentialsNotFound
	case 1:
		return accounts[0].Username, nil
	default:
		names := make([]string, 0, len(accounts))
		for _, a := range accounts {
			names = append(names, a.Username)
		}
		return "", fmt.Errorf("several accounts stored (%s), name one or pass --all", strings.Join(names, ", "))
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadUnvalidated(configFile, globalFlags())
	if err != nil {
		return err
	}

	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		ui.PrintWarning("No stored accounts", "run 'discogscatalog auth login'")
		return nil
	}

	for _, account := range accounts {
		masked := auth.SanitizeAccount(account)
		ui.PrintInfo(masked.Username, masked.Token+"  "+ui.Dim(masked.LastModified.Format("2006-01-02 15:04")))
		if !verifyTokens {
			continue
		}
		if _, err := verifyToken(cmd.Context(), cfg, account.Token); err != nil {
			ui.PrintError("  invalid", err.Error())
		} else {
			ui.PrintSuccess("  valid")
		}
	}
	return nil
}
