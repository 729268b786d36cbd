package auth

import (
	"fmt"
	"io"
	"strings"
)

// TokenSettingsURL is where Discogs users generate personal access tokens
const TokenSettingsURL = "https://www.discogs.com/settings/developers"

// ShowTokenGuide writes step-by-step instructions for creating a Discogs
// personal access token
func ShowTokenGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "DISCOGS PERSONAL ACCESS TOKEN")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "discogscatalog reads your collection through the Discogs API and")
	fmt.Fprintln(w, "needs a personal access token to do so.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 1: Sign in to Discogs and open")
	fmt.Fprintf(w, "   %s\n", TokenSettingsURL)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 2: Click 'Generate new token' and copy the value")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 3: Store it with one of")
	fmt.Fprintln(w, "   discogscatalog auth login            (system keyring)")
	fmt.Fprintf(w, "   export %s=<token>    (environment)\n", TokenEnv)
	fmt.Fprintln(w, "   discogs.auth_token in discogscatalog.yaml")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The token grants the same access as your account. Keep it private")
	fmt.Fprintln(w, "and revoke it from the same page if it leaks.")
	fmt.Fprintln(w, rule)
}
