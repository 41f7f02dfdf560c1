package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"

	apiclient "github.com/patryk-bejcer/photobook/pkg/api/client"
)

type cliConfig struct {
	APIBaseURL  string `json:"api_base_url"`
	AccessToken string `json:"access_token"`
}

var buildVersion = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "register":
		err = commandRegister(args)
	case "login":
		err = commandLogin(args)
	case "whoami":
		err = commandWhoami(args)
	case "refresh":
		err = commandRefresh(args)
	case "logout":
		err = commandLogout(args)
	case "version", "--version", "-v":
		fmt.Println(strings.TrimSpace(buildVersion))
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func commandRegister(args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL (default http://localhost:8000)")
	fs.Parse(args)

	if strings.TrimSpace(*name) == "" {
		return errors.New("--name is required")
	}
	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := resolvePassword(*password)
	if err != nil {
		return err
	}

	cfg, client, err := buildClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := client.Register(ctx, *name, *email, secret, secret)
	if err != nil {
		return err
	}
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", resp.Message, resp.User.Email)
	fmt.Println("run 'photobook login' to sign in")
	return nil
}

func commandLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL (default http://localhost:8000)")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := resolvePassword(*password)
	if err != nil {
		return err
	}

	cfg, client, err := buildClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := client.Login(ctx, *email, secret)
	if err != nil {
		return err
	}
	cfg.AccessToken = resp.AccessToken
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("login successful, token valid for %s\n", time.Duration(resp.ExpiresIn)*time.Second)
	return nil
}

func commandWhoami(args []string) error {
	client, err := authenticatedClient(args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	user, err := client.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%s\tsince %s\n", user.Name, user.Email, user.CreatedAt.Format(time.RFC3339))
	return nil
}

func commandRefresh(args []string) error {
	fs := flag.NewFlagSet("refresh", flag.ExitOnError)
	fs.Parse(args)

	cfg, client, err := buildClient("")
	if err != nil {
		return err
	}
	if !client.Session().SignedIn() {
		return errors.New("please login first using 'photobook login'")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := client.Refresh(ctx)
	if err != nil {
		return err
	}
	cfg.AccessToken = resp.AccessToken
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println("token refreshed")
	return nil
}

func commandLogout(args []string) error {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	fs.Parse(args)

	cfg, client, err := buildClient("")
	if err != nil {
		return err
	}
	if !client.Session().SignedIn() {
		return errors.New("not signed in")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := client.Logout(ctx)
	if err != nil {
		return err
	}
	cfg.AccessToken = ""
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println(resp.Message)
	return nil
}

func resolvePassword(supplied string) (string, error) {
	secret := strings.TrimSpace(supplied)
	if secret != "" {
		return secret, nil
	}
	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Print("\n")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

// buildClient loads the saved CLI config and builds a client whose session is
// seeded with any persisted token.
func buildClient(apiBase string) (cliConfig, *apiclient.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cliConfig{}, nil, err
	}
	if strings.TrimSpace(apiBase) != "" {
		cfg.APIBaseURL = apiBase
	}

	session := apiclient.NewSession()
	if cfg.AccessToken != "" {
		session.SetToken(cfg.AccessToken)
	}
	client, err := apiclient.New(cfg.APIBaseURL, apiclient.WithSession(session))
	if err != nil {
		return cliConfig{}, nil, err
	}
	return cfg, client, nil
}

func authenticatedClient(args []string) (*apiclient.Client, error) {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	fs.Parse(args)

	_, client, err := buildClient("")
	if err != nil {
		return nil, err
	}
	if !client.Session().SignedIn() {
		return nil, errors.New("please login first using 'photobook login'")
	}
	return client, nil
}

func loadConfig() (cliConfig, error) {
	path, err := configPath()
	if err != nil {
		return cliConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cliConfig{APIBaseURL: "http://localhost:8000"}, nil
		}
		return cliConfig{}, err
	}
	var cfg cliConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cliConfig{}, err
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "http://localhost:8000"
	}
	return cfg, nil
}

func saveConfig(cfg cliConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func configPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "photobook", "config.json"), nil
}

func printUsage() {
	fmt.Printf("photobook CLI %s\n\n", buildVersion)
	fmt.Print(`Usage:
	photobook register --name "Jane Doe" --email jane@example.com [--password secret] [--api http://localhost:8000]
	photobook login --email jane@example.com [--password secret] [--api http://localhost:8000]
	photobook whoami
	photobook refresh
	photobook logout
	photobook version
`)
}
