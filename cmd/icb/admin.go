package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/brojonat/influencechain/http/api"
	"github.com/urfave/cli/v2"
)

var (
	EnvServerSecretKey = "AUTH_SECRET_KEY"
	EnvServerEndpoint  = "SERVER_ENDPOINT"
	EnvAuthToken       = "AUTH_TOKEN"
)

var (
	endpointFlag = &cli.StringFlag{
		Name:    "endpoint",
		Aliases: []string{"e"},
		Value:   "http://localhost:8080",
		Usage:   "Server endpoint",
		EnvVars: []string{EnvServerEndpoint},
	}
	queryFlag = &cli.StringFlag{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "JMESPath expression applied to the response body",
	}
	tokenFlag = &cli.StringFlag{
		Name:    "token",
		Usage:   "Bearer token",
		EnvVars: []string{EnvAuthToken},
	}
	idFlag = &cli.Uint64Flag{
		Name:     "id",
		Required: true,
		Usage:    "Campaign or submission id",
	}
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

func adminCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "get-token",
			Usage: "Exchange the server secret for a sudo bearer token",
			Flags: []cli.Flag{
				endpointFlag,
				&cli.StringFlag{
					Name:     "email",
					Required: true,
					Usage:    "Email recorded in the token",
				},
				&cli.StringFlag{
					Name:     "secret-key",
					Required: true,
					Usage:    "Server secret key",
					EnvVars:  []string{EnvServerSecretKey},
				},
				&cli.StringFlag{
					Name:  "env-file",
					Usage: "Write AUTH_TOKEN into this .env file",
				},
			},
			Action: getAuthToken,
		},
		{
			Name:  "campaigns",
			Usage: "Campaign reads",
			Subcommands: []*cli.Command{
				{
					Name:  "active",
					Usage: "List active campaigns",
					Flags: []cli.Flag{
						endpointFlag, queryFlag,
						&cli.IntFlag{Name: "limit", Value: 6, Usage: "Maximum campaigns to return"},
					},
					Action: func(c *cli.Context) error {
						v := url.Values{"limit": {fmt.Sprint(c.Int("limit"))}}
						return doGet(c, "/api/campaigns/active?"+v.Encode())
					},
				},
				{
					Name:  "list",
					Usage: "Page through all campaigns",
					Flags: []cli.Flag{
						endpointFlag, queryFlag,
						&cli.IntFlag{Name: "limit", Value: 20},
						&cli.IntFlag{Name: "offset", Value: 0},
						&cli.StringFlag{Name: "status", Usage: "active, paused, completed or cancelled"},
					},
					Action: func(c *cli.Context) error {
						v := url.Values{
							"limit":  {fmt.Sprint(c.Int("limit"))},
							"offset": {fmt.Sprint(c.Int("offset"))},
						}
						if s := c.String("status"); s != "" {
							v.Set("status", s)
						}
						return doGet(c, "/api/campaigns?"+v.Encode())
					},
				},
				{
					Name:   "get",
					Usage:  "Fetch one campaign",
					Flags:  []cli.Flag{endpointFlag, queryFlag, idFlag},
					Action: func(c *cli.Context) error { return doGet(c, fmt.Sprintf("/api/campaigns/%d", c.Uint64("id"))) },
				},
				{
					Name:   "deposit",
					Usage:  "Fetch a campaign's escrow deposit",
					Flags:  []cli.Flag{endpointFlag, queryFlag, idFlag},
					Action: func(c *cli.Context) error { return doGet(c, fmt.Sprintf("/api/campaigns/%d/deposit", c.Uint64("id"))) },
				},
			},
		},
		{
			Name:   "stats",
			Usage:  "Platform statistics",
			Flags:  []cli.Flag{endpointFlag, queryFlag},
			Action: func(c *cli.Context) error { return doGet(c, "/api/stats") },
		},
		{
			Name:   "config",
			Usage:  "Chain and platform configuration",
			Flags:  []cli.Flag{endpointFlag, queryFlag},
			Action: func(c *cli.Context) error { return doGet(c, "/api/config") },
		},
		{
			Name:  "user",
			Usage: "Fetch a user profile",
			Flags: []cli.Flag{
				endpointFlag, queryFlag,
				&cli.StringFlag{Name: "address", Required: true},
			},
			Action: func(c *cli.Context) error { return doGet(c, "/api/user/"+c.String("address")) },
		},
		{
			Name:  "submissions",
			Usage: "Submission reads and verification jobs",
			Subcommands: []*cli.Command{
				{
					Name:   "get",
					Usage:  "Fetch one submission",
					Flags:  []cli.Flag{endpointFlag, queryFlag, idFlag},
					Action: func(c *cli.Context) error { return doGet(c, fmt.Sprintf("/api/submissions/%d", c.Uint64("id"))) },
				},
				{
					Name:  "verify",
					Usage: "Start tracking a submission's verification",
					Flags: []cli.Flag{endpointFlag, queryFlag, tokenFlag, idFlag},
					Action: func(c *cli.Context) error {
						return doRequest(c, http.MethodPost, fmt.Sprintf("/api/submissions/%d/verification", c.Uint64("id")), nil)
					},
				},
				{
					Name:   "verification",
					Usage:  "Show a verification job",
					Flags:  []cli.Flag{endpointFlag, queryFlag, idFlag},
					Action: func(c *cli.Context) error { return doGet(c, fmt.Sprintf("/api/submissions/%d/verification", c.Uint64("id"))) },
				},
			},
		},
		{
			Name:  "prepare",
			Usage: "Post a draft from a JSON file and print the unsigned transactions",
			Flags: []cli.Flag{
				endpointFlag, queryFlag,
				&cli.StringFlag{
					Name:     "kind",
					Required: true,
					Usage:    "campaign, register or submission",
				},
				&cli.StringFlag{
					Name:     "file",
					Aliases:  []string{"f"},
					Required: true,
					Usage:    "Draft JSON, - for stdin",
				},
			},
			Action: prepareDraft,
		},
	}
}

func doGet(c *cli.Context, path string) error {
	return doRequest(c, http.MethodGet, path, nil)
}

func doRequest(c *cli.Context, method, path string, body io.Reader) error {
	r, err := http.NewRequestWithContext(c.Context, method, strings.TrimRight(c.String("endpoint"), "/")+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if tok := c.String("token"); tok != "" {
		r.Header.Set("Authorization", "Bearer "+tok)
	}
	res, err := httpClient.Do(r)
	if err != nil {
		return fmt.Errorf("could not do server request: %w", err)
	}
	return printServerResponse(res, c.String("query"))
}

func getAuthToken(c *cli.Context) error {
	r, err := http.NewRequestWithContext(c.Context, http.MethodPost, c.String("endpoint")+"/token", nil)
	if err != nil {
		return err
	}
	r.SetBasicAuth(c.String("email"), c.String("secret-key"))
	res, err := httpClient.Do(r)
	if err != nil {
		return fmt.Errorf("could not do server request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}
	var resp api.DefaultJSONResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}
	if resp.Error != "" {
		return fmt.Errorf("server error: %s", resp.Error)
	}

	if envFile := c.String("env-file"); envFile != "" {
		if err := upsertEnvLine(envFile, EnvAuthToken, resp.Message); err != nil {
			return err
		}
		fmt.Printf("Bearer token written to %s\n", envFile)
	}

	res.Body = io.NopCloser(bytes.NewReader(body))
	return printServerResponse(res, "")
}

// upsertEnvLine sets key=val in a .env file, creating it if needed.
func upsertEnvLine(path, key, val string) error {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read .env file: %w", err)
	}
	lines := strings.Split(string(content), "\n")
	found := false
	for i, line := range lines {
		if strings.HasPrefix(line, key+"=") {
			lines[i] = key + "=" + val
			found = true
			break
		}
	}
	if !found {
		lines = append(lines, key+"="+val)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return fmt.Errorf("failed to write .env file: %w", err)
	}
	return nil
}

func prepareDraft(c *cli.Context) error {
	paths := map[string]string{
		"campaign":   "/api/campaigns/prepare",
		"register":   "/api/register/prepare",
		"submission": "/api/submissions/prepare",
	}
	path, ok := paths[c.String("kind")]
	if !ok {
		return fmt.Errorf("unknown kind %q", c.String("kind"))
	}

	var b []byte
	var err error
	if f := c.String("file"); f == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(f)
	}
	if err != nil {
		return fmt.Errorf("failed to read draft: %w", err)
	}
	if !json.Valid(b) {
		return fmt.Errorf("draft is not valid JSON")
	}
	return doRequest(c, http.MethodPost, path, bytes.NewReader(b))
}
