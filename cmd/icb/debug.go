package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/brojonat/influencechain/evm"
	"github.com/brojonat/influencechain/forms"
	"github.com/brojonat/influencechain/icb"
	"github.com/brojonat/influencechain/internal/config"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
)

func debugCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "rate-limit",
			Usage: "Test rate limiting",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "count",
					Aliases: []string{"c"},
					Value:   10,
					Usage:   "Number of requests to make",
				},
				endpointFlag,
			},
			Action: testRateLimit,
		},
		{
			Name:  "token-info",
			Usage: "Decode and display JWT token information",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "token",
					Required: true,
					Usage:    "JWT token to decode",
				},
			},
			Action: decodeToken,
		},
		{
			Name:   "health",
			Usage:  "Check server health and connectivity",
			Flags:  []cli.Flag{endpointFlag},
			Action: checkHealth,
		},
		{
			Name:  "budget",
			Usage: "Compute a campaign budget offline",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "payment-per-post", Required: true, Usage: "PYUSD per post, e.g. 12.50"},
				&cli.Int64Flag{Name: "max-posts", Required: true},
				&cli.Int64Flag{Name: "fee-bps", Value: evm.DefaultFeeRateBps},
			},
			Action: computeBudget,
		},
		{
			Name:  "requirements",
			Usage: "Parse a campaign requirements string as the API would",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "raw", Required: true, Usage: "Requirements string, - for stdin"},
			},
			Action: parseRequirements,
		},
		{
			Name:  "calldata",
			Usage: "Decode transaction calldata against the platform contracts",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "data", Required: true, Usage: "0x-prefixed calldata"},
			},
			Action: decodeCalldata,
		},
		{
			Name:  "campaign",
			Usage: "Read a campaign straight from the chain and print the display form",
			Flags: []cli.Flag{
				&cli.Uint64Flag{Name: "id", Required: true},
			},
			Action: readCampaign,
		},
	}
}

func testRateLimit(c *cli.Context) error {
	endpoint := c.String("endpoint")
	count := c.Int("count")

	fmt.Printf("Testing rate limiting with %d requests to %s\n", count, endpoint)

	for i := 0; i < count; i++ {
		resp, err := httpClient.Get(endpoint + "/api/stats")
		if err != nil {
			fmt.Printf("Request %d failed: %v\n", i+1, err)
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		fmt.Printf("Request %d: Status=%d, Body=%s\n", i+1, resp.StatusCode, string(body))
		if resp.StatusCode == http.StatusTooManyRequests {
			fmt.Printf("Rate limit hit! Retry after %s seconds\n", resp.Header.Get("Retry-After"))
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}

func decodeToken(c *cli.Context) error {
	parts := strings.Split(c.String("token"), ".")
	if len(parts) != 3 {
		return fmt.Errorf("invalid token format")
	}
	header, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return fmt.Errorf("failed to decode header: %w", err)
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	var prettyHeader, prettyPayload interface{}
	if err := json.Unmarshal(header, &prettyHeader); err != nil {
		return fmt.Errorf("header is not JSON: %w", err)
	}
	if err := json.Unmarshal(payload, &prettyPayload); err != nil {
		return fmt.Errorf("payload is not JSON: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	fmt.Println("Header:")
	enc.Encode(prettyHeader)
	fmt.Println("Payload:")
	return enc.Encode(prettyPayload)
}

func checkHealth(c *cli.Context) error {
	endpoint := c.String("endpoint")
	fmt.Printf("Checking health of %s\n", endpoint)

	for _, path := range []string{"/ping", "/api/config"} {
		resp, err := httpClient.Get(endpoint + path)
		if err != nil {
			return fmt.Errorf("failed to connect to server: %w", err)
		}
		resp.Body.Close()
		fmt.Printf("%s: %s\n", path, resp.Status)
	}
	return nil
}

func computeBudget(c *cli.Context) error {
	ppp, err := evm.ParsePYUSD(c.String("payment-per-post"))
	if err != nil {
		return fmt.Errorf("invalid --payment-per-post: %w", err)
	}
	b, err := forms.CampaignBudget(ppp, c.Int64("max-posts"), c.Int64("fee-bps"))
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(b)
}

func parseRequirements(c *cli.Context) error {
	raw := c.String("raw")
	if raw == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		raw = string(b)
	}
	return json.NewEncoder(os.Stdout).Encode(icb.ParseRequirements(raw))
}

func decodeCalldata(c *cli.Context) error {
	data, err := hexutil.Decode(c.String("data"))
	if err != nil {
		return fmt.Errorf("invalid calldata: %w", err)
	}
	if len(data) < 4 {
		return fmt.Errorf("calldata shorter than a selector")
	}
	contracts := []struct {
		name string
		abi  abi.ABI
	}{
		{"PlatformCore", evm.PlatformCoreABI},
		{"CampaignManager", evm.CampaignManagerABI},
		{"UserRegistry", evm.UserRegistryABI},
		{"PaymentEscrow", evm.PaymentEscrowABI},
		{"AIVerification", evm.AIVerificationABI},
		{"ERC20", evm.ERC20ABI},
	}
	for _, ct := range contracts {
		m, err := ct.abi.MethodById(data[:4])
		if err != nil {
			continue
		}
		args, err := m.Inputs.Unpack(data[4:])
		if err != nil {
			return fmt.Errorf("failed to unpack %s.%s arguments: %w", ct.name, m.Name, err)
		}
		named := make(map[string]interface{}, len(args))
		for i, in := range m.Inputs {
			named[in.Name] = args[i]
		}
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"contract": ct.name,
			"method":   m.Sig,
			"args":     named,
		})
	}
	return fmt.Errorf("selector %s matches no known method", hexutil.Encode(data[:4]))
}

func readCampaign(c *cli.Context) error {
	cfg, err := config.Load(c.Context)
	if err != nil {
		return err
	}
	ec, closeChain, err := dialChain(c.Context, cfg)
	if err != nil {
		return err
	}
	defer closeChain()

	id := c.Uint64("id")
	rec, err := ec.GetCampaign(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to read campaign %d: %w", id, err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(icb.TransformCampaign(rec, id, time.Now()))
}
