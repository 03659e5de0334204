package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration

	listLimit  int
	listOffset int

	transferFrom   string
	transferTo     string
	transferAmount string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tally-cli",
		Short: "Tally CLI tool",
		Long:  `A command line interface for interacting with the Tally API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Tally API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Account commands
	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Run: func(cmd *cobra.Command, args []string) {
			listAccounts()
		},
	}
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of accounts to return")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Number of accounts to skip")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getAccount(args[0])
		},
	}

	accountsCmd.AddCommand(listCmd, getCmd)

	// Seed command
	seedCmd := &cobra.Command{
		Use:   "seed [name=balance ...]",
		Short: "Replace all accounts with a seeded set",
		Long: `Replace every stored account with the given name=balance pairs.
With no arguments the server seeds its default fixtures.`,
		Run: func(cmd *cobra.Command, args []string) {
			seedAccounts(args)
		},
	}

	// Transfer command
	transferCmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move funds between two accounts",
		Run: func(cmd *cobra.Command, args []string) {
			transferFunds()
		},
	}
	transferCmd.Flags().StringVar(&transferFrom, "from", "", "Source account ID")
	transferCmd.Flags().StringVar(&transferTo, "to", "", "Destination account ID")
	transferCmd.Flags().StringVar(&transferAmount, "amount", "", "Amount to transfer")

	rootCmd.AddCommand(accountsCmd, seedCmd, transferCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func seedAccounts(args []string) {
	accounts, err := parseSeedArgs(args)
	if err != nil {
		fmt.Printf("Invalid seed argument: %v\n", err)
		os.Exit(1)
	}

	var payload []byte
	if len(accounts) > 0 {
		payload, err = json.Marshal(map[string]any{"accounts": accounts})
		if err != nil {
			fmt.Printf("Failed to encode request: %v\n", err)
			os.Exit(1)
		}
	}

	status, body := callAPI(http.MethodPost, "/api/v1/accounts/seed", payload)
	if status != http.StatusCreated {
		apiError("Seed", status, body)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded %v account(s)\n", result["total"])
	printJSON(result["accounts"])
}

func transferFunds() {
	payload := map[string]any{
		"source_id":      transferFrom,
		"destination_id": transferTo,
	}
	// An empty --amount is left out of the payload so the server reports
	// the missing field; anything else must at least parse as a number.
	if transferAmount != "" {
		amount, err := decimal.NewFromString(transferAmount)
		if err != nil {
			fmt.Printf("Invalid amount %q: %v\n", transferAmount, err)
			os.Exit(1)
		}
		payload["amount"] = amount
	}

	data, err := json.Marshal(payload)
	if err != nil {
		fmt.Printf("Failed to encode request: %v\n", err)
		os.Exit(1)
	}

	status, body := callAPI(http.MethodPost, "/api/v1/transfers", data)
	if status != http.StatusOK {
		apiError("Transfer", status, body)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", result["message"])
	fmt.Printf("Source balance: %v\n", result["source_balance_after"])
	fmt.Printf("Destination balance: %v\n", result["destination_balance_after"])
}

func listAccounts() {
	path := fmt.Sprintf("/api/v1/accounts?limit=%d&offset=%d", listLimit, listOffset)

	status, body := callAPI(http.MethodGet, path, nil)
	if status != http.StatusOK {
		apiError("List accounts", status, body)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Total: %v\n", result["total"])
	printJSON(result["accounts"])
}

func getAccount(id string) {
	status, body := callAPI(http.MethodGet, "/api/v1/accounts/"+id, nil)
	if status != http.StatusOK {
		apiError("Get account", status, body)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	printJSON(result)
}

// parseSeedArgs turns name=balance pairs into seed request entries.
func parseSeedArgs(args []string) ([]map[string]any, error) {
	accounts := make([]map[string]any, 0, len(args))
	for _, arg := range args {
		name, balance, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=balance, got %q", arg)
		}

		amount, err := decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("bad balance in %q: %v", arg, err)
		}

		accounts = append(accounts, map[string]any{"name": name, "balance": amount})
	}
	return accounts, nil
}

func callAPI(method, path string, payload []byte) (int, []byte) {
	client := &http.Client{Timeout: timeout}

	var reqBody io.Reader
	if len(payload) > 0 {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL+path, reqBody)
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}
	if len(payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func apiError(action string, status int, body []byte) {
	var result map[string]any
	if err := json.Unmarshal(body, &result); err == nil {
		if msg, ok := result["error"].(string); ok {
			fmt.Printf("%s failed (Status: %d): %s\n", action, status, msg)
			os.Exit(1)
		}
	}

	fmt.Printf("%s failed (Status: %d)\nResponse: %s\n", action, status, string(body))
	os.Exit(1)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to render response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
