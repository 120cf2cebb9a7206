package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type check struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Status   int    `json:"status"`
	Body     string `json:"body,omitempty"`
	Auth     bool   `json:"auth"`
	Critical bool   `json:"critical"`
}

type manifest struct {
	Checks []check `json:"checks"`
}

type result struct {
	Check    check
	Status   int
	Pass     bool
	Error    error
	Duration time.Duration
}

func main() {
	var (
		base     string
		path     string
		email    string
		password string
		timeout  time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&path, "checks", filepath.Join("scripts", "smoke", "checks.json"), "Path to JSON checks file")
	flag.StringVar(&email, "email", os.Getenv("SMOKE_EMAIL"), "Login email for authenticated checks")
	flag.StringVar(&password, "password", os.Getenv("SMOKE_PASSWORD"), "Login password for authenticated checks")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	checks, err := loadChecks(path)
	if err != nil {
		log.Fatalf("failed to load checks: %v", err)
	}

	client := &http.Client{Timeout: timeout}

	token := ""
	if needsAuth(checks) {
		token, err = login(client, base, email, password)
		if err != nil {
			log.Fatalf("login failed: %v", err)
		}
	}

	var results []result
	criticalFailures := 0
	for _, c := range checks {
		res := runCheck(client, base, token, c)
		if !res.Pass && c.Critical {
			criticalFailures++
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Critical failures: %d\n", criticalFailures)
	if criticalFailures > 0 {
		os.Exit(1)
	}
}

func loadChecks(path string) ([]check, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if len(m.Checks) == 0 {
		return nil, fmt.Errorf("no checks defined in %s", path)
	}
	return m.Checks, nil
}

func needsAuth(checks []check) bool {
	for _, c := range checks {
		if c.Auth {
			return true
		}
	}
	return false
}

func login(client *http.Client, base, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", fmt.Errorf("email and password required for authenticated checks")
	}
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	url := strings.TrimRight(base, "/") + "/api/v1/auth/login"
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login returned %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Data.AccessToken == "" {
		return "", fmt.Errorf("login response missing access token")
	}
	return body.Data.AccessToken, nil
}

func runCheck(client *http.Client, base, token string, c check) result {
	res := result{Check: c}

	method := strings.ToUpper(strings.TrimSpace(c.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := c.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		res.Error = err
		return res
	}
	if c.Auth && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	expected := c.Status
	if expected == 0 {
		expected = http.StatusOK
	}
	res.Pass = res.Status == expected

	if res.Pass && c.Body != "" {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			res.Error = err
			res.Pass = false
			return res
		}
		res.Pass = strings.Contains(string(data), c.Body)
	}
	return res
}

func printReport(results []result) {
	fmt.Println("Smoke Check Report")
	fmt.Println("==================")
	for _, res := range results {
		status := "PASS"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.Pass {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Check.Method, res.Check.Path)
		fmt.Printf("  Status: %d (%s)\n", res.Status, res.Duration)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		} else if !res.Pass {
			fmt.Printf("  Critical: %t\n", res.Check.Critical)
		}
	}
}
