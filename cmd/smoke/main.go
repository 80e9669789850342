package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

// End-to-end smoke test against a running API: login, create, list,
// export, delete. Exits non-zero on any mismatch.

func main() {
	base := os.Getenv("GLOSSA_SMOKE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	email := os.Getenv("GLOSSA_SMOKE_EMAIL")
	if email == "" {
		email = "demo@glossa.dev"
	}
	password := os.Getenv("GLOSSA_SMOKE_PASSWORD")
	if password == "" {
		password = "password"
	}

	client := &http.Client{Timeout: 10 * time.Second}

	token := login(client, base, email, password)
	key := fmt.Sprintf("smoke.key_%d", rand.Int())

	created := request(client, base, token, http.MethodPost, "/translations", map[string]any{
		"key": key, "value": "smoke value", "locale": "en", "tags": []string{"web"},
	}, http.StatusCreated)
	var tr struct {
		ID int64 `json:"id"`
	}
	mustDecode(created, &tr, "create response")
	if tr.ID == 0 {
		log.Fatal("create returned zero id")
	}

	listed := request(client, base, token, http.MethodGet, "/translations?key="+key, nil, http.StatusOK)
	var page struct {
		Total int `json:"total"`
	}
	mustDecode(listed, &page, "list response")
	if page.Total != 1 {
		log.Fatalf("list by key: total=%d, want 1", page.Total)
	}

	exported := request(client, base, token, http.MethodGet, "/translations/export?locale=en", nil, http.StatusOK)
	var dump map[string]string
	mustDecode(exported, &dump, "export body")
	if dump[key] != "smoke value" {
		log.Fatalf("export missing %q", key)
	}

	request(client, base, token, http.MethodDelete, fmt.Sprintf("/translations/%d", tr.ID), nil, http.StatusNoContent)
	request(client, base, token, http.MethodGet, fmt.Sprintf("/translations/%d", tr.ID), nil, http.StatusNotFound)

	fmt.Printf("✅ glossa-api smoke test passed: id=%d key=%s\n", tr.ID, key)
}

func login(client *http.Client, base, email, password string) string {
	body := request(client, base, "", http.MethodPost, "/login", map[string]string{
		"email": email, "password": password,
	}, http.StatusOK)
	var res struct {
		Token string `json:"token"`
	}
	mustDecode(body, &res, "login response")
	if res.Token == "" {
		log.Fatal("login returned empty token")
	}
	return res.Token
}

func request(client *http.Client, base, token, method, path string, payload any, wantStatus int) []byte {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			log.Fatalf("marshal %s %s: %v", method, path, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, base+path, body)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		log.Fatalf("%s %s: read body: %v", method, path, err)
	}
	if res.StatusCode != wantStatus {
		log.Fatalf("%s %s: status %d, want %d (%s)", method, path, res.StatusCode, wantStatus, raw)
	}
	return raw
}

func mustDecode(raw []byte, dst any, what string) {
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Fatalf("decode %s: %v (%s)", what, err, raw)
	}
}
