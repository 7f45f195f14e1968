package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

type repository struct {
	HTMLURL string `json:"html_url"`
}

type user struct {
	Login string `json:"login"`
}

type pullRequest struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
	Merged  bool   `json:"merged"`
	User    user   `json:"user"`
}

type pullRequestPayload struct {
	Action      string      `json:"action"`
	Number      int         `json:"number"`
	PullRequest pullRequest `json:"pull_request"`
	Repository  repository  `json:"repository"`
}

// signPayload повторяет подпись GitHub: sha256=<hex hmac>
func signPayload(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func pullRequestBody(repoURL, login string, prNumber, issueNumber int) []byte {
	body, _ := json.Marshal(pullRequestPayload{
		Action: "opened",
		Number: prNumber,
		PullRequest: pullRequest{
			Number:  prNumber,
			Title:   fmt.Sprintf("Load PR %d", prNumber),
			Body:    fmt.Sprintf("Fixes #%d", issueNumber),
			HTMLURL: fmt.Sprintf("%s/pull/%d", repoURL, prNumber),
			User:    user{Login: login},
		},
		Repository: repository{HTMLURL: repoURL},
	})
	return body
}

// webhookTargeter выдает уникальную подписанную доставку pull_request на каждый запрос
func webhookTargeter(baseURL, repoURL, login string, issues int, secret []byte) vegeta.Targeter {
	if issues <= 0 {
		issues = 1
	}
	var seq atomic.Int64
	return func(t *vegeta.Target) error {
		n := int(seq.Add(1))
		payload := pullRequestBody(repoURL, login, n, n%issues+1)

		t.Method = http.MethodPost
		t.URL = baseURL + "/webhooks/github"
		t.Body = payload
		t.Header = http.Header{
			"Content-Type":        []string{"application/json"},
			"X-Github-Event":      []string{"pull_request"},
			"X-Github-Delivery":   []string{fmt.Sprintf("load-%d", n)},
			"X-Hub-Signature-256": []string{signPayload(secret, payload)},
		}
		return nil
	}
}

func readTargets(baseURL string) []vegeta.Target {
	paths := []string{"/health", "/tasks", "/tasks?limit=5&minReward=10", "/projects", "/stats", "/leaderboard"}
	targets := make([]vegeta.Target, 0, len(paths))
	for _, p := range paths {
		targets = append(targets, vegeta.Target{Method: http.MethodGet, URL: baseURL + p})
	}
	return targets
}
