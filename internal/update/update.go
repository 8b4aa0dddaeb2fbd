// Package update checks GitHub releases for a newer gamex binary.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	DefaultReleasesURL = "https://api.github.com/repos/gamex/gamex-cli/releases/latest"
	CheckTimeout       = 5 * time.Second
)

type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

type CheckResult struct {
	CurrentVersion  string `json:"current_version"`
	LatestVersion   string `json:"latest_version"`
	UpdateURL       string `json:"update_url"`
	UpdateAvailable bool   `json:"update_available"`
}

// Notice is the one-line hint printed after a command, or "" when up to date.
func (r *CheckResult) Notice() string {
	if r == nil || !r.UpdateAvailable {
		return ""
	}
	return fmt.Sprintf("A new gamex release is available: %s -> %s (%s)", r.CurrentVersion, r.LatestVersion, r.UpdateURL)
}

// Checker queries a releases endpoint.
type Checker struct {
	URL  string
	HTTP *http.Client
}

// NewChecker uses DefaultReleasesURL and a client bounded by CheckTimeout.
func NewChecker() *Checker {
	return &Checker{URL: DefaultReleasesURL, HTTP: &http.Client{Timeout: CheckTimeout}}
}

// Disabled reports whether GAMEX_NO_UPDATE_CHECK is set.
func Disabled() bool {
	return os.Getenv("GAMEX_NO_UPDATE_CHECK") != ""
}

// Check returns nil if the check fails or the version is a dev build; it
// never blocks the CLI for longer than CheckTimeout.
func (c *Checker) Check(ctx context.Context, currentVersion string) *CheckResult {
	if currentVersion == "dev" || currentVersion == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil
	}

	current := normalizeVersion(currentVersion)
	latest := normalizeVersion(release.TagName)

	result := &CheckResult{
		CurrentVersion: strings.TrimPrefix(currentVersion, "v"),
		LatestVersion:  strings.TrimPrefix(release.TagName, "v"),
		UpdateURL:      release.HTMLURL,
	}
	if semver.IsValid(current) && semver.IsValid(latest) {
		result.UpdateAvailable = semver.Compare(latest, current) > 0
	}
	return result
}

func normalizeVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}
