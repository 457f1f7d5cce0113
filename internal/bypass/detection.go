package bypass

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/FranksOps/sourcelinks/internal/page"
)

// Detector examines a fetched page to determine if the search engine or a bot
// protection layer in front of it served a challenge instead of results.
type Detector func(p *page.Page) (detected bool, source string)

// DefaultDetectors returns the detectors run on every fetched page.
func DefaultDetectors() []Detector {
	return []Detector{
		detectGoogleSorry,
		detectCaptcha,
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
	}
}

// Analyze runs the page through all provided detectors, records the first hit
// on the page and reports whether anything triggered.
func Analyze(p *page.Page, detectors []Detector) bool {
	if p == nil || !p.OK() {
		return false
	}
	for _, d := range detectors {
		if detected, source := d(p); detected {
			p.DetectedBot = true
			p.DetectionSrc = source
			return true
		}
	}
	p.DetectedBot = false
	p.DetectionSrc = ""
	return false
}

// detectGoogleSorry catches the "unusual traffic" interstitial Google serves
// from /sorry/ once a client is flagged.
func detectGoogleSorry(p *page.Page) (bool, string) {
	if p.StatusCode == http.StatusTooManyRequests {
		return true, "RateLimited"
	}
	if strings.Contains(p.Header("Location"), "/sorry/") ||
		bytes.Contains(p.Body, []byte("Our systems have detected unusual traffic")) {
		return true, "GoogleSorry"
	}
	return false, ""
}

// detectCaptcha looks for embedded reCAPTCHA or hCaptcha widgets on an
// otherwise successful response.
func detectCaptcha(p *page.Page) (bool, string) {
	if bytes.Contains(p.Body, []byte("g-recaptcha")) || bytes.Contains(p.Body, []byte("h-captcha")) {
		return true, "Captcha"
	}
	return false, ""
}

func detectCloudflare(p *page.Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden && p.StatusCode != http.StatusServiceUnavailable {
		return false, ""
	}
	if strings.Contains(strings.ToLower(p.Header("Server")), "cloudflare") {
		return true, "Cloudflare"
	}
	for _, sig := range []string{"cf-browser-verification", "cloudflare-nginx", "cf-turnstile", "Attention Required! | Cloudflare"} {
		if bytes.Contains(p.Body, []byte(sig)) {
			return true, "Cloudflare"
		}
	}
	return false, ""
}

func detectAkamai(p *page.Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(strings.ToLower(p.Header("Server")), "akamai") {
		return true, "Akamai"
	}
	// generic "Reference #" block page
	if bytes.Contains(p.Body, []byte("Reference #")) && bytes.Contains(p.Body, []byte("Access Denied")) {
		return true, "Akamai"
	}
	return false, ""
}

func detectDataDome(p *page.Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(strings.ToLower(p.Header("Server")), "datadome") ||
		p.Header("X-DataDome") != "" || p.Header("X-DataDome-Response") != "" {
		return true, "DataDome"
	}
	if bytes.Contains(p.Body, []byte("geo.captcha-delivery.com")) || bytes.Contains(p.Body, []byte("datadome")) {
		return true, "DataDome"
	}
	return false, ""
}

func detectPerimeterX(p *page.Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if p.Header("X-Px-Captcha") != "" {
		return true, "PerimeterX"
	}
	if bytes.Contains(p.Body, []byte("client.perimeterx.net")) ||
		bytes.Contains(p.Body, []byte("px-captcha")) ||
		bytes.Contains(p.Body, []byte("_pxBlock")) {
		return true, "PerimeterX"
	}
	return false, ""
}
