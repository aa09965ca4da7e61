package plugins

import (
	"fmt"

	"github.com/blackcoderx/apisentinel/internal/evidence"
	"github.com/blackcoderx/apisentinel/internal/httpclient"
	"github.com/blackcoderx/apisentinel/internal/model"
	"github.com/blackcoderx/apisentinel/internal/scoring"
)

// bannerHeaders are response headers that commonly leak implementation
// details (framework, language runtime, exact server version).
var bannerHeaders = []string{"Server", "X-Powered-By", "X-AspNet-Version", "X-Runtime"}

// BannerGrab is the reference plugin proving the Plugin contract
// compiles and runs: it makes one request against the base URL and
// reports any banner-revealing headers it sees. It is deliberately
// trivial — a stand-in for wiring an actual external scanner, which is
// explicitly out of scope.
type BannerGrab struct{}

func (BannerGrab) Name() string { return "banner-grab" }

func (BannerGrab) Run(snapshot model.SpecSnapshot, client *httpclient.Client, baseURL string) ([]model.Finding, error) {
	resp, err := client.Do(model.HTTPRequest{Method: "GET", URL: baseURL})
	if err != nil {
		return nil, err
	}

	var hits []string
	for _, h := range bannerHeaders {
		for k, v := range resp.Headers {
			if k == h {
				hits = append(hits, fmt.Sprintf("%s: %s", k, v))
			}
		}
	}
	if len(hits) == 0 {
		return nil, nil
	}

	score, sev := scoring.Score("PLUGIN:banner-grab", nil, nil)
	resp.Body = evidence.TruncateBody(resp.Body, false)
	ev := evidence.Build(
		model.HTTPRequest{Method: "GET", URL: baseURL},
		resp,
		"Unauthenticated",
		"BannerGrab",
		[]string{"Send a plain GET to the base URL", "Inspect the response headers for implementation banners"},
		fmt.Sprintf("The server exposed %d implementation-revealing header(s): %v", len(hits), hits),
		"An attacker fingerprints the exact server stack and version from response headers, then targets known vulnerabilities for that specific version.",
		"",
	)

	return []model.Finding{{
		Rule:        "PLUGIN:banner-grab",
		Title:       "Server Banner Disclosure",
		Severity:    model.Severity(sev),
		Score:       score,
		Endpoint:    baseURL,
		Method:      "GET",
		Description: "Response headers reveal server implementation details.",
		Evidence:    ev,
	}}, nil
}

var _ Plugin = BannerGrab{}
