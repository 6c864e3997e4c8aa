package domain

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	placeholderBaseURL      = "{BASE_URL}"
	placeholderAffID        = "{AFF_ID}"
	placeholderAffiliateTag = "{AFFILIATE_TAG}"
	placeholderMerchantID   = "{MID}"
	placeholderSubID        = "{SUB_ID}"
	placeholderProductURL   = "{PRODUCT_URL}"
	placeholderRef          = "{REF}"
)

// ResolvedRedirect is the outcome of resolving a program's redirect
// template. URL is best-effort: callers must treat malformed output as
// "redirect unavailable" rather than expecting a validated URL.
type ResolvedRedirect struct {
	URL       string
	SubIDSent string
}

// ResolveRedirectURL substitutes a program's redirect template into a
// concrete outbound URL. All placeholders are replaced in a single pass,
// so a substituted value (a crafted ambassador ref or product URL
// containing a placeholder token) is never re-scanned. Missing inputs
// degrade to empty-string substitution; this never fails.
func ResolveRedirectURL(program AffiliateProgram, ambassadorRef, productURL string) ResolvedRedirect {
	subID := ""
	if program.SubIDParam != "" && ambassadorRef != "" {
		format := program.SubIDFormat
		if format == "" {
			format = placeholderRef
		}
		subID = strings.ReplaceAll(format, placeholderRef, ambassadorRef)
	}

	product := productURL
	if product == "" {
		product = program.BaseURL
	}
	// When the template opens with {PRODUCT_URL} the product URL is
	// itself the destination and stays raw; anywhere else it is embedded
	// as a query value and must be percent-encoded.
	if !strings.HasPrefix(program.RedirectTemplate, placeholderProductURL) {
		product = url.QueryEscape(product)
	}

	replacer := strings.NewReplacer(
		placeholderBaseURL, program.BaseURL,
		placeholderAffID, program.PublisherID,
		placeholderAffiliateTag, program.PublisherID,
		placeholderMerchantID, program.MerchantID,
		placeholderSubID, subID,
		placeholderProductURL, product,
	)
	return ResolvedRedirect{URL: replacer.Replace(program.RedirectTemplate), SubIDSent: subID}
}

var amazonASINPattern = regexp.MustCompile(`/(dp|gp/product)/([A-Za-z0-9]{10})`)

var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_content":  {},
	"utm_term":     {},
	"gclid":        {},
	"fbclid":       {},
	"ref":          {},
	"tag":          {},
}

// CleanProductURL normalizes a product URL for deduplication and display.
// Best-effort: anything unparseable is returned unchanged.
//
// Amazon URLs are rebuilt around the ASIN using the matched path segment
// as-is (dp stays dp, gp/product stays gp/product).
func CleanProductURL(rawURL, network string) string {
	if network == NetworkAmazon {
		m := amazonASINPattern.FindStringSubmatch(rawURL)
		if m == nil {
			return rawURL
		}
		return "https://www.amazon.fr/" + m[1] + "/" + m[2]
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	for key := range query {
		if _, tracked := trackingParams[key]; tracked {
			query.Del(key)
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
