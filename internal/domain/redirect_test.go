package domain

import (
	"strings"
	"testing"
)

func TestResolveRedirectTemplateRoundTrip(t *testing.T) {
	program := AffiliateProgram{
		RedirectTemplate: "{BASE_URL}?tag={AFFILIATE_TAG}&subid={SUB_ID}",
		BaseURL:          "https://www.amazon.fr",
		SubIDParam:       "subid",
		SubIDFormat:      "buyla_{REF}",
		PublisherID:      "buyla-tag-20",
	}
	out := ResolveRedirectURL(program, "ABC123", "")
	if out.URL != "https://www.amazon.fr?tag=buyla-tag-20&subid=buyla_ABC123" {
		t.Fatalf("unexpected url: %s", out.URL)
	}
	if out.SubIDSent != "buyla_ABC123" {
		t.Fatalf("unexpected sub id: %s", out.SubIDSent)
	}
}

func TestResolveRedirectNoSubIDWithoutParamOrRef(t *testing.T) {
	program := AffiliateProgram{
		RedirectTemplate: "{BASE_URL}?aff={AFF_ID}&subid={SUB_ID}",
		BaseURL:          "https://shop.example",
		PublisherID:      "pub-1",
		SubIDFormat:      "buyla_{REF}",
	}
	out := ResolveRedirectURL(program, "ABC123", "")
	if out.SubIDSent != "" {
		t.Fatalf("expected no sub id without sub_id_param, got %s", out.SubIDSent)
	}
	if !strings.Contains(out.URL, "subid=") || strings.Contains(out.URL, "ABC123") {
		t.Fatalf("sub id placeholder should resolve empty: %s", out.URL)
	}

	program.SubIDParam = "subid"
	out = ResolveRedirectURL(program, "", "")
	if out.SubIDSent != "" {
		t.Fatalf("expected no sub id without ambassador ref, got %s", out.SubIDSent)
	}
}

func TestResolveRedirectSinglePassNoReScan(t *testing.T) {
	program := AffiliateProgram{
		RedirectTemplate: "{BASE_URL}?subid={SUB_ID}",
		BaseURL:          "https://shop.example",
		SubIDParam:       "subid",
	}
	// A crafted ref carrying a placeholder token must come through
	// literally, never expanded against the program again.
	out := ResolveRedirectURL(program, "{AFFILIATE_TAG}", "")
	if out.SubIDSent != "{AFFILIATE_TAG}" {
		t.Fatalf("unexpected sub id: %s", out.SubIDSent)
	}
	if out.URL != "https://shop.example?subid={AFFILIATE_TAG}" {
		t.Fatalf("substituted value was re-expanded: %s", out.URL)
	}
}

func TestResolveRedirectProductURLEncoding(t *testing.T) {
	program := AffiliateProgram{
		RedirectTemplate: "https://network.example/track?mid={MID}&url={PRODUCT_URL}",
		MerchantID:       "m-77",
	}
	out := ResolveRedirectURL(program, "", "https://shop.com/item?id=1&color=red")
	if !strings.Contains(out.URL, "url=https%3A%2F%2Fshop.com%2Fitem%3Fid%3D1%26color%3Dred") {
		t.Fatalf("embedded product url must be percent-encoded: %s", out.URL)
	}

	program = AffiliateProgram{
		RedirectTemplate: "{PRODUCT_URL}?tag={AFFILIATE_TAG}",
		PublisherID:      "tag-1",
	}
	out = ResolveRedirectURL(program, "", "https://shop.com/item")
	if out.URL != "https://shop.com/item?tag=tag-1" {
		t.Fatalf("leading product url must stay raw: %s", out.URL)
	}
}

func TestResolveRedirectFallsBackToBaseURL(t *testing.T) {
	program := AffiliateProgram{
		RedirectTemplate: "https://network.example/track?url={PRODUCT_URL}",
		BaseURL:          "https://shop.com",
	}
	out := ResolveRedirectURL(program, "", "")
	if !strings.Contains(out.URL, "url=https%3A%2F%2Fshop.com") {
		t.Fatalf("missing product url should fall back to base url: %s", out.URL)
	}
}

func TestCleanProductURLAmazon(t *testing.T) {
	got := CleanProductURL("https://www.amazon.fr/Produit-Super/dp/B09ABC1234/ref=sr_1_1?keywords=test", NetworkAmazon)
	if got != "https://www.amazon.fr/dp/B09ABC1234" {
		t.Fatalf("unexpected cleaned url: %s", got)
	}

	got = CleanProductURL("https://www.amazon.fr/gp/product/B09ABC1234?psc=1", NetworkAmazon)
	if got != "https://www.amazon.fr/gp/product/B09ABC1234" {
		t.Fatalf("gp/product segment must be preserved as matched: %s", got)
	}

	raw := "https://www.amazon.fr/s?k=chaussures"
	if got := CleanProductURL(raw, NetworkAmazon); got != raw {
		t.Fatalf("url without ASIN must pass through unchanged: %s", got)
	}
}

func TestCleanProductURLStripsTrackingParams(t *testing.T) {
	got := CleanProductURL("https://shop.com/product?id=123&utm_source=google&gclid=abc", NetworkDirect)
	if got != "https://shop.com/product?id=123" {
		t.Fatalf("unexpected cleaned url: %s", got)
	}

	got = CleanProductURL("https://shop.com/product?utm_source=google", NetworkDirect)
	if got != "https://shop.com/product" {
		t.Fatalf("all-tracking query should strip to bare path: %s", got)
	}
}

func TestCleanProductURLMalformedPassthrough(t *testing.T) {
	raw := "http://%zz-not-a-url"
	if got := CleanProductURL(raw, NetworkDirect); got != raw {
		t.Fatalf("malformed url must pass through unchanged: %s", got)
	}
}
