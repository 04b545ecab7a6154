package loyalty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Loyalty-lt/sdk-go/config"
	"github.com/Loyalty-lt/sdk-go/pkg/rest"
)

func TestNewRejectsIncompleteConfig(t *testing.T) {
	_, err := New(&config.Config{APIKey: "key-only"})
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if rest.CodeOf(err) != rest.CodeInvalidConfig {
		t.Errorf("error code = %s, want %s", rest.CodeOf(err), rest.CodeInvalidConfig)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	cfg := &config.Config{APIKey: "k", APISecret: "s"}
	sdk, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if sdk.Config().BaseURL != config.ProductionBaseURL {
		t.Errorf("base URL = %s", sdk.Config().BaseURL)
	}
	if sdk.Config().Retries != config.DefaultRetries {
		t.Errorf("retries = %d", sdk.Config().Retries)
	}
}

func TestFacadePaths(t *testing.T) {
	paths := make([]string, 0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.RequestURI())
		w.Write([]byte(`{"success": true, "data": {}}`))
	}))
	defer srv.Close()

	sdk, err := New(&config.Config{APIKey: "k", APISecret: "s", BaseURL: srv.URL, Locale: "en"})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if _, err := sdk.Shop(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := sdk.PointsBalance(ctx, 7); err != nil {
		t.Fatal(err)
	}
	if _, err := sdk.GenerateQRLogin(ctx, "Test", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := sdk.PollQRLogin(ctx, "sess"); err != nil {
		t.Fatal(err)
	}
	if _, err := sdk.PollQRCard(ctx, "abc"); err != nil {
		t.Fatal(err)
	}
	if _, err := sdk.CardInfo(ctx, CardInfoQuery{UserID: 4}); err != nil {
		t.Fatal(err)
	}
	if err := sdk.SendAppLink(ctx, "+37060000000", 3, "Jonas", ""); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"GET /en/shop/shops/3",
		"GET /en/shop/loyalty-cards/7/balance",
		"POST /en/shop/auth/qr-login/generate",
		"POST /en/shop/auth/qr-login/poll/sess",
		"GET /en/shop/qr-card/status/abc",
		"GET /en/shop/loyalty-cards/info?user_id=4",
		"POST /en/shop/auth/send-app-link",
	}
	if len(paths) != len(want) {
		t.Fatalf("%d requests, want %d: %v", len(paths), len(want), paths)
	}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("request %d = %q, want %q", i, paths[i], p)
		}
	}
}

func TestSendAppLinkPayload(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	sdk, err := New(&config.Config{APIKey: "k", APISecret: "s", BaseURL: srv.URL, Locale: "en"})
	if err != nil {
		t.Fatal(err)
	}

	if err := sdk.SendAppLink(context.Background(), "+37060000000", 3, "Jonas", ""); err != nil {
		t.Fatal(err)
	}

	if got["phone"] != "+37060000000" || got["shop_id"] != float64(3) {
		t.Errorf("payload = %v", got)
	}
	if got["customer_name"] != "Jonas" {
		t.Errorf("customer_name = %v", got["customer_name"])
	}
	// Language falls back to Lithuanian when the caller leaves it empty.
	if got["language"] != "lt" {
		t.Errorf("language = %v", got["language"])
	}
}

func TestCategoriesDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "data": ["food", "beauty"]}`))
	}))
	defer srv.Close()

	sdk, err := New(&config.Config{APIKey: "k", APISecret: "s", BaseURL: srv.URL, Locale: "en"})
	if err != nil {
		t.Fatal(err)
	}

	categories, err := sdk.Categories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(categories) != 2 || categories[0] != "food" {
		t.Errorf("categories = %v", categories)
	}
}

func TestListFiltersBecomeQueryParams(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.RequestURI()
		w.Write([]byte(`{"success": true, "data": [], "meta": {"current_page": 1}}`))
	}))
	defer srv.Close()

	sdk, err := New(&config.Config{APIKey: "k", APISecret: "s", BaseURL: srv.URL, Locale: "en"})
	if err != nil {
		t.Fatal(err)
	}

	_, meta, err := sdk.Cards(context.Background(), CardFilter{Page: 2, PerPage: 25, UserID: 9})
	if err != nil {
		t.Fatal(err)
	}
	if meta == nil {
		t.Error("missing page meta")
	}
	if got != "/en/shop/loyalty-cards?page=2&per_page=25&user_id=9" {
		t.Errorf("request URI = %q", got)
	}
}
