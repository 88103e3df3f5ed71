package scenarios

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kuitang/dealer-verify/internal/config"
	"github.com/kuitang/dealer-verify/internal/routemock"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	return cfg
}

func mockBody(t *testing.T, mocks []routemock.Mock, pattern, method string) string {
	t.Helper()
	for _, m := range mocks {
		if m.Pattern == pattern && m.Method == method {
			return string(m.Body)
		}
	}
	t.Fatalf("no mock for %s %s", method, pattern)
	return ""
}

func TestCSVImport_PayloadsMatchStorefrontAPI(t *testing.T) {
	sc := CSVImport(testConfig(t))
	require.NoError(t, sc.Validate())

	require.JSONEq(t, `{"items": [], "total": 0, "page": 1, "totalPages": 0}`,
		mockBody(t, sc.Mocks, InventoryListPattern, ""))
	require.JSONEq(t, `{"id": "csv_1", "title": "CSV Car", "status": "AVAILABLE"}`,
		mockBody(t, sc.Mocks, InventorySavePattern, http.MethodPost))
	require.JSONEq(t, `{"id": "user1", "email": "admin@test.com", "role": "ADMIN", "name": "Admin"}`,
		mockBody(t, sc.Mocks, AuthMePattern, ""))
}

func TestMiniApp_PayloadsMatchStorefrontAPI(t *testing.T) {
	sc := MiniApp(testConfig(t))
	require.NoError(t, sc.Validate())

	require.JSONEq(t, `{"items": [{"canonicalId": "1", "title": "Mock Car BMW", "price": {"amount": 50000, "currency": "USD"}, "year": 2023, "mileage": 1000, "status": "AVAILABLE", "thumbnail": "https://via.placeholder.com/300"}], "total": 1, "page": 1, "totalPages": 1}`,
		mockBody(t, sc.Mocks, InventoryListPattern, ""))
	require.JSONEq(t, `[{"id": "bot1", "active": true, "name": "Test Bot", "miniAppConfig": {"title": "Test Car Store", "welcomeText": "Welcome!", "primaryColor": "#D4AF37", "layout": "GRID", "actions": []}}]`,
		mockBody(t, sc.Mocks, PublicBotsPattern, ""))
}

func TestCSVImport_SaveIsNotShadowedByList(t *testing.T) {
	sc := CSVImport(testConfig(t))
	table, err := routemock.NewTable(sc.Mocks...)
	require.NoError(t, err)
	require.Empty(t, table.Shadowed())

	save, ok := table.Match(http.MethodPost, "http://localhost:5173/api/inventory")
	require.True(t, ok)
	require.Equal(t, InventorySavePattern, save.Pattern)

	for _, url := range []string{
		"http://localhost:5173/api/inventory",
		"http://localhost:5173/api/inventory?page=1&limit=20",
	} {
		list, ok := table.Match(http.MethodGet, url)
		require.True(t, ok, url)
		require.Equal(t, InventoryListPattern, list.Pattern, url)
	}

	me, ok := table.Match(http.MethodGet, "http://localhost:5173/api/auth/me")
	require.True(t, ok)
	require.Equal(t, AuthMePattern, me.Pattern)

	_, ok = table.Match(http.MethodGet, "http://localhost:5173/src/main.tsx")
	require.False(t, ok, "app assets must reach the dev server")
}

func TestMiniApp_RoutesAndExpectations(t *testing.T) {
	cfg := testConfig(t)
	sc := MiniApp(cfg)

	require.Equal(t, "/p/app", sc.Route)
	require.Equal(t, filepath.Join(cfg.OutputDir, "verification.png"), sc.Screenshot)
	require.Len(t, sc.Steps, 3)
	require.Equal(t, `expect text "Test Car Store" visible`, sc.Steps[0].Describe())
	require.Equal(t, `expect text "Mock Car BMW" visible`, sc.Steps[1].Describe())
	require.Equal(t, `expect text "50,000 $" visible`, sc.Steps[2].Describe())

	table, err := routemock.NewTable(sc.Mocks...)
	require.NoError(t, err)
	bots, ok := table.Match(http.MethodGet, "http://localhost:5173/api/public/bots?slug=app")
	require.True(t, ok)
	require.Equal(t, PublicBotsPattern, bots.Pattern)
}

func TestDefaultConfig_KeepsOriginalArtifactPaths(t *testing.T) {
	cfg := config.Default()

	csv := CSVImport(cfg)
	require.Equal(t, "verification/csv_import.png", filepath.ToSlash(csv.Screenshot))
	require.Equal(t, "verification/test.csv", filepath.ToSlash(csv.Fixtures[0].Path))
	require.Equal(t, "CSV Import Verified", csv.SuccessMessage)

	mini := MiniApp(cfg)
	require.Equal(t, "Screenshot saved to verification/verification.png", mini.SuccessMessage)
}

func TestCSVImport_StepOrder(t *testing.T) {
	sc := CSVImport(testConfig(t))
	var got []string
	for _, s := range sc.Steps {
		got = append(got, s.Describe())
	}
	require.Equal(t, []string{
		`click button "Import URL"`,
		`upload test.csv into #csv-upload`,
		`expect button "Import CSV" visible`,
		`click button "Import CSV"`,
	}, got)
}

func TestByNameAndSelect(t *testing.T) {
	cfg := testConfig(t)

	require.Equal(t, []string{CSVImportName, MiniAppName}, Names())

	sc, err := ByName(cfg, " MiniApp ")
	require.NoError(t, err)
	require.Equal(t, MiniAppName, sc.Name)

	_, err = ByName(cfg, "checkout")
	require.ErrorContains(t, err, "unknown scenario")

	all, err := Select(cfg, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	picked, err := Select(cfg, []string{MiniAppName, MiniAppName, CSVImportName})
	require.NoError(t, err)
	require.Len(t, picked, 2)
	require.Equal(t, MiniAppName, picked[0].Name)
	require.Equal(t, CSVImportName, picked[1].Name)
}

func TestFormatPrice(t *testing.T) {
	cases := map[int]string{
		0:       "0 $",
		999:     "999 $",
		1000:    "1,000 $",
		50000:   "50,000 $",
		1234567: "1,234,567 $",
		-15000:  "-15,000 $",
	}
	for amount, want := range cases {
		require.Equal(t, want, FormatPrice(Price{Amount: amount, Currency: "USD"}), amount)
	}
}

func testFormatPrice_GroupingIsLossless(t *rapid.T) {
	amount := rapid.IntRange(-1_000_000_000, 1_000_000_000).Draw(t, "amount")
	got := FormatPrice(Price{Amount: amount})

	if !strings.HasSuffix(got, " $") {
		t.Fatalf("missing currency suffix: %q", got)
	}
	digits := strings.TrimSuffix(got, " $")
	if strings.ReplaceAll(digits, ",", "") != strconv.Itoa(amount) {
		t.Fatalf("FormatPrice(%d) = %q", amount, got)
	}
	groups := strings.Split(strings.TrimPrefix(digits, "-"), ",")
	for i, g := range groups {
		if i > 0 && len(g) != 3 {
			t.Fatalf("group %d of %q has %d digits", i, got, len(g))
		}
		if len(g) == 0 || len(g) > 3 {
			t.Fatalf("bad group %q in %q", g, got)
		}
	}
}

func TestFormatPrice_GroupingIsLossless(t *testing.T) {
	rapid.Check(t, testFormatPrice_GroupingIsLossless)
}
