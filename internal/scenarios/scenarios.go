// Package scenarios defines the fixed storefront verifications: the
// admin CSV import flow and the public mini-app storefront.
package scenarios

import (
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kuitang/dealer-verify/internal/artifacts"
	"github.com/kuitang/dealer-verify/internal/config"
	"github.com/kuitang/dealer-verify/internal/fixture"
	"github.com/kuitang/dealer-verify/internal/harness"
	"github.com/kuitang/dealer-verify/internal/routemock"
)

const (
	CSVImportName = "csv-import"
	MiniAppName   = "miniapp"

	// Patterns intercepted by the scenarios.
	InventoryListPattern = "**/api/inventory*"
	InventorySavePattern = "**/api/inventory"
	AuthMePattern        = "**/api/auth/me"
	PublicBotsPattern    = "**/api/public/bots*"

	csvFixtureFile        = "test.csv"
	csvScreenshotFile     = "csv_import.png"
	miniAppScreenshotFile = "verification.png"
)

// CSVFixture is the file uploaded by the CSV import flow.
var CSVFixture = fixture.CSV{
	Header: []string{"Title", "Price", "Year"},
	Rows:   [][]string{{"Test CSV Car", "15000", "2019"}},
}

// AdminUser is returned for the session check so the admin area renders
// without a login.
var AdminUser = User{ID: "user1", Email: "admin@test.com", Role: "ADMIN", Name: "Admin"}

// SavedItem is the response to the import's save request.
var SavedItem = CreatedItem{ID: "csv_1", Title: "CSV Car", Status: "AVAILABLE"}

// StorefrontItem is the single car the mini-app lists.
var StorefrontItem = InventoryItem{
	CanonicalID: "1",
	Title:       "Mock Car BMW",
	Price:       Price{Amount: 50000, Currency: "USD"},
	Year:        2023,
	Mileage:     1000,
	Status:      "AVAILABLE",
	Thumbnail:   "https://via.placeholder.com/300",
}

// StorefrontBot configures the mini-app's branding.
var StorefrontBot = Bot{
	ID:     "bot1",
	Active: true,
	Name:   "Test Bot",
	MiniAppConfig: MiniAppConfig{
		Title:        "Test Car Store",
		WelcomeText:  "Welcome!",
		PrimaryColor: "#D4AF37",
		Layout:       "GRID",
		Actions:      []string{},
	},
}

// CSVImport opens the inventory admin page, uploads a one-row CSV through
// the import dialog and confirms the import.
func CSVImport(cfg *config.Config) harness.Scenario {
	store := artifacts.Store{Dir: cfg.OutputDir}
	csvPath := store.Path(csvFixtureFile)
	screenshot := store.Path(csvScreenshotFile)
	return harness.Scenario{
		Name:        CSVImportName,
		Description: "admin inventory CSV import",
		Route:       "/#/inventory",
		Mocks: []routemock.Mock{
			// The save is registered ahead of the list pattern, which also
			// matches the bare collection URL.
			routemock.MustJSON(InventorySavePattern, http.StatusOK, SavedItem).WithMethod(http.MethodPost),
			routemock.MustJSON(InventoryListPattern, http.StatusOK, NewInventoryPage()),
			routemock.MustJSON(AuthMePattern, http.StatusOK, AdminUser),
		},
		Fixtures: []harness.Fixture{{Path: csvPath, CSV: CSVFixture}},
		Steps: []harness.Step{
			harness.Click(harness.Role("button", "Import URL")),
			harness.Upload(harness.CSS("#csv-upload"), csvPath),
			harness.ExpectVisible(harness.Role("button", "Import CSV")),
			harness.Click(harness.Role("button", "Import CSV")),
		},
		Screenshot:     screenshot,
		SuccessMessage: "CSV Import Verified",
	}
}

// MiniApp opens the public storefront and checks the branding and the
// listed car render from the mocked API.
func MiniApp(cfg *config.Config) harness.Scenario {
	screenshot := artifacts.Store{Dir: cfg.OutputDir}.Path(miniAppScreenshotFile)
	return harness.Scenario{
		Name:        MiniAppName,
		Description: "public mini-app storefront",
		Route:       "/p/app",
		Mocks: []routemock.Mock{
			routemock.MustJSON(InventoryListPattern, http.StatusOK, NewInventoryPage(StorefrontItem)),
			routemock.MustJSON(PublicBotsPattern, http.StatusOK, []Bot{StorefrontBot}),
		},
		Steps: []harness.Step{
			harness.ExpectVisible(harness.Text(StorefrontBot.MiniAppConfig.Title)),
			harness.ExpectVisible(harness.Text(StorefrontItem.Title)),
			harness.ExpectVisible(harness.Text(FormatPrice(StorefrontItem.Price))),
		},
		Screenshot:     screenshot,
		SuccessMessage: "Screenshot saved to " + filepath.ToSlash(screenshot),
	}
}

// FormatPrice renders a price the way the storefront does: the amount with
// en-US digit grouping followed by " $".
func FormatPrice(p Price) string {
	digits := fmt.Sprintf("%d", p.Amount)
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if neg {
		out = "-" + out
	}
	return out + " $"
}

var registry = map[string]func(*config.Config) harness.Scenario{
	CSVImportName: CSVImport,
	MiniAppName:   MiniApp,
}

// Names lists the known scenarios in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every scenario, ordered by name.
func All(cfg *config.Config) []harness.Scenario {
	out := make([]harness.Scenario, 0, len(registry))
	for _, name := range Names() {
		out = append(out, registry[name](cfg))
	}
	return out
}

// ByName returns the named scenario.
func ByName(cfg *config.Config, name string) (harness.Scenario, error) {
	build, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return harness.Scenario{}, fmt.Errorf("unknown scenario %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return build(cfg), nil
}

// Select resolves names to scenarios, returning all of them when names is
// empty. Duplicates are dropped.
func Select(cfg *config.Config, names []string) ([]harness.Scenario, error) {
	if len(names) == 0 {
		return All(cfg), nil
	}
	seen := make(map[string]bool, len(names))
	out := make([]harness.Scenario, 0, len(names))
	for _, name := range names {
		sc, err := ByName(cfg, name)
		if err != nil {
			return nil, err
		}
		if seen[sc.Name] {
			continue
		}
		seen[sc.Name] = true
		out = append(out, sc)
	}
	return out, nil
}
