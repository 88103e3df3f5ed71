package scenarios

// Wire shapes of the storefront API. Field names follow the JSON the web
// app reads, not Go conventions.

type Price struct {
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
}

type InventoryItem struct {
	CanonicalID string `json:"canonicalId"`
	Title       string `json:"title"`
	Price       Price  `json:"price"`
	Year        int    `json:"year"`
	Mileage     int    `json:"mileage"`
	Status      string `json:"status"`
	Thumbnail   string `json:"thumbnail"`
}

// InventoryPage is one page of GET /api/inventory.
type InventoryPage struct {
	Items      []InventoryItem `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
}

// CreatedItem is the response to POST /api/inventory.
type CreatedItem struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Name  string `json:"name"`
}

type MiniAppConfig struct {
	Title        string   `json:"title"`
	WelcomeText  string   `json:"welcomeText"`
	PrimaryColor string   `json:"primaryColor"`
	Layout       string   `json:"layout"`
	Actions      []string `json:"actions"`
}

// Bot is one entry of GET /api/public/bots.
type Bot struct {
	ID            string        `json:"id"`
	Active        bool          `json:"active"`
	Name          string        `json:"name"`
	MiniAppConfig MiniAppConfig `json:"miniAppConfig"`
}

// NewInventoryPage builds a single page holding items. A nil slice is sent
// as an empty array so the app never sees "items": null.
func NewInventoryPage(items ...InventoryItem) InventoryPage {
	if items == nil {
		items = []InventoryItem{}
	}
	totalPages := 0
	if len(items) > 0 {
		totalPages = 1
	}
	return InventoryPage{Items: items, Total: len(items), Page: 1, TotalPages: totalPages}
}
