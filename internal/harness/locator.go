package harness

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

type locatorKind int

const (
	byRole locatorKind = iota
	byText
	byCSS
)

// Locator identifies one element on the page. Role and text lookups follow
// the accessibility tree, so they survive markup changes in the app.
type Locator struct {
	kind     locatorKind
	role     string
	name     string
	text     string
	selector string
}

// Role locates an element by ARIA role and accessible name.
func Role(role, name string) Locator {
	return Locator{kind: byRole, role: role, name: name}
}

// Text locates an element by its visible text.
func Text(text string) Locator {
	return Locator{kind: byText, text: text}
}

// CSS locates an element by selector.
func CSS(selector string) Locator {
	return Locator{kind: byCSS, selector: selector}
}

func (l Locator) String() string {
	switch l.kind {
	case byRole:
		if l.name == "" {
			return l.role
		}
		return fmt.Sprintf("%s %q", l.role, l.name)
	case byText:
		return fmt.Sprintf("text %q", l.text)
	default:
		return l.selector
	}
}

func (l Locator) validate() error {
	switch l.kind {
	case byRole:
		if l.role == "" {
			return fmt.Errorf("role locator has no role")
		}
	case byText:
		if l.text == "" {
			return fmt.Errorf("text locator has no text")
		}
	case byCSS:
		if l.selector == "" {
			return fmt.Errorf("css locator has no selector")
		}
	default:
		return fmt.Errorf("unknown locator kind %d", l.kind)
	}
	return nil
}

func (l Locator) resolve(page playwright.Page) playwright.Locator {
	switch l.kind {
	case byRole:
		opts := playwright.PageGetByRoleOptions{}
		if l.name != "" {
			opts.Name = l.name
		}
		return page.GetByRole(playwright.AriaRole(l.role), opts)
	case byText:
		return page.GetByText(l.text)
	default:
		return page.Locator(l.selector)
	}
}
