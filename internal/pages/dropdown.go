package pages

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// DropdownPath is the route of the dropdown example.
const DropdownPath = "/dropdown"

// DropdownPage selects options of #dropdown.
type DropdownPage struct {
	*Context
}

// NewDropdownPage binds the page object to ctx.
func NewDropdownPage(ctx *Context) *DropdownPage {
	return &DropdownPage{Context: ctx}
}

// Dropdown is the #dropdown select element.
func (p *DropdownPage) Dropdown() playwright.Locator { return p.Locator("#dropdown") }

// NavigateToPage opens the example and waits for the load to settle.
func (p *DropdownPage) NavigateToPage() error {
	if err := p.Goto(DropdownPath); err != nil {
		return err
	}
	return p.WaitForPageLoad()
}

// SelectByValue selects the option whose value attribute equals value.
func (p *DropdownPage) SelectByValue(value string) error {
	selected, err := p.Dropdown().SelectOption(playwright.SelectOptionValues{
		Values: playwright.StringSlice(value),
	})
	if err != nil {
		return fmt.Errorf("select option %q: %w", value, err)
	}
	if len(selected) == 0 {
		return fmt.Errorf("select option %q: no option matched", value)
	}
	return nil
}

// SelectedValue returns the value of the currently selected option.
func (p *DropdownPage) SelectedValue() (string, error) {
	return p.Dropdown().InputValue()
}
