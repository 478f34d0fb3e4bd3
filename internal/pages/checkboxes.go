package pages

import (
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/internet-e2e/internal/errs"
)

// CheckboxesPath is the route of the checkboxes example.
const CheckboxesPath = "/checkboxes"

// CheckboxesPage toggles the two checkboxes of the example form.
type CheckboxesPage struct {
	*Context
}

// NewCheckboxesPage binds the page object to ctx.
func NewCheckboxesPage(ctx *Context) *CheckboxesPage {
	return &CheckboxesPage{Context: ctx}
}

// Checkboxes matches every checkbox of the form.
func (p *CheckboxesPage) Checkboxes() playwright.Locator {
	return p.GetByRole(*playwright.AriaRoleCheckbox, "")
}

// Checkbox is the index-th checkbox, counting from 0.
func (p *CheckboxesPage) Checkbox(index int) playwright.Locator { return p.Checkboxes().Nth(index) }

// PageTitle is the example's h3 heading.
func (p *CheckboxesPage) PageTitle() playwright.Locator { return p.Locator("h3") }

// NavigateToPage opens the example and waits for the load to settle.
func (p *CheckboxesPage) NavigateToPage() error {
	if err := p.Goto(CheckboxesPath); err != nil {
		return err
	}
	return p.WaitForPageLoad()
}

// Count returns the number of checkboxes.
func (p *CheckboxesPage) Count() (int, error) {
	return p.Checkboxes().Count()
}

// Toggle clicks the index-th checkbox.
func (p *CheckboxesPage) Toggle(index int) error {
	count, err := p.Count()
	if err != nil {
		return fmt.Errorf("count checkboxes: %w", err)
	}
	if index < 0 || index >= count {
		return errs.New(errs.IndexOutOfRange,
			fmt.Sprintf("checkbox at index %d not found, total checkboxes: %d", index, count))
	}
	return p.Checkbox(index).Click()
}

// IsChecked reports whether the index-th checkbox is checked.
func (p *CheckboxesPage) IsChecked(index int) (bool, error) {
	return p.Checkbox(index).IsChecked()
}
