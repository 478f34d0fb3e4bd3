package pages

import (
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/internet-e2e/internal/errs"
)

// AddRemoveElementsPath is the route of the add/remove elements example.
const AddRemoveElementsPath = "/add_remove_elements/"

// AddRemoveElementsPage adds and deletes "Delete" buttons.
type AddRemoveElementsPage struct {
	*Context
}

// NewAddRemoveElementsPage binds the page object to ctx.
func NewAddRemoveElementsPage(ctx *Context) *AddRemoveElementsPage {
	return &AddRemoveElementsPage{Context: ctx}
}

// AddElementButton is the "Add Element" button.
func (p *AddRemoveElementsPage) AddElementButton() playwright.Locator {
	return p.GetByRole(*playwright.AriaRoleButton, "Add Element")
}

// DeleteButtons matches every "Delete" button currently on the page.
func (p *AddRemoveElementsPage) DeleteButtons() playwright.Locator {
	return p.GetByRole(*playwright.AriaRoleButton, "Delete")
}

// PageTitle is the example's h3 heading.
func (p *AddRemoveElementsPage) PageTitle() playwright.Locator { return p.Locator("h3") }

// NavigateToPage opens the example and waits for the load to settle.
func (p *AddRemoveElementsPage) NavigateToPage() error {
	if err := p.Goto(AddRemoveElementsPath); err != nil {
		return err
	}
	return p.WaitForPageLoad()
}

// AddElement clicks Add Element once.
func (p *AddRemoveElementsPage) AddElement() error {
	return p.AddElementButton().Click()
}

// AddMultipleElements clicks Add Element count times.
func (p *AddRemoveElementsPage) AddMultipleElements(count int) error {
	for i := 0; i < count; i++ {
		if err := p.AddElement(); err != nil {
			return fmt.Errorf("add element %d of %d: %w", i+1, count, err)
		}
	}
	return nil
}

// RemoveElement clicks the index-th Delete button. The count is sampled once
// before the click.
func (p *AddRemoveElementsPage) RemoveElement(index int) error {
	buttons := p.DeleteButtons()
	count, err := buttons.Count()
	if err != nil {
		return fmt.Errorf("count delete buttons: %w", err)
	}
	if index < 0 || index >= count {
		return errs.New(errs.IndexOutOfRange,
			fmt.Sprintf("delete button at index %d not found, total buttons: %d", index, count))
	}
	return buttons.Nth(index).Click()
}

// RemoveAllElements deletes every button, highest index first, so earlier
// indices stay valid while the list shrinks.
func (p *AddRemoveElementsPage) RemoveAllElements() error {
	buttons := p.DeleteButtons()
	count, err := buttons.Count()
	if err != nil {
		return fmt.Errorf("count delete buttons: %w", err)
	}
	for i := count - 1; i >= 0; i-- {
		if err := buttons.Nth(i).Click(); err != nil {
			return fmt.Errorf("remove element %d: %w", i, err)
		}
	}
	return nil
}

// DeleteButtonCount returns how many Delete buttons are present.
func (p *AddRemoveElementsPage) DeleteButtonCount() (int, error) {
	return p.DeleteButtons().Count()
}

// HasDeleteButton reports whether a Delete button exists at index.
func (p *AddRemoveElementsPage) HasDeleteButton(index int) (bool, error) {
	count, err := p.DeleteButtonCount()
	if err != nil {
		return false, err
	}
	return index >= 0 && index < count, nil
}

// PageTitleText returns the heading text.
func (p *AddRemoveElementsPage) PageTitleText() (string, error) {
	return p.TextOf(p.PageTitle())
}

// IsPageLoaded reports whether the add button and heading became visible.
func (p *AddRemoveElementsPage) IsPageLoaded() bool {
	if err := p.WaitForElement(p.AddElementButton(), 0); err != nil {
		return false
	}
	return p.WaitForElement(p.PageTitle(), 0) == nil
}
