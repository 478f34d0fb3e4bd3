package pages

import (
	"github.com/playwright-community/playwright-go"
)

// DashboardPage is the secure area shown after a successful login.
type DashboardPage struct {
	*Context
}

// NewDashboardPage binds the page object to ctx.
func NewDashboardPage(ctx *Context) *DashboardPage {
	return &DashboardPage{Context: ctx}
}

// LogoutButton is the "Logout" link of the secure area.
func (p *DashboardPage) LogoutButton() playwright.Locator {
	return p.GetByRole(*playwright.AriaRoleLink, "Logout")
}

// WelcomeMessage is the subheader greeting.
func (p *DashboardPage) WelcomeMessage() playwright.Locator { return p.Locator(".subheader") }

// Example links.
func (p *DashboardPage) AddRemoveElementsLink() playwright.Locator {
	return p.GetByRole(*playwright.AriaRoleLink, "Add/Remove Elements")
}
func (p *DashboardPage) CheckboxesLink() playwright.Locator {
	return p.GetByRole(*playwright.AriaRoleLink, "Checkboxes")
}
func (p *DashboardPage) DropdownLink() playwright.Locator {
	return p.GetByRole(*playwright.AriaRoleLink, "Dropdown")
}

// FlashMessage is the notice shown after login or a failed action.
func (p *DashboardPage) FlashMessage() playwright.Locator { return p.Locator("#flash") }

// IsLoggedIn reports whether the logout control is visible.
func (p *DashboardPage) IsLoggedIn() (bool, error) {
	return p.IsVisible(p.LogoutButton())
}

// Logout clicks the logout control and waits for the login page.
func (p *DashboardPage) Logout() error {
	return p.clickAndWait(p.LogoutButton())
}

// Text and visibility of the secure area's messages.
func (p *DashboardPage) WelcomeMessageText() (string, error) { return p.TextOf(p.WelcomeMessage()) }
func (p *DashboardPage) FlashMessageText() (string, error) { return p.TextOf(p.FlashMessage()) }
func (p *DashboardPage) HasFlashMessage() (bool, error) { return p.IsVisible(p.FlashMessage()) }

// NavigateToAddRemoveElements follows the example link and waits for the load.
func (p *DashboardPage) NavigateToAddRemoveElements() error {
	return p.clickAndWait(p.AddRemoveElementsLink())
}

// NavigateToCheckboxes follows the Checkboxes link.
func (p *DashboardPage) NavigateToCheckboxes() error {
	return p.clickAndWait(p.CheckboxesLink())
}

// NavigateToDropdown follows the Dropdown link.
func (p *DashboardPage) NavigateToDropdown() error {
	return p.clickAndWait(p.DropdownLink())
}

func (p *DashboardPage) clickAndWait(locator playwright.Locator) error {
	if err := locator.Click(); err != nil {
		return err
	}
	return p.WaitForPageLoad()
}
