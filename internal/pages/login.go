package pages

import (
	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/internet-e2e/internal/config"
)

// LoginPage drives the /login form.
type LoginPage struct {
	*Context

	env             *config.Env
	defaultUsername string
	defaultPassword string
}

// NewLoginPage binds the login page to ctx. Default credentials come from
// USERNAME/PASSWORD in env, falling back to the demo account.
func NewLoginPage(ctx *Context, env *config.Env) *LoginPage {
	if env == nil {
		env = config.NewEnv(nil)
	}
	return &LoginPage{
		Context:         ctx,
		env:             env,
		defaultUsername: env.Get("USERNAME", config.DefaultUsername),
		defaultPassword: env.Get("PASSWORD", config.DefaultPassword),
	}
}

// Form fields of the login page.
func (p *LoginPage) UsernameInput() playwright.Locator { return p.Locator("#username") }
func (p *LoginPage) PasswordInput() playwright.Locator { return p.Locator("#password") }
func (p *LoginPage) LoginButton() playwright.Locator {
	return p.GetByRole(*playwright.AriaRoleButton, "Login")
}

// Flash messages shown after a submit.
func (p *LoginPage) ErrorMessage() playwright.Locator { return p.Locator("#flash.error") }
func (p *LoginPage) SuccessMessage() playwright.Locator { return p.Locator("#flash.success") }

// DefaultCredentials returns the username and password Login falls back to.
func (p *LoginPage) DefaultCredentials() (string, string) {
	return p.defaultUsername, p.defaultPassword
}

// NavigateToLogin opens /login and waits for the page to settle.
func (p *LoginPage) NavigateToLogin() error {
	if err := p.Goto("/login"); err != nil {
		return err
	}
	return p.WaitForPageLoad()
}

// FillLoginForm types the credentials without submitting.
func (p *LoginPage) FillLoginForm(username, password string) error {
	if err := p.UsernameInput().Fill(username); err != nil {
		return err
	}
	return p.PasswordInput().Fill(password)
}

// FillLoginFormWithEnvCredentials fills USERNAME and PASSWORD, which must be set.
func (p *LoginPage) FillLoginFormWithEnvCredentials() error {
	username, err := p.env.GetRequired("USERNAME")
	if err != nil {
		return err
	}
	password, err := p.env.GetRequired("PASSWORD")
	if err != nil {
		return err
	}
	return p.FillLoginForm(username, password)
}

// SubmitLogin clicks Login and waits for the resulting page.
func (p *LoginPage) SubmitLogin() error {
	if err := p.LoginButton().Click(); err != nil {
		return err
	}
	return p.WaitForPageLoad()
}

// Login fills and submits the form.
func (p *LoginPage) Login(username, password string) error {
	if err := p.FillLoginForm(username, password); err != nil {
		return err
	}
	return p.SubmitLogin()
}

// LoginWithDefaults logs in with DefaultCredentials.
func (p *LoginPage) LoginWithDefaults() error {
	return p.Login(p.defaultUsername, p.defaultPassword)
}

// LoginWithEnvCredentials logs in with the required USERNAME and PASSWORD.
func (p *LoginPage) LoginWithEnvCredentials() error {
	if err := p.FillLoginFormWithEnvCredentials(); err != nil {
		return err
	}
	return p.SubmitLogin()
}

// Text and visibility of the login flash messages.
func (p *LoginPage) ErrorMessageText() (string, error) { return p.TextOf(p.ErrorMessage()) }
func (p *LoginPage) SuccessMessageText() (string, error) { return p.TextOf(p.SuccessMessage()) }
func (p *LoginPage) HasErrorMessage() (bool, error) { return p.IsVisible(p.ErrorMessage()) }
func (p *LoginPage) HasSuccessMessage() (bool, error) { return p.IsVisible(p.SuccessMessage()) }
