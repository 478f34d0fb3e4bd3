package pages

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/internet-e2e/internal/config"
)

const testBaseURL = "http://demo.test:3000"

// fakeSite is an in-memory model of the demo site that the fake page and
// locators act on. It only knows the elements the page objects touch.
type fakeSite struct {
	view      string
	loggedIn  bool
	flashKind string
	flashText string
	fills     map[string]string
	history   []string

	deleteCount  int
	removedOrder []int
	checkboxes   []bool
	dropdown     string

	gotoErr     error
	gotoURLs    []string
	loadWaits   int
	screenshots []string
	// waitTimeouts records the Timeout option of every locator wait.
	waitTimeouts []float64
}

func newFakeSite() *fakeSite {
	return &fakeSite{fills: map[string]string{}}
}

func (s *fakeSite) navigate(url string) {
	path := strings.TrimPrefix(url, testBaseURL)
	s.fills = map[string]string{}
	s.flashKind, s.flashText = "", ""
	switch path {
	case "/login":
		s.view = "login"
	case "/secure":
		if s.loggedIn {
			s.view = "secure"
		} else {
			s.view = "login"
			s.setFlash("error", "You must login to view the secure area!")
		}
	case AddRemoveElementsPath:
		s.view = "addremove"
		s.deleteCount = 0
	case CheckboxesPath:
		s.view = "checkboxes"
		s.checkboxes = []bool{false, true}
	case DropdownPath:
		s.view = "dropdown"
		s.dropdown = ""
	default:
		s.view = "home"
	}
	s.history = append(s.history, path)
}

func (s *fakeSite) setFlash(kind, text string) {
	s.flashKind = kind
	s.flashText = text + "\n×"
}

func (s *fakeSite) visible(key string) bool {
	switch key {
	case "#username", "#password", "button:Login":
		return s.view == "login"
	case "#flash":
		return s.flashText != ""
	case "#flash.error":
		return s.flashKind == "error"
	case "#flash.success":
		return s.flashKind == "success"
	case "link:Logout", ".subheader", "link:Add/Remove Elements", "link:Checkboxes", "link:Dropdown":
		return s.view == "secure"
	case "h3":
		return s.view == "addremove" || s.view == "checkboxes" || s.view == "dropdown"
	case "button:Add Element":
		return s.view == "addremove"
	case "button:Delete":
		return s.view == "addremove" && s.deleteCount > 0
	case "checkbox:":
		return s.view == "checkboxes"
	case "#dropdown":
		return s.view == "dropdown"
	}
	return false
}

func (s *fakeSite) count(key string) int {
	switch key {
	case "button:Delete":
		if s.view != "addremove" {
			return 0
		}
		return s.deleteCount
	case "checkbox:":
		if s.view != "checkboxes" {
			return 0
		}
		return len(s.checkboxes)
	}
	if s.visible(key) {
		return 1
	}
	return 0
}

func (s *fakeSite) text(key string) string {
	switch key {
	case "#flash", "#flash.error", "#flash.success":
		return s.flashText
	case ".subheader":
		return "Welcome to the Secure Area. When you are done click logout below."
	case "h3":
		switch s.view {
		case "addremove":
			return "Add/Remove Elements"
		case "checkboxes":
			return "Checkboxes"
		case "dropdown":
			return "Dropdown List"
		}
	}
	return ""
}

func notFound(key string) error {
	return fmt.Errorf("%w: waiting for locator %q", playwright.ErrTimeout, key)
}

func (s *fakeSite) click(key string, index int) error {
	n := s.count(key)
	if index < 0 {
		if n > 1 {
			return fmt.Errorf("strict mode violation: %q resolved to %d elements", key, n)
		}
		index = 0
	}
	if index >= n {
		return notFound(key)
	}

	switch key {
	case "button:Login":
		user, pass := s.fills["#username"], s.fills["#password"]
		switch {
		case user != config.DefaultUsername:
			s.navigate(testBaseURL + "/login")
			s.setFlash("error", "Your username is invalid!")
		case pass != config.DefaultPassword:
			s.navigate(testBaseURL + "/login")
			s.setFlash("error", "Your password is invalid!")
		default:
			s.loggedIn = true
			s.navigate(testBaseURL + "/secure")
			s.setFlash("success", "You logged into a secure area!")
		}
	case "link:Logout":
		s.loggedIn = false
		s.navigate(testBaseURL + "/login")
		s.setFlash("success", "You logged out of the secure area!")
	case "link:Add/Remove Elements":
		s.navigate(testBaseURL + AddRemoveElementsPath)
	case "link:Checkboxes":
		s.navigate(testBaseURL + CheckboxesPath)
	case "link:Dropdown":
		s.navigate(testBaseURL + DropdownPath)
	case "button:Add Element":
		s.deleteCount++
	case "button:Delete":
		s.deleteCount--
		s.removedOrder = append(s.removedOrder, index)
	case "checkbox:":
		s.checkboxes[index] = !s.checkboxes[index]
	default:
		return fmt.Errorf("fake site cannot click %q", key)
	}
	return nil
}

// fakePage implements the subset of playwright.Page the page objects use.
type fakePage struct {
	playwright.Page
	site *fakeSite
}

func newFakePage() (*fakePage, *fakeSite) {
	site := newFakeSite()
	return &fakePage{site: site}, site
}

func (p *fakePage) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.site.gotoURLs = append(p.site.gotoURLs, url)
	if p.site.gotoErr != nil {
		return nil, p.site.gotoErr
	}
	p.site.navigate(url)
	return nil, nil
}

func (p *fakePage) GoBack(options ...playwright.PageGoBackOptions) (playwright.Response, error) {
	h := p.site.history
	if len(h) < 2 {
		return nil, nil
	}
	prev := h[len(h)-2]
	p.site.history = h[:len(h)-2]
	p.site.navigate(testBaseURL + prev)
	return nil, nil
}

func (p *fakePage) URL() string {
	if len(p.site.history) == 0 {
		return "about:blank"
	}
	return testBaseURL + p.site.history[len(p.site.history)-1]
}

func (p *fakePage) WaitForLoadState(options ...playwright.PageWaitForLoadStateOptions) error {
	p.site.loadWaits++
	return nil
}

func (p *fakePage) Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator {
	return &fakeLocator{site: p.site, key: selector, index: -1}
}

func (p *fakePage) GetByRole(role playwright.AriaRole, options ...playwright.PageGetByRoleOptions) playwright.Locator {
	name := ""
	if len(options) > 0 {
		name, _ = options[0].Name.(string)
	}
	return &fakeLocator{site: p.site, key: string(role) + ":" + name, index: -1}
}

func (p *fakePage) GetByText(text interface{}, options ...playwright.PageGetByTextOptions) playwright.Locator {
	return &fakeLocator{site: p.site, key: fmt.Sprintf("text:%v", text), index: -1}
}

func (p *fakePage) GetByTestId(testID interface{}) playwright.Locator {
	return &fakeLocator{site: p.site, key: fmt.Sprintf("testid:%v", testID), index: -1}
}

func (p *fakePage) Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error) {
	if len(options) > 0 && options[0].Path != nil {
		p.site.screenshots = append(p.site.screenshots, *options[0].Path)
	}
	return []byte("\x89PNG"), nil
}

// fakeLocator resolves lazily against the fake site on every call.
type fakeLocator struct {
	playwright.Locator
	site  *fakeSite
	key   string
	index int
}

func (l *fakeLocator) Count() (int, error) {
	return l.site.count(l.key), nil
}

func (l *fakeLocator) Nth(index int) playwright.Locator {
	return &fakeLocator{site: l.site, key: l.key, index: index}
}

func (l *fakeLocator) First() playwright.Locator {
	return l.Nth(0)
}

func (l *fakeLocator) Click(options ...playwright.LocatorClickOptions) error {
	return l.site.click(l.key, l.index)
}

func (l *fakeLocator) Fill(value string, options ...playwright.LocatorFillOptions) error {
	if !l.site.visible(l.key) {
		return notFound(l.key)
	}
	l.site.fills[l.key] = value
	return nil
}

func (l *fakeLocator) WaitFor(options ...playwright.LocatorWaitForOptions) error {
	if len(options) > 0 && options[0].Timeout != nil {
		l.site.waitTimeouts = append(l.site.waitTimeouts, *options[0].Timeout)
	}
	if l.site.visible(l.key) {
		return nil
	}
	return notFound(l.key)
}

func (l *fakeLocator) IsVisible(options ...playwright.LocatorIsVisibleOptions) (bool, error) {
	return l.site.visible(l.key), nil
}

func (l *fakeLocator) TextContent(options ...playwright.LocatorTextContentOptions) (string, error) {
	if !l.site.visible(l.key) {
		return "", notFound(l.key)
	}
	return l.site.text(l.key), nil
}

func (l *fakeLocator) IsChecked(options ...playwright.LocatorIsCheckedOptions) (bool, error) {
	if l.key != "checkbox:" || l.index < 0 || l.index >= len(l.site.checkboxes) {
		return false, notFound(l.key)
	}
	return l.site.checkboxes[l.index], nil
}

func (l *fakeLocator) SelectOption(values playwright.SelectOptionValues, options ...playwright.LocatorSelectOptionOptions) ([]string, error) {
	if !l.site.visible(l.key) {
		return nil, notFound(l.key)
	}
	if values.Values == nil {
		return nil, nil
	}
	var selected []string
	for _, v := range *values.Values {
		if v == "1" || v == "2" {
			l.site.dropdown = v
			selected = append(selected, v)
		}
	}
	return selected, nil
}

func (l *fakeLocator) InputValue(options ...playwright.LocatorInputValueOptions) (string, error) {
	if !l.site.visible(l.key) {
		return "", notFound(l.key)
	}
	return l.site.dropdown, nil
}
