package browser

import (
	"fmt"
	"strings"

	domain "enrollment_notifier/internal/domain/browser"
)

// PortalLocators are the elements the login and organisation-scope flow touches.
type PortalLocators struct {
	SignIn        domain.Locator
	Email         domain.Locator
	Password      domain.Locator
	Submit        domain.Locator
	ProfileMarker domain.Locator // visible only when signed in as the configured profile
	ClassesNav    domain.Locator
	OrgDropdown   domain.Locator
	OrgSelected   domain.Locator
	OrgSearch     domain.Locator
	OrgOption     domain.Locator
}

// NewPortalLocators builds the locator set for a profile and organisation name.
func NewPortalLocators(profileName, organization string) PortalLocators {
	profile := xpathLiteral(profileName)
	org := xpathLiteral(organization)
	return PortalLocators{
		SignIn:        domain.XPath("(//button[text()= 'Sign In | Sign Up'])[1]"),
		Email:         domain.CSS("#Email"),
		Password:      domain.CSS("#Password"),
		Submit:        domain.CSS("#btnSignIn"),
		ProfileMarker: domain.XPath(fmt.Sprintf("//span[@title=%s and contains(@class,'Header_userName')]", profile)),
		ClassesNav:    domain.CSS("#Classes"),
		OrgDropdown:   domain.CSS("button[title='Training Center/Site Classes']"),
		OrgSelected:   domain.XPath(fmt.Sprintf("//div[text()=%s]", org)),
		OrgSearch:     domain.CSS("input[aria-label=Organization]"),
		OrgOption:     domain.XPath(fmt.Sprintf("//div[@title=%s]", org)),
	}
}

// xpathLiteral quotes s for use inside an XPath expression, including values
// that contain both quote characters.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = "'" + p + "'"
	}
	return "concat(" + strings.Join(quoted, `, "'", `) + ")"
}
