package browser

import (
	"errors"
	"testing"

	domain "enrollment_notifier/internal/domain/browser"
	"enrollment_notifier/internal/infra/logger"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPortalLocators(t *testing.T) {
	l := NewPortalLocators("Jane Doe", "Code Blue CPR Services")

	assert.Equal(t, domain.ByXPath, l.ProfileMarker.Kind)
	assert.Equal(t, "//span[@title='Jane Doe' and contains(@class,'Header_userName')]", l.ProfileMarker.Value)
	assert.Equal(t, "//div[text()='Code Blue CPR Services']", l.OrgSelected.Value)
	assert.Equal(t, "//div[@title='Code Blue CPR Services']", l.OrgOption.Value)
	assert.Equal(t, domain.CSS("#btnSignIn"), l.Submit)
}

func TestXPathLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "'plain'"},
		{in: "O'Brien CPR", want: `"O'Brien CPR"`},
		{in: `a'b"c`, want: `concat('a', "'", 'b"c')`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, xpathLiteral(tt.in))
		})
	}
}

func TestRodOpener_RetriesLaunch(t *testing.T) {
	o := NewRodOpener(Options{Headless: true}, logger.Discard())
	o.delay = 0

	calls := 0
	o.launch = func(*launcher.Launcher) (string, error) {
		calls++
		return "", errors.New("no browser")
	}

	d, err := o.Open(testContext(t))
	require.Error(t, err)
	assert.Nil(t, d)
	assert.Equal(t, launchAttempts, calls)
}
