package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/gamemod/support-desk/internal/core/domain"
	apperrors "github.com/gamemod/support-desk/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveStaffSettings(t *testing.T) {
	custom := domain.ThemeSettings{Primary: "#000000"}

	settings := domain.ResolveStaffSettings(&custom, nil, time.Time{})
	assert.Equal(t, custom, settings.Theme)
	assert.Equal(t, domain.DefaultSite(), settings.Site)

	settings = domain.ResolveStaffSettings(nil, nil, time.Time{})
	assert.Equal(t, domain.DefaultTheme(), settings.Theme)
}

func TestStaffSettings_MergeReplacesWholesale(t *testing.T) {
	settings := domain.DefaultStaffSettings(time.Now())
	site := settings.Site

	theme := domain.ThemeSettings{Primary: "#ffffff"}
	settings.Merge(&theme, nil, time.Now())

	assert.Equal(t, "#ffffff", settings.Theme.Primary)
	assert.Empty(t, settings.Theme.Surface)
	assert.Equal(t, site, settings.Site)
}

func TestDefaultStaffSettings_ReturnsFreshCopies(t *testing.T) {
	a := domain.DefaultStaffSettings(time.Now())
	a.Site.GuildName = "changed"

	b := domain.DefaultStaffSettings(time.Now())
	assert.Equal(t, "NovaWatch", b.Site.GuildName)
}

func TestNewTopic(t *testing.T) {
	topic, err := domain.NewTopic("  Billing  ", nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Billing", topic.Name)
	assert.Equal(t, "billing", domain.NameKey(topic.Name))
	assert.Equal(t, &domain.TopicRef{ID: topic.ID, Name: "Billing"}, topic.Ref())

	_, err = domain.NewTopic("   ", nil, time.Now())
	assert.ErrorIs(t, err, apperrors.ErrTopicNameRequired)

	long := strings.Repeat("x", domain.MaxTopicDescriptionLength+1)
	_, err = domain.NewTopic("Bugs", &long, time.Now())
	assert.ErrorIs(t, err, apperrors.ErrDescriptionTooLong)

	assert.Equal(t, domain.UntitledTopicName, domain.DisplayName(""))
}
