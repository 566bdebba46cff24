package services

import (
	"testing"

	"github.com/speakaboutai/micdrop-go/internal/domain/analytics"
	"github.com/speakaboutai/micdrop-go/internal/domain/user"
	contentRepo "github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureEmailFirstTime(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	page := env.seedPage(t, u.ID)

	result, err := env.captures.CaptureEmail(page.ID, "Visitor@Example.COM", "Vis Itor", user.TierResources)
	require.NoError(t, err)

	assert.True(t, result.IsNew)
	assert.Equal(t, "visitor@example.com", result.Capture.Email, "emails are normalized to lower case")
	assert.Equal(t, page.ID, result.Capture.TalkPageID)

	count, err := env.eventRepo.CountByKind(page.ID, analytics.EventEmailCapture)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "a capture event is recorded alongside the lead")
}

func TestCaptureEmailRepeatIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	page := env.seedPage(t, u.ID)

	first, err := env.captures.CaptureEmail(page.ID, "visitor@example.com", "", user.TierResources)
	require.NoError(t, err)
	require.True(t, first.IsNew)

	second, err := env.captures.CaptureEmail(page.ID, "visitor@example.com", "Vis Itor", user.TierResources)
	require.NoError(t, err)
	assert.False(t, second.IsNew)
	assert.Equal(t, first.Capture.ID, second.Capture.ID)
	assert.Equal(t, "Vis Itor", second.Capture.Name, "a repeat may fill in a missing name")

	captures, err := env.captureRepo.ListByPage(page.ID)
	require.NoError(t, err)
	assert.Len(t, captures, 1, "the email appears in the list exactly once")

	count, err := env.eventRepo.CountByKind(page.ID, analytics.EventEmailCapture)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "repeat submissions do not inflate the capture metric")
}

func TestCaptureEmailSameEmailDifferentPages(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	pageA := env.seedPage(t, u.ID)
	pageB := env.seedPage(t, u.ID)

	resultA, err := env.captures.CaptureEmail(pageA.ID, "visitor@example.com", "", user.TierResources)
	require.NoError(t, err)
	resultB, err := env.captures.CaptureEmail(pageB.ID, "visitor@example.com", "", user.TierResources)
	require.NoError(t, err)

	assert.True(t, resultA.IsNew)
	assert.True(t, resultB.IsNew, "captures are scoped per page")
}

func TestCaptureEmailValidation(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	page := env.seedPage(t, u.ID)

	_, err := env.captures.CaptureEmail(page.ID, "not-an-email", "", user.TierResources)
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = env.captures.CaptureEmail("no-such-page", "visitor@example.com", "", user.TierResources)
	assert.ErrorIs(t, err, contentRepo.ErrTalkPageNotFound)
}

func TestCaptureUnknownTierDefaultsToResources(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t)
	page := env.seedPage(t, u.ID)

	result, err := env.captures.CaptureEmail(page.ID, "visitor@example.com", "", "vip")
	require.NoError(t, err)
	assert.Equal(t, user.TierResources, result.Capture.Tier)
}

func TestListCapturesRequiresOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t)
	page := env.seedPage(t, owner.ID)

	other, _, err := env.auth.Signup("Other Person", "other@example.com", "another-pass")
	require.NoError(t, err)

	_, err = env.captures.CaptureEmail(page.ID, "visitor@example.com", "", user.TierResources)
	require.NoError(t, err)

	captures, err := env.captures.ListCaptures(page.ID, owner.ID)
	require.NoError(t, err)
	assert.Len(t, captures, 1)

	_, err = env.captures.ListCaptures(page.ID, other.ID)
	assert.ErrorIs(t, err, contentRepo.ErrTalkPageNotFound, "someone else's page reads as missing")
}
