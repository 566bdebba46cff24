package leadgate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkerName(t *testing.T) {
	assert.Equal(t, "micdrop_lead_ai-events-2025", MarkerName("ai-events-2025"))
}

func TestTokenIsDeterministicAndShort(t *testing.T) {
	ledger := NewLedger(NewMemoryStore(), "secret-key")

	first := ledger.Token("jane@example.com")
	second := ledger.Token("jane@example.com")

	assert.Equal(t, first, second)
	assert.Len(t, first, 10)
	assert.NotContains(t, first, "@", "token must not leak the address")
}

func TestTokenDependsOnSecret(t *testing.T) {
	a := NewLedger(NewMemoryStore(), "secret-a")
	b := NewLedger(NewMemoryStore(), "secret-b")

	assert.NotEqual(t, a.Token("jane@example.com"), b.Token("jane@example.com"))
}

func TestHasCapturedLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ledger := NewLedger(store, "secret-key")

	assert.False(t, ledger.HasCaptured("my-talk"))

	ledger.RecordCapture("my-talk", "jane@example.com")
	assert.True(t, ledger.HasCaptured("my-talk"))

	// A capture on one talk says nothing about another.
	assert.False(t, ledger.HasCaptured("other-talk"))
}

func TestHasCapturedExpires(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := NewMemoryStore()
	ledger := NewLedger(store, "secret-key", WithTTL(30*24*time.Hour), WithClock(clock))

	ledger.RecordCapture("my-talk", "jane@example.com")
	require.True(t, ledger.HasCaptured("my-talk"))

	now = now.Add(29 * 24 * time.Hour)
	assert.True(t, ledger.HasCaptured("my-talk"))

	now = now.Add(2 * 24 * time.Hour)
	assert.False(t, ledger.HasCaptured("my-talk"))
}

func TestHasCapturedMalformedMarker(t *testing.T) {
	store := NewMemoryStore()
	store.Set(MarkerName("my-talk"), "garbage-without-expiry", time.Time{})

	ledger := NewLedger(store, "secret-key")
	assert.False(t, ledger.HasCaptured("my-talk"))
}

func TestHasCapturedNilSafe(t *testing.T) {
	var ledger *Ledger
	assert.False(t, ledger.HasCaptured("my-talk"))

	ledger = NewLedger(nil, "secret-key")
	assert.False(t, ledger.HasCaptured("my-talk"))
	ledger.RecordCapture("my-talk", "jane@example.com") // must not panic
}

func TestMarkerRoundTrip(t *testing.T) {
	expiresAt := time.Unix(1750000000, 0)
	value := formatMarker("abc123XYZ_", expiresAt)

	token, parsed, err := parseMarker(value)
	require.NoError(t, err)
	assert.Equal(t, "abc123XYZ_", token)
	assert.True(t, parsed.Equal(expiresAt))
}

func TestEvaluateOwnerAlwaysUnlocked(t *testing.T) {
	ledger := NewLedger(NewMemoryStore(), "secret-key")

	policy := ledger.Evaluate("my-talk", true)
	assert.True(t, policy.IsOwner)
	assert.True(t, policy.ContentUnlocked)
	assert.True(t, policy.UnlockedGpts())
	assert.True(t, policy.UnlockedResources())
	assert.True(t, policy.DownloadsAllowed())
	assert.True(t, policy.FullBioVisible())
}

func TestEvaluateVisitorFlagsMoveInLockstep(t *testing.T) {
	store := NewMemoryStore()
	ledger := NewLedger(store, "secret-key")

	locked := ledger.Evaluate("my-talk", false)
	assert.False(t, locked.ContentUnlocked)
	assert.False(t, locked.UnlockedGpts())
	assert.False(t, locked.UnlockedResources())
	assert.False(t, locked.DownloadsAllowed())
	assert.False(t, locked.FullBioVisible())

	ledger.RecordCapture("my-talk", "jane@example.com")

	unlocked := ledger.Evaluate("my-talk", false)
	assert.False(t, unlocked.IsOwner)
	assert.True(t, unlocked.ContentUnlocked)
	assert.True(t, unlocked.UnlockedGpts())
	assert.True(t, unlocked.UnlockedResources())
	assert.True(t, unlocked.DownloadsAllowed())
	assert.True(t, unlocked.FullBioVisible())
}

func TestGateLocked(t *testing.T) {
	items := []string{"first", "second", "third"}

	gated := Gate(items, false)
	assert.False(t, gated.Unlocked)
	assert.Equal(t, []string{"first"}, gated.Items)
	assert.Equal(t, 2, gated.LockedCount)
}

func TestGateUnlocked(t *testing.T) {
	items := []string{"first", "second", "third"}

	gated := Gate(items, true)
	assert.True(t, gated.Unlocked)
	assert.Equal(t, items, gated.Items)
	assert.Zero(t, gated.LockedCount)
}

func TestGateEmptyAndSingle(t *testing.T) {
	empty := Gate([]string{}, false)
	assert.Empty(t, empty.Items)
	assert.Zero(t, empty.LockedCount)

	single := Gate([]string{"only"}, false)
	assert.Equal(t, []string{"only"}, single.Items)
	assert.Zero(t, single.LockedCount, "the teaser item is not counted as locked")
}
