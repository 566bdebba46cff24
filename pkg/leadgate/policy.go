package leadgate

// AccessPolicy is the derived, never-persisted visibility decision for one
// render of a talk page. The four public capabilities always move in
// lockstep, so a single unlocked flag is stored and the named capabilities
// are read-only views of it.
type AccessPolicy struct {
	IsOwner         bool `json:"isOwner"`
	ContentUnlocked bool `json:"contentUnlocked"`
}

// UnlockedGpts reports whether all GPT links are visible.
func (p AccessPolicy) UnlockedGpts() bool { return p.ContentUnlocked }

// UnlockedResources reports whether all downloadable resources are visible.
func (p AccessPolicy) UnlockedResources() bool { return p.ContentUnlocked }

// DownloadsAllowed reports whether file downloads are permitted.
func (p AccessPolicy) DownloadsAllowed() bool { return p.ContentUnlocked }

// FullBioVisible reports whether the speaker's full bio is shown.
func (p AccessPolicy) FullBioVisible() bool { return p.ContentUnlocked }

// Evaluate computes the access policy for a talk. Owners always preview the
// fully unlocked page; everyone else is unlocked iff a valid, unexpired
// capture marker exists for the talk.
func (l *Ledger) Evaluate(talkSlug string, isOwner bool) AccessPolicy {
	if isOwner {
		return AccessPolicy{IsOwner: true, ContentUnlocked: true}
	}
	return AccessPolicy{ContentUnlocked: l.HasCaptured(talkSlug)}
}

// TeaserCount is how many items a locked category still shows.
const TeaserCount = 1

// GatedList is a category of resources after gating: the visible items plus
// how many remain locked behind the capture prompt.
type GatedList[T any] struct {
	Items       []T  `json:"items"`
	LockedCount int  `json:"lockedCount"`
	Unlocked    bool `json:"unlocked"`
}

// Gate applies the teaser rule to a resource list: unlocked policies pass the
// list through; locked ones keep the first TeaserCount items and count the
// rest.
func Gate[T any](items []T, unlocked bool) GatedList[T] {
	if unlocked {
		return GatedList[T]{Items: items, Unlocked: true}
	}

	visible := items
	if len(items) > TeaserCount {
		visible = items[:TeaserCount]
	}
	return GatedList[T]{
		Items:       visible,
		LockedCount: len(items) - len(visible),
	}
}
