package beacon

import "net/url"

// UTM convention applied to every outbound resource link. The format is
// fixed, not per-deployment configuration.
const (
	utmSource = "micdrop"
	utmMedium = "speaker_page"
)

// DecorateURL appends the MicDrop UTM parameters to an outbound link:
// utm_campaign is the talk slug, utm_content the link name (falling back to
// the link type), utm_term the link type. An unparseable URL is returned
// unchanged.
func DecorateURL(rawURL, talkSlug, linkType, linkName string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" {
		return rawURL
	}

	content := linkName
	if content == "" {
		content = linkType
	}

	query := parsed.Query()
	query.Set("utm_source", utmSource)
	query.Set("utm_medium", utmMedium)
	query.Set("utm_campaign", talkSlug)
	query.Set("utm_content", content)
	query.Set("utm_term", linkType)
	parsed.RawQuery = query.Encode()

	return parsed.String()
}
