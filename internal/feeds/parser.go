package feeds

import (
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// itemKeys returns the links of the feed's items as article keys. Items
// without an absolute http(s) link are skipped.
func itemKeys(feed *gofeed.Feed, opts ImportOptions, now time.Time) []string {
	var cutoff time.Time
	if opts.LookbackDays > 0 {
		cutoff = now.AddDate(0, 0, -opts.LookbackDays)
	}

	var keys []string
	for _, item := range feed.Items {
		if opts.MaxItems > 0 && len(keys) >= opts.MaxItems {
			break
		}

		if !cutoff.IsZero() && item.PublishedParsed != nil && item.PublishedParsed.Before(cutoff) {
			continue
		}

		key, ok := articleKey(item.Link)
		if !ok {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

func articleKey(link string) (string, bool) {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return link, true
}
