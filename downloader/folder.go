package downloader

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"moodle-scraper/scraper"
)

// pluginFileMarker identifies the platform's file-serving route.
const pluginFileMarker = "pluginfile.php"

// ResolveFolder downloads every file linked from a folder listing page into
// targetDir. It succeeds when at least one file was stored. Entries are
// always fetched as files, so a folder is never expanded more than once.
func (f *Fetcher) ResolveFolder(ctx context.Context, folderURL, targetDir string) bool {
	entries, err := f.folderEntries(ctx, folderURL)
	if err != nil {
		f.logger.Error().Err(err).Str("url", folderURL).Msgf("Failed to process folder %s", folderURL)
		return false
	}

	success := false
	for _, entry := range entries {
		target := path.Join(targetDir, entry.name)
		ok := f.fetchFile(ctx, entry.url, target)
		f.metrics.observeFolderEntry(ok)
		if ok {
			success = true
		}
	}

	if len(entries) == 0 {
		f.logger.Warn().Str("url", folderURL).Msg("Folder has no files")
	}
	return success
}

type folderEntry struct {
	name string
	url  string
}

func (f *Fetcher) folderEntries(ctx context.Context, folderURL string) ([]folderEntry, error) {
	resp, err := f.session.Get(ctx, folderURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var entries []folderEntry
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.Contains(href, pluginFileMarker) {
			return
		}
		entries = append(entries, folderEntry{
			name: entryName(s.Text(), href),
			url:  href,
		})
	})
	return entries, nil
}

// entryName derives a file name from the link text, falling back to the
// last segment of the link path.
func entryName(text, href string) string {
	if name := scraper.Sanitize(strings.TrimSpace(text)); name != "" {
		return name
	}
	if u, err := url.Parse(href); err == nil {
		if name := scraper.Sanitize(path.Base(u.Path)); name != "" {
			return name
		}
	}
	return "file"
}
