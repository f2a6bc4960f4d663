package downloader

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"moodle-scraper/moodle"
	"moodle-scraper/scraper"
	"moodle-scraper/uploader"
)

// Job is one resource to download. Target is the storage key the file is
// written to; for folders only its directory is used.
type Job struct {
	URL    string
	Kind   scraper.Kind
	Target string
}

// Fetcher resolves resources to their final bytes and stores them.
type Fetcher struct {
	session *moodle.Session
	storage uploader.Storage
	metrics *Metrics
	logger  zerolog.Logger
}

func NewFetcher(session *moodle.Session, storage uploader.Storage, metrics *Metrics, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		session: session,
		storage: storage,
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch downloads one job and reports whether it succeeded. Folders are
// expanded into their files next to the target.
func (f *Fetcher) Fetch(ctx context.Context, job Job) bool {
	started := time.Now()

	var ok bool
	switch job.Kind {
	case scraper.KindFolder:
		ok = f.ResolveFolder(ctx, job.URL, path.Dir(job.Target))
	default:
		ok = f.fetchFile(ctx, job.URL, job.Target)
	}

	f.metrics.observeDownload(job.Kind.String(), ok, started)
	return ok
}

func (f *Fetcher) fetchFile(ctx context.Context, fileURL, target string) bool {
	written, err := f.download(ctx, fileURL, target)
	if err != nil {
		f.logger.Error().Err(err).Str("url", fileURL).Msgf("Failed to download %s", fileURL)
		return false
	}
	f.logger.Info().Str("url", fileURL).Msgf("Downloaded: %s", written)
	return true
}

// download fetches fileURL, steps through an HTML landing page when one is
// served instead of the file, and writes the body under target with the
// extension implied by the content type. It returns the key written.
func (f *Fetcher) download(ctx context.Context, fileURL, target string) (string, error) {
	body, contentType, err := f.get(ctx, fileURL)
	if err != nil {
		return "", err
	}

	if strings.Contains(contentType, "text/html") {
		downloadURL, found, err := landingPageLink(body)
		if err != nil {
			return "", errors.Wrapf(err, "parsing landing page %s", fileURL)
		}
		f.metrics.observeLandingPage(found)
		if found {
			resolved, err := f.session.ResolveURL(downloadURL)
			if err != nil {
				return "", err
			}
			body, contentType, err = f.get(ctx, resolved)
			if err != nil {
				return "", err
			}
		} else {
			f.logger.Warn().Str("url", fileURL).Msg("No download link on landing page, saving the page itself")
		}
	}

	if ext := scraper.ExtensionForContentType(contentType); ext != "" {
		target = withExtension(target, ext)
	}

	if err := f.storage.Save(ctx, target, body); err != nil {
		return "", err
	}
	f.metrics.observeBytes(len(body))
	return target, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	resp, err := f.session.Get(ctx, rawURL)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.Wrapf(err, "reading %s", rawURL)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// landingPageLink finds the direct download anchor of an intermediate page.
func landingPageLink(page []byte) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", false, err
	}

	link := doc.Find("a[data-downloadurl]").First()
	if link.Length() == 0 {
		return "", false, nil
	}
	if href := strings.TrimSpace(link.AttrOr("href", "")); href != "" {
		return href, true, nil
	}
	if direct := strings.TrimSpace(link.AttrOr("data-downloadurl", "")); direct != "" {
		return direct, true, nil
	}
	return "", false, nil
}

// withExtension replaces the suffix of the last key element with ext.
// Names that are only a leading dot keep it.
func withExtension(key, ext string) string {
	dir, name := path.Split(key)
	if old := path.Ext(name); old != "" && old != name {
		name = strings.TrimSuffix(name, old)
	}
	return dir + name + ext
}
