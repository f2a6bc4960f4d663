package scraper

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"moodle-scraper/moodle"
)

// DefaultSection names activities whose section has no title.
const DefaultSection = "General"

// ScrapeCourse fetches a course page and returns its downloadable resources
// with URLs resolved against the session's base URL.
func ScrapeCourse(ctx context.Context, session *moodle.Session, courseID int) ([]Resource, error) {
	pageURL := fmt.Sprintf("%s/course/view.php?id=%d", session.BaseURL, courseID)

	resp, err := session.Get(ctx, pageURL)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching course %d", courseID)
	}
	defer resp.Body.Close()

	resources, err := ParseCoursePage(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing course %d", courseID)
	}

	for i := range resources {
		abs, err := session.ResolveURL(resources[i].URL)
		if err != nil {
			continue
		}
		resources[i].URL = abs
	}
	return resources, nil
}

// ParseCoursePage extracts resources from course page markup, in document
// order. Activities without a name element or without a file or folder link
// are skipped.
func ParseCoursePage(r io.Reader) ([]Resource, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var resources []Resource
	doc.Find("li.section").Each(func(i int, section *goquery.Selection) {
		sectionName := DefaultSection
		if title := section.Find("h3.sectionname").First(); title.Length() > 0 {
			sectionName = strings.TrimSpace(title.Text())
		}

		section.Find("li.activity").Each(func(j int, activity *goquery.Selection) {
			instanceName := activity.Find("span.instancename").First()
			if instanceName.Length() == 0 {
				return
			}

			href, ok := activity.Find("a[href]").First().Attr("href")
			if !ok {
				return
			}

			kind, ok := ClassifyLink(href)
			if !ok {
				return
			}

			resources = append(resources, Resource{
				Section: sectionName,
				Name:    strings.TrimSpace(instanceName.Text()),
				URL:     href,
				Kind:    kind,
			})
		})
	})

	return resources, nil
}

// ClassifyLink decides whether an activity link points at a folder or a
// single file resource. Links that are neither are not downloadable.
func ClassifyLink(href string) (Kind, bool) {
	switch {
	case strings.Contains(href, "folder"):
		return KindFolder, true
	case strings.Contains(href, "resource"):
		return KindFile, true
	default:
		return 0, false
	}
}
