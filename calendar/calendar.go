// Package calendar renders course action events as iCalendar documents.
package calendar

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"time"

	ics "github.com/arran4/golang-ical"

	"moodle-scraper/moodle"
)

// FileName is the storage name of a course's exported calendar.
const FileName = "calendar.ics"

const productID = "-//moodle-scraper//course events//EN"

// Export builds a calendar named after the course. Events without a duration
// are given one hour so every entry has a visible slot. stamp is written as
// DTSTAMP on every event.
func Export(courseName string, events []moodle.Event, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(courseName)

	for _, e := range events {
		start := time.Unix(e.TimeStart, 0).UTC()
		end := start.Add(time.Duration(e.TimeDuration) * time.Second)
		if !end.After(start) {
			end = start.Add(time.Hour)
		}

		event := cal.AddEvent(eventID(courseName, e, start, end))
		event.SetDtStampTime(stamp.UTC())
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(e.Name)
		if e.Description != "" {
			event.SetDescription(e.Description)
		}
		if e.URL != "" {
			event.SetURL(e.URL)
		}
	}

	return cal.Serialize()
}

// eventID is stable across exports so calendar clients update entries
// instead of duplicating them.
func eventID(course string, e moodle.Event, start, end time.Time) string {
	hash := md5.New()
	hash.Write([]byte(course + "|" + strconv.Itoa(e.ID) + "|" + e.Name + "|" + start.Format(time.RFC3339) + "|" + end.Format(time.RFC3339)))
	return hex.EncodeToString(hash.Sum(nil)) + "@moodle-scraper"
}
