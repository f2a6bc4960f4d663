package moodle

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

const (
	methodRecentCourses = "core_course_get_recent_courses"
	methodCourseEvents  = "core_calendar_get_action_events_by_course"
)

// RecentCourses lists the user's recently accessed courses.
func (s *Session) RecentCourses(ctx context.Context, userID, limit int) (CourseListing, error) {
	args := map[string]int{
		"userid": userID,
		"limit":  limit,
	}

	first, err := s.callAjax(ctx, methodRecentCourses, args)
	if err != nil {
		return nil, err
	}

	listing, err := decodeListing(first)
	if err != nil {
		return nil, errors.Wrap(err, "decoding recent courses")
	}
	return listing, nil
}

// decodeListing turns the first element of the ajax response into a
// CourseListing. The element is either a bare course array or a response
// envelope holding data or an exception.
func decodeListing(raw json.RawMessage) (CourseListing, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ListingEmpty{}, nil
	}

	if raw[0] == '[' {
		return coursesListing(raw)
	}

	var resp ajaxResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) > 0 && !bytes.Equal(resp.Data, []byte("null")) {
		return coursesListing(resp.Data)
	}
	if resp.Error || resp.Exception != nil {
		msg := "unknown error"
		if resp.Exception != nil && resp.Exception.Message != "" {
			msg = resp.Exception.Message
		}
		return ListingAPIError{Message: msg}, nil
	}
	return ListingEmpty{}, nil
}

func coursesListing(raw json.RawMessage) (CourseListing, error) {
	var courses []Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return ListingEmpty{}, nil
	}
	return ListingOK{Courses: courses}, nil
}

// CourseEvents returns the upcoming action events of a course.
func (s *Session) CourseEvents(ctx context.Context, courseID int) ([]Event, error) {
	first, err := s.callAjax(ctx, methodCourseEvents, map[string]int{"courseid": courseID})
	if err != nil {
		return nil, err
	}
	if len(first) == 0 {
		return nil, nil
	}

	var resp ajaxResponse
	if err := json.Unmarshal(first, &resp); err != nil {
		return nil, errors.Wrap(err, "decoding course events")
	}
	if resp.Error || resp.Exception != nil {
		msg := "unknown error"
		if resp.Exception != nil {
			msg = resp.Exception.Message
		}
		return nil, ListingAPIError{Message: msg}
	}

	var data struct {
		Events []Event `json:"events"`
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, errors.Wrap(err, "decoding course events")
	}
	return data.Events, nil
}
