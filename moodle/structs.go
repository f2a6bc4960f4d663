package moodle

import "encoding/json"

// Course is one entry of the recent-courses listing.
type Course struct {
	ID        int    `json:"id"`
	ShortName string `json:"shortname"`
	FullName  string `json:"fullname"`
}

// Event is a calendar action event attached to a course.
type Event struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	URL          string `json:"url"`
	TimeStart    int64  `json:"timestart"`
	TimeDuration int64  `json:"timeduration"`
}

// CourseListing is the decoded result of the recent-courses call. It is one
// of ListingOK, ListingEmpty or ListingAPIError.
type CourseListing interface {
	isCourseListing()
}

// ListingOK carries the courses returned by the platform.
type ListingOK struct {
	Courses []Course
}

// ListingEmpty means the platform answered without any course data.
type ListingEmpty struct{}

// ListingAPIError is the platform's error envelope.
type ListingAPIError struct {
	Message string
}

func (ListingOK) isCourseListing()       {}
func (ListingEmpty) isCourseListing()    {}
func (ListingAPIError) isCourseListing() {}

func (e ListingAPIError) Error() string {
	return "moodle api error: " + e.Message
}

// Courses returns the courses of a listing, or nil for anything but ListingOK.
func Courses(l CourseListing) []Course {
	if ok, isOK := l.(ListingOK); isOK {
		return ok.Courses
	}
	return nil
}

type ajaxRequest struct {
	Index      int         `json:"index"`
	MethodName string      `json:"methodname"`
	Args       interface{} `json:"args"`
}

type ajaxException struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorcode"`
}

type ajaxResponse struct {
	Error     bool            `json:"error"`
	Data      json.RawMessage `json:"data"`
	Exception *ajaxException  `json:"exception"`
}
