package orchestrator

import (
	"context"
	"path"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"moodle-scraper/calendar"
	"moodle-scraper/downloader"
	"moodle-scraper/moodle"
	"moodle-scraper/scraper"
	"moodle-scraper/uploader"
)

var (
	ErrNoCourses     = errors.New("no courses found")
	ErrInvalidChoice = errors.New("invalid course choice")
)

// untitled names resources whose title sanitizes to nothing.
const untitled = "untitled"

// Options holds the per-run settings of an Orchestrator.
type Options struct {
	UserID      int
	CourseLimit int
	Calendar    bool
}

// Orchestrator lists the user's courses and downloads the selected ones.
type Orchestrator struct {
	session   *moodle.Session
	storage   uploader.Storage
	scheduler *downloader.Scheduler
	opts      Options
	logger    zerolog.Logger

	now func() time.Time
}

func New(session *moodle.Session, storage uploader.Storage, scheduler *downloader.Scheduler, opts Options, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		session:   session,
		storage:   storage,
		scheduler: scheduler,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// ListCourses returns the user's recent courses. Transport failures and
// platform errors are logged and yield no courses.
func (o *Orchestrator) ListCourses(ctx context.Context) []moodle.Course {
	listing, err := o.session.RecentCourses(ctx, o.opts.UserID, o.opts.CourseLimit)
	if err != nil {
		o.logger.Error().Err(err).Msg("Error fetching courses")
		return nil
	}

	switch l := listing.(type) {
	case moodle.ListingAPIError:
		o.logger.Error().Str("remote_message", l.Message).Msgf("API Error: %s", l.Message)
	case moodle.ListingEmpty:
		o.logger.Warn().Msg("Course listing is empty")
	}
	return moodle.Courses(listing)
}

// Run lists the courses and downloads the one at position choice, counting
// from 1, or every course when choice is 0.
func (o *Orchestrator) Run(ctx context.Context, choice int) (downloader.Summary, error) {
	courses := o.ListCourses(ctx)
	if len(courses) == 0 {
		o.logger.Error().Msg("No courses found through any method")
		return downloader.Summary{}, ErrNoCourses
	}
	return o.Download(ctx, courses, choice)
}

// Download processes the selected courses one after another.
func (o *Orchestrator) Download(ctx context.Context, courses []moodle.Course, choice int) (downloader.Summary, error) {
	selected, err := Select(courses, choice)
	if err != nil {
		return downloader.Summary{}, err
	}

	if err := o.storage.Prepare(ctx, ""); err != nil {
		return downloader.Summary{}, errors.Wrap(err, "preparing output root")
	}

	var total downloader.Summary
	for _, course := range selected {
		summary := o.DownloadCourse(ctx, course)
		total.Total += summary.Total
		total.Succeeded += summary.Succeeded
		total.Failed = append(total.Failed, summary.Failed...)
	}
	return total, nil
}

// Select picks the courses a menu choice refers to.
func Select(courses []moodle.Course, choice int) ([]moodle.Course, error) {
	switch {
	case choice == 0:
		return courses, nil
	case choice >= 1 && choice <= len(courses):
		return courses[choice-1 : choice], nil
	default:
		return nil, errors.Wrapf(ErrInvalidChoice, "%d is not between 0 and %d", choice, len(courses))
	}
}

// DownloadCourse scrapes one course and downloads all of its resources.
func (o *Orchestrator) DownloadCourse(ctx context.Context, course moodle.Course) downloader.Summary {
	courseDir := CourseDir(course)
	logger := o.logger.With().Int("course_id", course.ID).Str("course", courseDir).Logger()
	logger.Info().Msgf("Processing course: %s", courseDir)

	if err := o.storage.Prepare(ctx, courseDir); err != nil {
		logger.Error().Err(err).Msg("Failed to create course directory")
		return downloader.Summary{}
	}

	resources, err := scraper.ScrapeCourse(ctx, o.session, course.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting course content")
	}
	logger.Info().Int("resources", len(resources)).Msg("Course scraped")

	jobs, sections := BuildJobs(courseDir, resources)
	for _, dir := range sections {
		if err := o.storage.Prepare(ctx, dir); err != nil {
			logger.Error().Err(err).Str("section", dir).Msg("Failed to create section directory")
		}
	}

	summary := o.scheduler.RunAll(ctx, jobs)

	if o.opts.Calendar {
		o.exportCalendar(ctx, course, courseDir, logger)
	}
	return summary
}

func (o *Orchestrator) exportCalendar(ctx context.Context, course moodle.Course, courseDir string, logger zerolog.Logger) {
	events, err := o.session.CourseEvents(ctx, course.ID)
	if err != nil {
		logger.Warn().Err(err).Msg("Skipping calendar export")
		return
	}

	doc := calendar.Export(course.FullName, events, o.now())
	if err := o.storage.Save(ctx, path.Join(courseDir, calendar.FileName), []byte(doc)); err != nil {
		logger.Error().Err(err).Msg("Failed to save calendar")
		return
	}
	logger.Info().Int("events", len(events)).Msg("Calendar exported")
}

// CourseDir is the storage directory of a course, derived from its short
// name.
func CourseDir(course moodle.Course) string {
	if name := scraper.Sanitize(course.ShortName); name != "" {
		return name
	}
	return "course-" + strconv.Itoa(course.ID)
}

// BuildJobs maps resources to download jobs under courseDir and returns the
// distinct section directories they need, in first-seen order.
func BuildJobs(courseDir string, resources []scraper.Resource) ([]downloader.Job, []string) {
	jobs := make([]downloader.Job, 0, len(resources))
	var sections []string
	seen := map[string]bool{}

	for _, r := range resources {
		section := scraper.Sanitize(r.Section)
		if section == "" {
			section = scraper.DefaultSection
		}
		name := scraper.Sanitize(r.Name)
		if name == "" {
			name = untitled
		}

		dir := path.Join(courseDir, section)
		if !seen[dir] {
			seen[dir] = true
			sections = append(sections, dir)
		}
		jobs = append(jobs, downloader.Job{
			URL:    r.URL,
			Kind:   r.Kind,
			Target: path.Join(dir, name),
		})
	}
	return jobs, sections
}
