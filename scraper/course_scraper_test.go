package scraper

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodle-scraper/moodle"
)

const twoWeekPage = `<html><body><ul class="topics">
<li class="section main" id="section-1">
  <h3 class="sectionname"><span>Week 1</span></h3>
  <ul class="section">
    <li class="activity resource modtype_resource">
      <a href="https://moodle.example.edu/mod/resource/view.php?id=11"><span class="instancename">Slides 1</span></a>
    </li>
  </ul>
</li>
<li class="section main" id="section-2">
  <h3 class="sectionname">  Week 2  </h3>
  <ul class="section">
    <li class="activity resource modtype_resource">
      <a href="https://moodle.example.edu/mod/resource/view.php?id=12"><span class="instancename">Slides 2</span></a>
    </li>
  </ul>
</li>
</ul></body></html>`

func TestParseCoursePageTwoSections(t *testing.T) {
	resources, err := ParseCoursePage(strings.NewReader(twoWeekPage))
	require.NoError(t, err)
	require.Len(t, resources, 2)

	assert.Equal(t, Resource{
		Section: "Week 1",
		Name:    "Slides 1",
		URL:     "https://moodle.example.edu/mod/resource/view.php?id=11",
		Kind:    KindFile,
	}, resources[0])
	assert.Equal(t, "Week 2", resources[1].Section)
	assert.Equal(t, KindFile, resources[1].Kind)
}

func TestParseCoursePageEdgeCases(t *testing.T) {
	page := `<ul>
<li class="section">
  <ul>
    <li class="activity"><a href="/mod/folder/view.php?id=1"><span class="instancename">Readings</span></a></li>
    <li class="activity"><a href="/mod/forum/view.php?id=2"><span class="instancename">Forum</span></a></li>
    <li class="activity"><a href="/mod/resource/view.php?id=3">No name element</a></li>
    <li class="activity"><span class="instancename">No link</span></li>
    <li class="activity">
      <a href="/mod/resource/view.php?id=4"><span class="instancename">First link</span></a>
      <a href="/mod/folder/view.php?id=5">second link</a>
    </li>
  </ul>
</li>
<li class="section"><h3 class="sectionname">Empty</h3></li>
</ul>`

	resources, err := ParseCoursePage(strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, resources, 2)

	assert.Equal(t, DefaultSection, resources[0].Section)
	assert.Equal(t, "Readings", resources[0].Name)
	assert.Equal(t, KindFolder, resources[0].Kind)

	assert.Equal(t, "First link", resources[1].Name)
	assert.Equal(t, "/mod/resource/view.php?id=4", resources[1].URL)
	assert.Equal(t, KindFile, resources[1].Kind)
}

func TestClassifyLink(t *testing.T) {
	tests := []struct {
		href string
		kind Kind
		ok   bool
	}{
		{"https://m.example.edu/mod/folder/view.php?id=1", KindFolder, true},
		{"https://m.example.edu/mod/resource/view.php?id=1", KindFile, true},
		{"https://m.example.edu/mod/resource/folder.php", KindFolder, true},
		{"https://m.example.edu/mod/quiz/view.php?id=1", 0, false},
	}

	for _, test := range tests {
		kind, ok := ClassifyLink(test.href)
		assert.Equal(t, test.ok, ok, test.href)
		if test.ok {
			assert.Equal(t, test.kind, kind, test.href)
		}
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "file", KindFile.String())
	assert.Equal(t, "folder", KindFolder.String())
	assert.Equal(t, "unknown", Kind(9).String())
}

func TestScrapeCourseResolvesLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/course/view.php" || r.URL.Query().Get("id") != "7" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `<ul><li class="section"><h3 class="sectionname">Intro</h3><ul>
<li class="activity"><a href="/mod/resource/view.php?id=70"><span class="instancename">Syllabus</span></a></li>
</ul></li></ul>`)
	}))
	defer srv.Close()

	session, err := moodle.NewSession(srv.URL, "k", "c", moodle.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)

	resources, err := ScrapeCourse(context.Background(), session, 7)
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, srv.URL+"/mod/resource/view.php?id=70", resources[0].URL)

	_, err = ScrapeCourse(context.Background(), session, 8)
	assert.Error(t, err)
}
