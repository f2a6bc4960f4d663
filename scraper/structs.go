package scraper

// Kind is the closed set of downloadable resource kinds.
type Kind int

const (
	// KindFile is a single file behind a resource link.
	KindFile Kind = iota
	// KindFolder is a listing page holding several files.
	KindFolder
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindFolder:
		return "folder"
	default:
		return "unknown"
	}
}

// Resource describes one downloadable item found on a course page.
type Resource struct {
	Section string
	Name    string
	URL     string
	Kind    Kind
}
