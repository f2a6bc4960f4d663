package scraper

import "strings"

var extensionsByContentType = map[string]string{
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/vnd.ms-excel": ".xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         ".xlsx",
	"application/vnd.ms-powerpoint":                                             ".ppt",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": ".pptx",
	"application/zip":          ".zip",
	"application/octet-stream": ".bin",
	"image/jpeg":               ".jpg",
	"image/png":                ".png",
	"audio/mpeg":               ".mp3",
	"video/mp4":                ".mp4",
	"text/plain":               ".txt",
	"text/csv":                 ".csv",
}

// ExtensionForContentType returns the file extension, with its leading dot,
// for a Content-Type header value. Parameters such as charset are ignored.
// Unknown types yield "".
func ExtensionForContentType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return extensionsByContentType[strings.ToLower(strings.TrimSpace(mediaType))]
}
