package service

import (
	"regexp"

	"linkkeeper/models"
)

// urlBody is the character set a URL may be built from after its scheme.
// Note that `$-_` is a range and covers digits, upper case letters and most
// path punctuation.
const urlBody = `(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\\(\\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`

var (
	urlPattern = regexp.MustCompile(`https?://` + urlBody)

	// Links the client already renders as an inline animated preview
	gifEmbedPattern = regexp.MustCompile(`https?://(?:(?:www\.)?tenor\.com/view/|(?:www\.)?giphy\.com/gifs/)` + urlBody)
)

// Classify extracts archivable content from a message. URLs are returned in
// order of occurrence with duplicates kept, minus any URL that is also a
// GIF-embed link. Attachments pass through unchanged.
func Classify(text string, attachments []models.AttachmentRef) models.ContentExtraction {
	var extraction models.ContentExtraction

	matches := urlPattern.FindAllString(text, -1)
	if len(matches) > 0 {
		gifs := make(map[string]struct{})
		for _, gif := range gifEmbedPattern.FindAllString(text, -1) {
			gifs[gif] = struct{}{}
		}

		for _, url := range matches {
			if _, isGIF := gifs[url]; isGIF {
				continue
			}
			extraction.URLs = append(extraction.URLs, url)
		}
	}

	if len(attachments) > 0 {
		extraction.Attachments = make([]models.AttachmentRef, len(attachments))
		copy(extraction.Attachments, attachments)
	}

	return extraction
}
