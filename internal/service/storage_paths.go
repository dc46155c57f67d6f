package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	wipFolderName         = "wip"
	wipActiveFilenameBase = "preview_active"
	postImagesFolderName  = "images"
)

var imageExtensions = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
	"gif":  "image/gif",
}

func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(ext), "."))
}

func isImageExtension(ext string) bool {
	_, ok := imageExtensions[normalizeExtension(ext)]
	return ok
}

func postFolderPath(orgID, postID uuid.UUID) string {
	return fmt.Sprintf("%s/posts/%s", orgID, postID)
}

// PostImagesFolderPath is the prefix every permanent image of a post lives under.
func PostImagesFolderPath(orgID, postID uuid.UUID) string {
	return postFolderPath(orgID, postID) + "/" + postImagesFolderName + "/"
}

func PostMediaStoragePath(orgID, postID uuid.UUID, filename string) string {
	return PostImagesFolderPath(orgID, postID) + filename
}

// WIPFolderPath ends with a slash so it can be used directly as a list prefix.
func WIPFolderPath(orgID, postID uuid.UUID) string {
	return postFolderPath(orgID, postID) + "/" + wipFolderName + "/"
}

func WIPImageStoragePath(orgID, postID uuid.UUID, ext string) string {
	return WIPFolderPath(orgID, postID) + wipActiveFilenameBase + "." + normalizeExtension(ext)
}
