package models

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	OrganizationID     uuid.UUID  `db:"organization_id" json:"organization_id"`
	AuthorUserID       uuid.UUID  `db:"author_user_id" json:"author_user_id"`
	Title              *string    `db:"title" json:"title"`
	ContentText        *string    `db:"content_text" json:"content_text"`
	SocialNetwork      string     `db:"social_network" json:"social_network"`
	ContentType        string     `db:"content_type" json:"content_type"`
	ContentTypeDisplay string     `db:"-" json:"content_type_display"`
	MediaURL           *string    `db:"media_url" json:"media_url"`
	MediaStoragePath   *string    `db:"media_storage_path" json:"media_storage_path"`
	Status             string     `db:"status" json:"status"` // draft, approved, scheduled, published, deleted
	ScheduledAt        *time.Time `db:"scheduled_at" json:"scheduled_at"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt          *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

const (
	PostStatusDraft     = "draft"
	PostStatusApproved  = "approved"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusDeleted   = "deleted"
)

func IsPostStatus(s string) bool {
	switch s {
	case PostStatusDraft, PostStatusApproved, PostStatusScheduled, PostStatusPublished, PostStatusDeleted:
		return true
	}
	return false
}

const (
	ContentTypeArticle    = "ARTICLE"
	ContentTypeCarousel   = "CAROUSEL"
	ContentTypeEphemeral  = "EPHEMERAL"
	ContentTypeThread     = "THREAD"
	ContentTypeLinkPost   = "LINK_POST"
	ContentTypeImagePost  = "IMAGE_POST"
	ContentTypeTextPost   = "TEXT_POST"
	ContentTypeShortVideo = "SHORT_VIDEO"
	ContentTypeInfoVideo  = "INFO_VIDEO"
)

var contentTypeDisplayNames = map[string]string{
	ContentTypeArticle:    "Article / Blog post",
	ContentTypeCarousel:   "Carousel",
	ContentTypeEphemeral:  "Story / Ephemeral",
	ContentTypeThread:     "Thread",
	ContentTypeLinkPost:   "Link post",
	ContentTypeImagePost:  "Image post",
	ContentTypeTextPost:   "Text post",
	ContentTypeShortVideo: "Short video (Reel / TikTok / Short)",
	ContentTypeInfoVideo:  "Informative video",
}

func IsContentType(ct string) bool {
	_, ok := contentTypeDisplayNames[ct]
	return ok
}

// ContentTypeDisplayName falls back to the raw value for unknown types.
func ContentTypeDisplayName(ct string) string {
	if name, ok := contentTypeDisplayNames[ct]; ok {
		return name
	}
	return ct
}
