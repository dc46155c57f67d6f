package transfer

import (
	"time"

	"github.com/google/uuid"
)

type PostCreation struct {
	Title         *string    `json:"title"`
	ContentText   *string    `json:"content_text"`
	SocialNetwork string     `json:"social_network"`
	ContentType   string     `json:"content_type"`
	Status        string     `json:"status"`
	ScheduledAt   *time.Time `json:"scheduled_at"`
}

// PostUpdate is a partial update. Fields left out of the JSON body are not
// touched; fields sent as null are cleared.
type PostUpdate struct {
	Title                  Nullable[string]        `json:"title"`
	ContentText            Nullable[string]        `json:"content_text"`
	SocialNetwork          Nullable[string]        `json:"social_network"`
	ContentType            Nullable[string]        `json:"content_type"`
	MediaURL               Nullable[string]        `json:"media_url"`
	MediaStoragePath       Nullable[string]        `json:"media_storage_path"`
	Status                 Nullable[string]        `json:"status"`
	ScheduledAt            Nullable[time.Time]     `json:"scheduled_at"`
	ConfirmWIPImageDetails *ConfirmWIPImageDetails `json:"confirm_wip_image_details"`
}

type ConfirmWIPImageDetails struct {
	Path        string `json:"path"`
	Extension   string `json:"extension"`
	ContentType string `json:"content_type"`
}

type PostFilter struct {
	OrganizationID uuid.UUID
	Status         string
	SocialNetwork  string
	ContentType    string
	DateFrom       *time.Time
	DateTo         *time.Time
	Deleted        string // not_deleted, deleted, all
	Limit          int
	Offset         int
}

const (
	DeletedFilterNotDeleted = "not_deleted"
	DeletedFilterDeleted    = "deleted"
	DeletedFilterAll        = "all"
)

type PreviewImageRequest struct {
	CustomPrompt *string `json:"custom_prompt"`
}

type PreviewImage struct {
	PreviewImageURL       string `json:"preview_image_url"`
	PreviewStoragePath    string `json:"preview_storage_path"`
	PreviewImageExtension string `json:"preview_image_extension"`
	PreviewContentType    string `json:"preview_content_type"`
	PromptUsed            string `json:"prompt_used,omitempty"`
}

type WIPUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}
