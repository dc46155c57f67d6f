package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/contentflow/contentflow-api/internal/models"
	"github.com/contentflow/contentflow-api/internal/repository"
	"github.com/contentflow/contentflow-api/internal/transfer"
)

const maxContentIdeas = 3

const ideasSystemPrompt = "You are a social media strategist. Follow the requested output format exactly."

const ideasPromptTemplate = `Propose %d social media content ideas for the brand below.

Brand: %s
Industry: %s
%s
For each idea, answer with exactly this structure and nothing else:
IDEA_START
HOOK:: <one attention grabbing sentence>
DESCRIPTION:: <two or three sentences describing the post>
FORMAT:: <suggested format, e.g. carousel, reel, thread>
IDEA_END
Repeat the block for every idea. Do not number the ideas and do not add text before the first IDEA_START or after the last IDEA_END.`

type ContentService interface {
	GenerateIdeas(ctx context.Context, user transfer.CurrentUser, req *transfer.ContentIdeasRequest) (*transfer.ContentIdeas, error)
}

type contentService struct {
	sr   repository.SettingsRepository
	text TextGenerator
}

func NewContentService(sr repository.SettingsRepository, text TextGenerator) ContentService {
	return &contentService{sr: sr, text: text}
}

func (s *contentService) GenerateIdeas(ctx context.Context, user transfer.CurrentUser, req *transfer.ContentIdeasRequest) (*transfer.ContentIdeas, error) {
	if err := requireOrganization(user); err != nil {
		return nil, err
	}

	settings, isExist, err := s.sr.GetByOrganizationID(ctx, user.OrganizationID)
	if err != nil {
		return nil, databaseError("failed to load organization settings", err)
	}
	if !isExist {
		return nil, notFoundError("AI settings have not been configured for this organization")
	}

	topic := ""
	if req != nil {
		topic = req.Topic
	}
	prompt, err := buildIdeasPrompt(settings, topic)
	if err != nil {
		return nil, err
	}

	raw, err := s.text.GenerateText(ctx, ideasSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	ideas := parseDelimitedIdeas(raw)
	if len(ideas) == 0 {
		slog.Warn("text generator returned no parsable ideas", "organization_id", user.OrganizationID)
		return nil, newError(ErrGenUnavailable, "could not generate content ideas, try again later", nil)
	}

	return &transfer.ContentIdeas{Ideas: ideas}, nil
}

func buildIdeasPrompt(settings *models.OrganizationSettings, topic string) (string, error) {
	name, industry := deref(settings.AIBrandName), deref(settings.AIBrandIndustry)
	if name == "" || industry == "" {
		return "", validationError("brand name and industry must be configured before generating ideas")
	}

	var extra strings.Builder
	writeLine := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&extra, "%s: %s\n", label, value)
		}
	}
	writeLine("Description", deref(settings.AIBrandDescription))
	writeLine("Target audience", deref(settings.AITargetAudience))
	writeLine("Tone", deref(settings.AIBrandTone))
	writeLine("Personality", strings.Join(settings.AIBrandPersonality, ", "))
	writeLine("Keywords", strings.Join(settings.AIBrandKeywords, ", "))
	writeLine("Never use these words", strings.Join(settings.AIProhibitedWords, ", "))
	writeLine("Language", deref(settings.AILanguage))
	writeLine("Topic to focus on", strings.TrimSpace(topic))

	return fmt.Sprintf(ideasPromptTemplate, maxContentIdeas, name, industry, extra.String()), nil
}

// parseDelimitedIdeas reads IDEA_START/IDEA_END blocks. Blocks without a hook
// or description are dropped; an unterminated trailing block still counts.
func parseDelimitedIdeas(raw string) []transfer.ContentIdea {
	var ideas []transfer.ContentIdea
	var current *transfer.ContentIdea

	flush := func() {
		if current != nil && current.Hook != "" && current.Description != "" {
			ideas = append(ideas, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case line == "IDEA_START":
			flush()
			current = &transfer.ContentIdea{}
		case line == "IDEA_END":
			flush()
		default:
			if current == nil {
				current = &transfer.ContentIdea{}
			}
			if v, ok := strings.CutPrefix(line, "HOOK::"); ok {
				current.Hook = strings.TrimSpace(v)
			} else if v, ok := strings.CutPrefix(line, "DESCRIPTION::"); ok {
				current.Description = strings.TrimSpace(v)
			} else if v, ok := strings.CutPrefix(line, "FORMAT::"); ok {
				current.SuggestedFormat = strings.TrimSpace(v)
			}
		}
	}
	flush()

	if len(ideas) > maxContentIdeas {
		ideas = ideas[:maxContentIdeas]
	}
	return ideas
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
