// Package content is the boundary to the content generator collaborator.
// The dispatch core never inspects what comes back; it forwards subject and
// body as opaque text.
package content

import (
	"context"
	"strings"

	"github.com/coldpilot/coldpilot-backend/internal/model"
)

// Request describes a campaign/recipient pairing to generate content for.
type Request struct {
	CampaignID   int
	CampaignName string
	CampaignType model.CampaignType

	RecipientEmail string
	FirstName      string
	LastName       string
	Company        string
}

type Content struct {
	Subject  string
	Body     string
	HTMLBody string
}

type Generator interface {
	Generate(ctx context.Context, req Request) (*Content, error)
}

// TemplateGenerator is the built-in generator: placeholder substitution over
// fixed subject/body templates. Deployments that plug in an AI generator
// replace it behind the same interface.
type TemplateGenerator struct {
	SubjectTemplate string
	BodyTemplate    string
}

func (g *TemplateGenerator) Generate(_ context.Context, req Request) (*Content, error) {
	data := map[string]string{
		"campaign_name": req.CampaignName,
		"email":         req.RecipientEmail,
		"first_name":    req.FirstName,
		"last_name":     req.LastName,
		"company":       req.Company,
	}
	return &Content{
		Subject: Render(g.SubjectTemplate, data),
		Body:    Render(g.BodyTemplate, data),
	}, nil
}

// Render substitutes {key} placeholders. Missing values render as-is rather
// than erroring; the generator contract is best-effort text.
func Render(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		if v == "" {
			continue
		}
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

var _ Generator = (*TemplateGenerator)(nil)
