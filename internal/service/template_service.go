// internal/service/template_service.go
package service

import (
	"strings"

	"github.com/unclebandit/suno-approvals/internal/model"
)

func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		if v == "" {
			v = "<unknown>"
		}
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

// notificationTemplates holds the message body per campaign event type.
var notificationTemplates = map[string]string{
	model.EventCampaignSent:     "Hi {recipient}, campaign {campaign_name} is ready for your review: {approval_link}",
	model.EventCampaignResent:   "Hi {recipient}, campaign {campaign_name} was updated and is ready for another review: {approval_link}",
	model.EventCampaignViewed:   "Campaign {campaign_name} was opened by the client.",
	model.EventCampaignReviewed: "The client reviewed campaign {campaign_name}. Current status: {status}.",
}
