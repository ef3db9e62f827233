package app

import (
	"fmt"
	"strings"
)

const reportSystemPrompt = "You are a senior risk analyst writing concise, factual risk intelligence briefings for business leaders."

const podcastSystemPrompt = "You are a journalist narrating a risk intelligence podcast. Write flowing spoken-word prose without headings, bullet points or stage directions."

func reportPrompt(risk string, countries []string, year int) string {
	return fmt.Sprintf(
		"Write a professional risk report section about %s risk in %s for %d. "+
			"Structure the content under exactly three uppercase headings: "+
			"CONTEXT AND TRENDS, BUSINESS IMPACT, RECOMMENDATIONS AND MITIGATION. "+
			"Be specific to the named countries and avoid generic filler.",
		risk, strings.Join(countries, ", "), year)
}

func podcastPrompt(risk string, countries []string, year int) string {
	return fmt.Sprintf(
		"Narrate a podcast segment about %s risk in %s, looking ahead to %d. "+
			"Cover the current situation, what it means for businesses operating there, "+
			"and what listeners should watch for next. Keep it under three minutes of speech.",
		risk, strings.Join(countries, ", "), year)
}

// failedTopicPlaceholder is the body substituted when one topic's generation
// fails; the remaining topics still render.
func failedTopicPlaceholder(risk string, err error) string {
	return fmt.Sprintf("Content generation failed for risk %s: %v", risk, err)
}
