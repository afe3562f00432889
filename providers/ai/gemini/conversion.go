package gemini

import (
	"strings"

	"github.com/larkin/modelgate/providers/ai"
)

// requestToGemini converts a uniform ai.Request to a Gemini
// generateContentRequest.
//
// Role mapping: user -> user, assistant -> model. Gemini has no system role
// in contents, so system turns are folded into a leading user turn followed
// by a short model acknowledgment, the shape the API tolerates best.
func requestToGemini(request ai.Request) generateContentRequest {
	req := generateContentRequest{
		Contents: buildContents(request.Turns),
	}

	cfg := &generationConfig{}
	if request.Config.MaxTokens > 0 {
		maxOutput := request.Config.MaxTokens
		cfg.MaxOutputTokens = &maxOutput
	}
	if request.Config.Temperature > 0 {
		temperature := float64(request.Config.Temperature)
		cfg.Temperature = &temperature
	}
	if cfg.MaxOutputTokens != nil || cfg.Temperature != nil {
		req.GenerationConfig = cfg
	}
	return req
}

// buildContents converts ai.Turn slices to Gemini content slices.
func buildContents(turns []ai.Turn) []content {
	var contents []content
	for _, turn := range turns {
		switch turn.Role {
		case ai.RoleUser:
			contents = append(contents, content{
				Role:  "user",
				Parts: []part{{Text: turn.Content}},
			})
		case ai.RoleAssistant:
			if turn.Content == "" {
				continue
			}
			contents = append(contents, content{
				Role:  "model",
				Parts: []part{{Text: turn.Content}},
			})
		case ai.RoleSystem:
			contents = append(contents,
				content{Role: "user", Parts: []part{{Text: turn.Content}}},
				content{Role: "model", Parts: []part{{Text: "Understood."}}},
			)
		}
	}
	return contents
}

// outcomeFromResponse maps the decoded Gemini response to the uniform
// Outcome. An empty candidate list on a 2xx response usually means the
// prompt was blocked, which callers cannot fix by retrying.
func outcomeFromResponse(response generateContentResponse) ai.Outcome {
	if len(response.Candidates) == 0 {
		return ai.Invalid("the model returned no content for this prompt")
	}

	var builder strings.Builder
	for _, p := range response.Candidates[0].Content.Parts {
		builder.WriteString(p.Text)
	}

	var usage ai.Usage
	if response.UsageMetadata != nil {
		usage = ai.Usage{
			PromptTokens:     response.UsageMetadata.PromptTokenCount,
			CompletionTokens: response.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      response.UsageMetadata.TotalTokenCount,
		}
	}
	return ai.Succeed(builder.String(), usage)
}
