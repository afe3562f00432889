package openrouter

import "github.com/larkin/modelgate/providers/ai"

// requestFromGeneric converts a uniform ai.Request to the OpenRouter wire
// format. Roles pass through unchanged: the OpenAI schema understands
// system, user, and assistant directly.
func requestFromGeneric(request ai.Request) chatCompletionRequest {
	messages := make([]chatMessage, 0, len(request.Turns))
	for _, turn := range request.Turns {
		messages = append(messages, chatMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}

	out := chatCompletionRequest{
		Model:    request.Model,
		Messages: messages,
	}
	if request.Config.MaxTokens > 0 {
		maxTokens := request.Config.MaxTokens
		out.MaxTokens = &maxTokens
	}
	if request.Config.Temperature > 0 {
		temperature := float64(request.Config.Temperature)
		out.Temperature = &temperature
	}
	return out
}

// outcomeFromResponse maps a decoded wire response to the uniform Outcome.
// A 2xx response with no choices is a provider contract violation and is
// reported as Unavailable rather than an empty success.
func outcomeFromResponse(response chatCompletionResponse) ai.Outcome {
	if len(response.Choices) == 0 {
		return ai.Unavailable("provider returned no choices")
	}

	var usage ai.Usage
	if response.Usage != nil {
		usage = ai.Usage{
			PromptTokens:     response.Usage.PromptTokens,
			CompletionTokens: response.Usage.CompletionTokens,
			TotalTokens:      response.Usage.TotalTokens,
		}
	}
	return ai.Succeed(response.Choices[0].Message.Content, usage)
}
