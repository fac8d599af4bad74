package openai

// Chat completions wire types. Only the fields this client sends or reads.

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	MaxTokens      int            `json:"max_tokens"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   *usage   `json:"usage,omitempty"`
}

type choice struct {
	Index        int             `json:"index"`
	Message      responseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

type responseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// visionResult is the JSON object the model answers with. Every field may be
// missing, so all of them are pointers.
type visionResult struct {
	Name       *string       `json:"name"`
	Calories   *float64      `json:"calories"`
	Macros     *resultMacros `json:"macros"`
	Serving    *resultServe  `json:"serving"`
	Items      []resultItem  `json:"items"`
	Confidence *float64      `json:"confidence"`
	Advice     *string       `json:"advice"`
}

// empty reports whether the provider answered without any result field,
// e.g. `null` or an object of unrelated keys.
func (r visionResult) empty() bool {
	return r.Name == nil && r.Calories == nil && r.Macros == nil && r.Serving == nil &&
		r.Items == nil && r.Confidence == nil && r.Advice == nil
}

type resultMacros struct {
	Carbs   *float64 `json:"carbs"`
	Protein *float64 `json:"protein"`
	Fat     *float64 `json:"fat"`
}

type resultServe struct {
	Unit   *string  `json:"unit"`
	Amount *float64 `json:"amount"`
}

type resultItem struct {
	Name     *string  `json:"name"`
	Amount   *float64 `json:"amount"`
	Unit     *string  `json:"unit"`
	Calories *float64 `json:"calories"`
}
