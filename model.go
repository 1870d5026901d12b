package chatkit

// ModelKey identifies a model in the ModelRegistry.
type ModelKey string

// ProviderKey identifies the API a model is served by.
type ProviderKey string

const (
	ProviderOpenAI ProviderKey = "openai"
	ProviderGemini ProviderKey = "gemini"
)

// ModelDescriptor describes a model and the plugins it can drive.
type ModelDescriptor struct {
	Key      ModelKey
	Name     string
	Icon     string
	Provider ProviderKey
	// ModelID is the provider-specific identifier sent on the wire.
	ModelID string
	// Plugins lists the tool keys this model is compatible with. An empty
	// list hides the plugin popover.
	Plugins []ToolKey
}

// SupportsPlugin reports whether key is in the model's plugin list.
func (d ModelDescriptor) SupportsPlugin(key ToolKey) bool {
	for _, k := range d.Plugins {
		if k == key {
			return true
		}
	}
	return false
}

// AssistantKey identifies an assistant configuration.
type AssistantKey string

// Assistant is a named configuration bound to a base model.
type Assistant struct {
	Key          AssistantKey
	Name         string
	BaseModel    ModelKey
	SystemPrompt string
}

// ModelRegistry provides synchronous lookups of models and assistants.
type ModelRegistry interface {
	Models() []ModelDescriptor
	ModelByKey(key ModelKey) (ModelDescriptor, bool)
	Assistants() []Assistant
	AssistantByKey(key AssistantKey) (Assistant, bool)
}
