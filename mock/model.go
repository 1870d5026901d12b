package mock

import "github.com/fwojciec/chatkit"

var _ chatkit.ModelRegistry = (*ModelRegistry)(nil)

// ModelRegistry is a test double for chatkit.ModelRegistry.
type ModelRegistry struct {
	ModelsFn         func() []chatkit.ModelDescriptor
	ModelByKeyFn     func(key chatkit.ModelKey) (chatkit.ModelDescriptor, bool)
	AssistantsFn     func() []chatkit.Assistant
	AssistantByKeyFn func(key chatkit.AssistantKey) (chatkit.Assistant, bool)
}

func (r *ModelRegistry) Models() []chatkit.ModelDescriptor {
	return r.ModelsFn()
}

func (r *ModelRegistry) ModelByKey(key chatkit.ModelKey) (chatkit.ModelDescriptor, bool) {
	return r.ModelByKeyFn(key)
}

func (r *ModelRegistry) Assistants() []chatkit.Assistant {
	return r.AssistantsFn()
}

func (r *ModelRegistry) AssistantByKey(key chatkit.AssistantKey) (chatkit.Assistant, bool) {
	return r.AssistantByKeyFn(key)
}
