package agent

// ToolSpec 描述可供模型调用的工具定义，遵循 function 工具的通用 schema 约定。
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Prompt 代表一次模型调用的完整请求，包括模型、消息与工具配置。
type Prompt struct {
	Model       string
	System      string
	Messages    []Message
	Tools       []ToolSpec
	Temperature *float64
}

// RequiredParams extracts the "required" list from a JSON schema map.
func (s ToolSpec) RequiredParams() []string {
	switch v := s.Parameters["required"].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// Properties returns the "properties" object of the schema, or nil.
func (s ToolSpec) Properties() map[string]any {
	props, _ := s.Parameters["properties"].(map[string]any)
	return props
}
