package openai

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

const groqHost = "api.groq.com"

// normalizeBaseURL 把用户填写的地址规整为 chat completions 的根路径（以 /v1 结尾）。
// Groq 的兼容接口挂在 /openai/v1 下，只给主机名时补上该前缀。
func normalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil || parsed.Host == "" {
		return raw
	}

	path := strings.TrimRight(parsed.Path, "/")
	path = strings.TrimSuffix(path, "/chat/completions")
	path = strings.TrimRight(path, "/")
	for strings.HasSuffix(path, "/v1/v1") {
		path = strings.TrimSuffix(path, "/v1")
	}
	if strings.EqualFold(parsed.Hostname(), groqHost) && !strings.HasPrefix(path, "/openai") {
		path = "/openai" + path
	}
	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	parsed.Path = path
	parsed.RawPath = ""
	return parsed.String()
}

// endpointAddr 返回 base URL 对应的 host:port，空值按 DefaultBaseURL 处理。
func endpointAddr(baseURL string) (string, error) {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	parsed, err := url.Parse(normalizeBaseURL(raw))
	if err != nil {
		return "", fmt.Errorf("invalid base_url %q: %w", baseURL, err)
	}
	host := parsed.Hostname()
	if host == "" {
		return "", fmt.Errorf("invalid base_url %q: no host", baseURL)
	}
	port := parsed.Port()
	if port == "" {
		switch strings.ToLower(parsed.Scheme) {
		case "https":
			port = "443"
		case "http":
			port = "80"
		default:
			return "", fmt.Errorf("unsupported base_url scheme %q (base_url=%q)", parsed.Scheme, baseURL)
		}
	}
	return net.JoinHostPort(host, port), nil
}
