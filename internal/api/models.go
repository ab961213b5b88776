package api

// PublishRequest is the admission payload for a publish task.
type PublishRequest struct {
	Title          string   `json:"title"                     validate:"required"`
	Content        string   `json:"content"                   validate:"required"`
	Excerpt        string   `json:"excerpt,omitempty"`
	HeroImageURL   string   `json:"hero_image_url,omitempty"  validate:"omitempty,url"`
	Tags           []string `json:"tags,omitempty"`
	Categories     []string `json:"categories,omitempty"`
	PostStatus     string   `json:"post_status,omitempty"     validate:"omitempty,oneof=draft pending-review published"`
	PostType       string   `json:"post_type,omitempty"`
	Author         string   `json:"author,omitempty"`
	ExternalRef    string   `json:"external_ref,omitempty"`
	SEOTitle       string   `json:"seo_title,omitempty"`
	SEODescription string   `json:"seo_description,omitempty"`
}

// PublishResponse acknowledges an admitted task.
type PublishResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
}

// RetryResponse acknowledges a manual callback retry.
type RetryResponse struct {
	Message    string `json:"message"`
	CallbackID string `json:"callback_id"`
}

// HealthResponse reports liveness and effective configuration flags.
type HealthResponse struct {
	Status  string       `json:"status"`
	Version string       `json:"version"`
	Time    string       `json:"time"`
	Config  HealthConfig `json:"config"`
}

// HealthConfig surfaces whether the callback destination is configured
// and which publication defaults are in effect, without leaking the
// values themselves.
type HealthConfig struct {
	CallbackURLConfigured bool   `json:"callback_url_configured"`
	CallbackKeyConfigured bool   `json:"callback_key_configured"`
	DefaultPostStatus     string `json:"default_post_status"`
	DefaultPostType       string `json:"default_post_type"`
}
