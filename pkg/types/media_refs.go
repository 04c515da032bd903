package types

// MediaRefs groups off-chain content references attached to a batch,
// keyed by kind. Each entry is a content hash or URL.
type MediaRefs struct {
	Images       []string `json:"images,omitempty"`
	Documents    []string `json:"documents,omitempty"`
	Videos       []string `json:"videos,omitempty"`
	Certificates []string `json:"certificates,omitempty"`
}
