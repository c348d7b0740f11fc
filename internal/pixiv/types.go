package pixiv

// MediaType classifies an artwork. The numeric values follow the
// illustType field of the ajax endpoint.
type MediaType int

const (
	MediaIllustration MediaType = 0
	MediaManga        MediaType = 1
	MediaUgoira       MediaType = 2
)

func (t MediaType) String() string {
	switch t {
	case MediaIllustration:
		return "illustration"
	case MediaManga:
		return "manga"
	case MediaUgoira:
		return "ugoira"
	default:
		return "unknown"
	}
}

// ImageURLs holds the per-size base URLs for the first page of a work.
type ImageURLs struct {
	Mini     string `json:"mini"`
	Thumb    string `json:"thumb"`
	Small    string `json:"small"`
	Regular  string `json:"regular"`
	Original string `json:"original"`
}

// BySize returns the URL for the named size, or the empty string when the
// work has no variant of that size.
func (u ImageURLs) BySize(size string) string {
	switch size {
	case "original":
		return u.Original
	case "regular":
		return u.Regular
	case "small":
		return u.Small
	case "thumb":
		return u.Thumb
	case "mini":
		return u.Mini
	default:
		return ""
	}
}

// Artwork is the subset of work metadata the viewer needs.
type Artwork struct {
	ID          string
	Title       string
	Description string
	UserID      string
	UserName    string
	Type        MediaType
	PageCount   int
	URLs        ImageURLs
	Tags        []string
}
