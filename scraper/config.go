package scraper

// Default selectors for the Hacker News "newest" listing.
const (
	DefaultListingURL         = "https://news.ycombinator.com/newest"
	DefaultItemSelector       = "tr.athing"
	DefaultTitleSelector      = ".titleline a"
	DefaultAgeSelector        = "span.age a"
	DefaultAgeFallback        = "span.age"
	DefaultPaginationSelector = "a.morelink"
)

// ListConfig defines how items are read from a listing page and how the next
// page is found.
type ListConfig struct {
	URL                string `json:"url" yaml:"url" mapstructure:"url"`
	ItemSelector       string `json:"item_selector" yaml:"item_selector" mapstructure:"item_selector"`
	TitleSelector      string `json:"title_selector" yaml:"title_selector" mapstructure:"title_selector"`
	AgeSelector        string `json:"age_selector" yaml:"age_selector" mapstructure:"age_selector"`
	AgeFallback        string `json:"age_fallback,omitempty" yaml:"age_fallback,omitempty" mapstructure:"age_fallback"`
	PaginationSelector string `json:"pagination_selector" yaml:"pagination_selector" mapstructure:"pagination_selector"`
	MaxPages           int    `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"` // 0 means no limit
}

// NewListConfig creates a list configuration for url with the default
// selectors.
func NewListConfig(url string) *ListConfig {
	return &ListConfig{
		URL:                url,
		ItemSelector:       DefaultItemSelector,
		TitleSelector:      DefaultTitleSelector,
		AgeSelector:        DefaultAgeSelector,
		AgeFallback:        DefaultAgeFallback,
		PaginationSelector: DefaultPaginationSelector,
	}
}

// WithDefaults fills empty selectors with the defaults.
func (c ListConfig) WithDefaults() ListConfig {
	if c.URL == "" {
		c.URL = DefaultListingURL
	}
	if c.ItemSelector == "" {
		c.ItemSelector = DefaultItemSelector
	}
	if c.TitleSelector == "" {
		c.TitleSelector = DefaultTitleSelector
	}
	if c.AgeSelector == "" {
		c.AgeSelector = DefaultAgeSelector
		if c.AgeFallback == "" {
			c.AgeFallback = DefaultAgeFallback
		}
	}
	if c.PaginationSelector == "" {
		c.PaginationSelector = DefaultPaginationSelector
	}
	return c
}
