package domain

// DirectiveKind identifies the variant of a RenderDirective
type DirectiveKind string

const (
	DirectiveCoreInfo       DirectiveKind = "core_info"
	DirectiveStockBanner    DirectiveKind = "stock_banner"
	DirectiveSecondaryInfo  DirectiveKind = "secondary_info"
	DirectiveImage          DirectiveKind = "image"
	DirectiveDescription    DirectiveKind = "description"
	DirectiveRecommendedFor DirectiveKind = "recommended_for"
	DirectiveProductLink    DirectiveKind = "product_link"
)

// RenderDirective is one presentation decision handed to the UI host
type RenderDirective interface {
	Kind() DirectiveKind
}

// BannerVariant selects the stock banner shown above the product
type BannerVariant string

const (
	BannerNone BannerVariant = "none"
	BannerLow  BannerVariant = "low"
	BannerOut  BannerVariant = "out"
)

// CoreInfo carries the always-present product identity
type CoreInfo struct {
	Name  string `json:"name"`
	ID    string `json:"id"`
	Price string `json:"price"`
}

// StockBanner tells the UI which stock warning to show, if any
type StockBanner struct {
	Variant BannerVariant `json:"variant"`
	Message string        `json:"message,omitempty"`
}

// SecondaryInfo always carries four populated slots
type SecondaryInfo struct {
	Category     string `json:"category"`
	Maker        string `json:"maker"`
	Score        string `json:"score"`
	ReviewNumber string `json:"reviewNumber"`
	Rating       string `json:"rating"` // e.g. "4.5(120件)"
}

// Image points at the product picture. Available is false when the record has no file name.
type Image struct {
	Path      string `json:"path"`
	Available bool   `json:"available"`
}

// Description carries the product description, possibly multi-line
type Description struct {
	Text string `json:"text"`
}

// RecommendedFor describes who the product suits
type RecommendedFor struct {
	Text string `json:"text"`
}

// ProductLink is the call-to-action link to the product page
type ProductLink struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

func (CoreInfo) Kind() DirectiveKind { return DirectiveCoreInfo }
func (StockBanner) Kind() DirectiveKind { return DirectiveStockBanner }
func (SecondaryInfo) Kind() DirectiveKind { return DirectiveSecondaryInfo }
func (Image) Kind() DirectiveKind { return DirectiveImage }
func (Description) Kind() DirectiveKind { return DirectiveDescription }
func (RecommendedFor) Kind() DirectiveKind { return DirectiveRecommendedFor }
func (ProductLink) Kind() DirectiveKind { return DirectiveProductLink }

// ProductView is everything the UI host needs to present one recommendation
type ProductView struct {
	Intro      string            `json:"intro"`
	Record     ProductRecord     `json:"record"`
	Directives []RenderDirective `json:"-"`
}
