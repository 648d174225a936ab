package usecase

import (
	"fmt"
	"path"
	"strings"

	"github.com/productrecommend/backend/internal/domain"
)

// Default presentation settings
const (
	DefaultPlaceholder = "—"
	DefaultImageDir    = "images/products"
	DefaultProductURL  = "https://google.com"

	// IntroMessage precedes every recommended product
	IntroMessage = "以下の商品をご提案いたします。"

	productLinkLabel  = "商品ページを開く"
	lowStockMessage   = "ご好評につき、在庫数残りわずかです。購入を希望の場合、お早めの注文をおすすめします。"
	outOfStockMessage = "申し訳ございませんが、現在在庫切れとなっております。入荷まで今しばらくお待ちください。"
)

// PresenterConfig holds configuration for the presenter
type PresenterConfig struct {
	ImageDir    string
	ProductURL  string
	Placeholder string
}

// Presenter derives render directives from a validated ProductRecord
type Presenter struct {
	imageDir    string
	productURL  string
	placeholder string
}

// NewPresenter creates a new presenter, filling unset config with defaults
func NewPresenter(config PresenterConfig) *Presenter {
	p := &Presenter{
		imageDir:    config.ImageDir,
		productURL:  config.ProductURL,
		placeholder: config.Placeholder,
	}
	if p.imageDir == "" {
		p.imageDir = DefaultImageDir
	}
	if p.productURL == "" {
		p.productURL = DefaultProductURL
	}
	if p.placeholder == "" {
		p.placeholder = DefaultPlaceholder
	}
	return p
}

// Derive returns the directives for record in display order.
// Exactly one StockBanner is always included.
func (p *Presenter) Derive(record domain.ProductRecord) []domain.RenderDirective {
	score := p.value(record, domain.FieldScore)
	reviews := p.value(record, domain.FieldReviewNumber)

	return []domain.RenderDirective{
		domain.CoreInfo{
			Name:  p.value(record, domain.FieldName),
			ID:    p.value(record, domain.FieldID),
			Price: p.value(record, domain.FieldPrice),
		},
		stockBanner(record[domain.FieldStockStatus]),
		domain.SecondaryInfo{
			Category:     p.value(record, domain.FieldCategory),
			Maker:        p.value(record, domain.FieldMaker),
			Score:        score,
			ReviewNumber: reviews,
			Rating:       fmt.Sprintf("%s(%s件)", score, reviews),
		},
		p.image(record),
		domain.Description{Text: p.value(record, domain.FieldDescription)},
		domain.RecommendedFor{Text: p.value(record, domain.FieldRecommendedPeople)},
		domain.ProductLink{URL: p.productURL, Label: productLinkLabel},
	}
}

func (p *Presenter) value(record domain.ProductRecord, key domain.FieldKey) string {
	return record.ValueOr(key, p.placeholder)
}

func (p *Presenter) image(record domain.ProductRecord) domain.Image {
	fileName, ok := record.Get(domain.FieldFileName)
	if !ok || fileName == "" {
		return domain.Image{}
	}
	name, ok := imageFileName(fileName)
	if !ok {
		return domain.Image{}
	}
	return domain.Image{Path: path.Join(p.imageDir, name), Available: true}
}

// imageFileName cleans a file name and rejects one that would resolve
// outside the image directory
func imageFileName(fileName string) (string, bool) {
	name := path.Clean(strings.ReplaceAll(fileName, "\\", "/"))
	if path.IsAbs(name) || name == "." || name == ".." || strings.HasPrefix(name, "../") {
		return "", false
	}
	return name, true
}

// stockBanner maps a stock label to its banner; anything but low/out shows nothing
func stockBanner(status string) domain.StockBanner {
	switch domain.StockStatus(status) {
	case domain.StockLow:
		return domain.StockBanner{Variant: domain.BannerLow, Message: lowStockMessage}
	case domain.StockOut:
		return domain.StockBanner{Variant: domain.BannerOut, Message: outOfStockMessage}
	default:
		return domain.StockBanner{Variant: domain.BannerNone}
	}
}
