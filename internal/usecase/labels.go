package usecase

import (
	"strings"

	"github.com/productrecommend/backend/internal/domain"
)

// labelSynonyms maps a normalized label (see labelLookupKey) to its canonical field.
// Built once at init and never written afterwards.
var labelSynonyms = buildLabelIndex(map[domain.FieldKey][]string{
	domain.FieldID:                {"id", "商品id", "商品ID", "product id", "product_id"},
	domain.FieldName:              {"name", "商品名", "product name", "product_name"},
	domain.FieldPrice:             {"price", "価格"},
	domain.FieldCategory:          {"category", "商品カテゴリ", "カテゴリ"},
	domain.FieldMaker:             {"maker", "メーカー"},
	domain.FieldScore:             {"score", "評価"},
	domain.FieldReviewNumber:      {"review_number", "レビュー件数"},
	domain.FieldFileName:          {"file_name", "ファイル名"},
	domain.FieldDescription:       {"description", "説明", "商品説明"},
	domain.FieldRecommendedPeople: {"recommended_people", "おすすめ対象", "こんな方におすすめ"},
	domain.FieldStockStatus:       {"stock_status", "stock status", "在庫状況", "在庫"},
})

func buildLabelIndex(labels map[domain.FieldKey][]string) map[string]domain.FieldKey {
	index := make(map[string]domain.FieldKey)
	for key, synonyms := range labels {
		for _, s := range synonyms {
			index[labelLookupKey(s)] = key
		}
	}
	return index
}

// labelLookupKey lower-cases a label and drops all whitespace
func labelLookupKey(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), ""))
}

// canonicalFieldKey resolves a label to its FieldKey.
// Unknown labels are kept as their trimmed, lower-cased text.
func canonicalFieldKey(label string) domain.FieldKey {
	trimmed := strings.TrimSpace(label)
	if key, ok := labelSynonyms[labelLookupKey(trimmed)]; ok {
		return key
	}
	return domain.FieldKey(strings.ToLower(trimmed))
}
